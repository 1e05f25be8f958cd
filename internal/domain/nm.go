package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NmClientToken is the cached OAuth client-credential token pair for the NM
// partner API. Only the most recent record is ever consulted.
type NmClientToken struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccessToken  string             `bson:"accessToken" json:"-"`
	RefreshToken string             `bson:"refreshToken" json:"-"`
	ExpiresAt    time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// Expired reports whether the token is past its validity window at t.
func (t *NmClientToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// NmLaunchToken is a single-use launch credential minted for the partner's
// access flow. UsedAt is set at redemption and never cleared.
type NmLaunchToken struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Token      string             `bson:"token" json:"token"`
	NmUserID   string             `bson:"nmUserId" json:"nmUserId"`
	CourseCode string             `bson:"courseCode" json:"courseCode"`
	ExpiresAt  time.Time          `bson:"expiresAt" json:"expiresAt"`
	UsedAt     *time.Time         `bson:"usedAt,omitempty" json:"usedAt,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// NmStudent is a partner-side student mirrored locally, keyed by nmUserId.
type NmStudent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NmUserID  string             `bson:"nmUserId" json:"nmUserId"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NmSubscription ties a partner student to a course. Unique on
// (nmUserId, courseCode); upserts make subscribe calls idempotent.
type NmSubscription struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NmUserID     string             `bson:"nmUserId" json:"nmUserId"`
	CourseCode   string             `bson:"courseCode" json:"courseCode"`
	SubscribedAt time.Time          `bson:"subscribedAt" json:"subscribedAt"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NmProgress is the last-write-wins progress state for a (student, course)
// pair. Progress is free-form as supplied by the course player.
type NmProgress struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	NmUserID      string                 `bson:"nmUserId" json:"nmUserId"`
	CourseCode    string                 `bson:"courseCode" json:"courseCode"`
	Progress      map[string]interface{} `bson:"progress,omitempty" json:"progress,omitempty"`
	LastUpdatedAt time.Time              `bson:"lastUpdatedAt" json:"lastUpdatedAt"`
	CreatedAt     time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time              `bson:"updatedAt" json:"updatedAt"`
}
