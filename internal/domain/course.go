package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CourseType distinguishes classroom courses from online-only ones.
type CourseType string

const (
	CourseTypeOnline  CourseType = "online"
	CourseTypeOffline CourseType = "offline"
)

// Course belongs to one Center. CourseCode is globally unique; the lowercase
// shadow field backs a case-insensitive unique index and must be rewritten
// together with CourseCode on every update.
type Course struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CenterID        primitive.ObjectID `bson:"centerId" json:"centerId"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	CourseCode      string             `bson:"courseCode" json:"courseCode"`
	CourseCodeLower string             `bson:"courseCodeLower" json:"-"`
	Language        string             `bson:"language,omitempty" json:"language,omitempty"`
	ImageURL        string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CourseType      CourseType         `bson:"courseType" json:"courseType"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	NmPublished     bool               `bson:"nmPublished" json:"nmPublished"`
	NmApproved      bool               `bson:"nmApproved" json:"nmApproved"`
	TotalSubjects   int                `bson:"totalSubjects" json:"totalSubjects"`
	Objectives      []string           `bson:"objectives,omitempty" json:"objectives,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
