package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subject belongs to one Course. TotalSessions is a cached counter maintained
// by the content service when sessions are created or deactivated.
type Subject struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CourseID      primitive.ObjectID `bson:"courseId" json:"courseId"`
	Title         string             `bson:"title" json:"title"`
	Content       string             `bson:"content,omitempty" json:"content,omitempty"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	TotalSessions int                `bson:"totalSessions" json:"totalSessions"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
