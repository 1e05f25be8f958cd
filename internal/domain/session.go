package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session belongs to one Subject. SessionNumber is unique within a subject
// (compound unique index on subjectId + sessionNumber).
type Session struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SubjectID     primitive.ObjectID `bson:"subjectId" json:"subjectId"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	SessionNumber int                `bson:"sessionNumber" json:"sessionNumber"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
