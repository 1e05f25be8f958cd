package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Center is the root of the content hierarchy. Each center owns a set of
// courses; centers are never hard-deleted, only deactivated.
type Center struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
