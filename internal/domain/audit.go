package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog is one append-only record of an admin or partner action.
// RequestBody and ResponseBody are pre-truncated strings, never raw payloads.
type AuditLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActorType    string             `bson:"actorType" json:"actorType"`
	ActorID      string             `bson:"actorId" json:"actorId"`
	Action       string             `bson:"action" json:"action"`
	EntityType   string             `bson:"entityType,omitempty" json:"entityType,omitempty"`
	EntityID     string             `bson:"entityId,omitempty" json:"entityId,omitempty"`
	RequestID    string             `bson:"requestId,omitempty" json:"requestId,omitempty"`
	RequestBody  string             `bson:"requestBody,omitempty" json:"requestBody,omitempty"`
	ResponseBody string             `bson:"responseBody,omitempty" json:"responseBody,omitempty"`
	StatusCode   int                `bson:"statusCode,omitempty" json:"statusCode,omitempty"`
	Success      bool               `bson:"success" json:"success"`
	ErrorMessage string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
