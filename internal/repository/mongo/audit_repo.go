package mongo

import (
	"context"
	"time"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditCollectionName = "audit_logs"

// mongoAuditLogRepository implements repository.AuditLogRepository.
type mongoAuditLogRepository struct {
	collection *mongo.Collection
}

// NewMongoAuditLogRepository creates a new AuditLog repository backed by MongoDB.
func NewMongoAuditLogRepository(db *mongo.Database) repository.AuditLogRepository {
	return &mongoAuditLogRepository{
		collection: db.Collection(auditCollectionName),
	}
}

// Create appends one audit record.
func (r *mongoAuditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// List returns audit records newest first.
func (r *mongoAuditLogRepository) List(ctx context.Context, limit, offset int64) ([]domain.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.AuditLog
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureAuditLogIndexes creates the actor and time lookup indexes.
func EnsureAuditLogIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "actorType", Value: 1}, {Key: "actorId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
