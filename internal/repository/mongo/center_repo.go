package mongo

import (
	"context"
	"errors"
	"time"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const centerCollectionName = "centers"

// mongoCenterRepository implements repository.CenterRepository.
type mongoCenterRepository struct {
	collection *mongo.Collection
}

// NewMongoCenterRepository creates a new Center repository backed by MongoDB.
func NewMongoCenterRepository(db *mongo.Database) repository.CenterRepository {
	return &mongoCenterRepository{
		collection: db.Collection(centerCollectionName),
	}
}

// Create inserts a new center.
func (r *mongoCenterRepository) Create(ctx context.Context, center *domain.Center) (primitive.ObjectID, error) {
	if center.Name == "" {
		return primitive.NilObjectID, errors.New("center name is required")
	}

	center.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	center.CreatedAt = now
	center.UpdatedAt = now
	center.IsActive = true

	result, err := r.collection.InsertOne(ctx, center)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a center by its ID.
func (r *mongoCenterRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Center, error) {
	var center domain.Center
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&center)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &center, nil
}

// ListActive retrieves all active centers, newest first.
func (r *mongoCenterRepository) ListActive(ctx context.Context) ([]domain.Center, error) {
	var centers []domain.Center
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &centers); err != nil {
		return nil, err
	}
	return centers, nil
}

// Update modifies the mutable fields of an existing center.
func (r *mongoCenterRepository) Update(ctx context.Context, center *domain.Center) error {
	if center.ID == primitive.NilObjectID {
		return errors.New("center ID is required for update")
	}

	update := bson.M{
		"$set": bson.M{
			"name":        center.Name,
			"description": center.Description,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": center.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SoftDelete marks a center inactive. The document is never removed.
func (r *mongoCenterRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return softDeleteByID(ctx, r.collection, id)
}

// softDeleteByID flips isActive off for one document. Shared by every
// hierarchy repository since soft delete is the only delete they have.
func softDeleteByID(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{
			"isActive":  false,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
