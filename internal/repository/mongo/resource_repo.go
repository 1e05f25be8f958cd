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

const resourceCollectionName = "resources"

// mongoResourceRepository implements repository.ResourceRepository.
type mongoResourceRepository struct {
	collection *mongo.Collection
}

// NewMongoResourceRepository creates a new Resource repository backed by MongoDB.
func NewMongoResourceRepository(db *mongo.Database) repository.ResourceRepository {
	return &mongoResourceRepository{
		collection: db.Collection(resourceCollectionName),
	}
}

// Create inserts a new resource of either variant.
func (r *mongoResourceRepository) Create(ctx context.Context, resource *domain.Resource) (primitive.ObjectID, error) {
	if resource.Title == "" || resource.SessionID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("resource title and session ID are required")
	}
	switch resource.Type {
	case domain.ResourceTypeYoutube:
		if resource.YoutubeURL == "" {
			return primitive.NilObjectID, errors.New("youtube resource requires a youtubeUrl")
		}
	case domain.ResourceTypeFile:
		if resource.File == nil || resource.File.ObjectKey == "" {
			return primitive.NilObjectID, errors.New("file resource requires file details")
		}
	default:
		return primitive.NilObjectID, errors.New("unknown resource type")
	}

	resource.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	resource.CreatedAt = now
	resource.UpdatedAt = now
	resource.IsActive = true

	result, err := r.collection.InsertOne(ctx, resource)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a resource by its ID.
func (r *mongoResourceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Resource, error) {
	var resource domain.Resource
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&resource)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &resource, nil
}

// ListActiveBySession retrieves the active resources of one session, oldest first.
func (r *mongoResourceRepository) ListActiveBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Resource, error) {
	var resources []domain.Resource
	filter := bson.M{"sessionId": sessionID, "isActive": true}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// ListObjectKeys returns every stored object key, including keys of
// soft-deleted rows. The projection keeps the scan cheap.
func (r *mongoResourceRepository) ListObjectKeys(ctx context.Context) ([]string, error) {
	filter := bson.M{"type": domain.ResourceTypeFile, "file.objectKey": bson.M{"$ne": ""}}
	findOptions := options.Find().SetProjection(bson.M{"file.objectKey": 1})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var keys []string
	for cursor.Next(ctx) {
		var doc struct {
			File struct {
				ObjectKey string `bson:"objectKey"`
			} `bson:"file"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.File.ObjectKey != "" {
			keys = append(keys, doc.File.ObjectKey)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// UpdateMeta mutates title and description only. The backing object and the
// variant fields are immutable after creation.
func (r *mongoResourceRepository) UpdateMeta(ctx context.Context, id primitive.ObjectID, title, description string) (*domain.Resource, error) {
	update := bson.M{
		"$set": bson.M{
			"title":       title,
			"description": description,
			"updatedAt":   time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var resource domain.Resource
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&resource)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &resource, nil
}

// SoftDelete marks a resource inactive. The row keeps its object key so the
// reaper can tell deliberate deletes from orphans.
func (r *mongoResourceRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return softDeleteByID(ctx, r.collection, id)
}

// EnsureResourceIndexes creates the session lookup indexes.
func EnsureResourceIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
