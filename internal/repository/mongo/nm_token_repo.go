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

const (
	nmClientTokenCollectionName = "nm_client_tokens"
	nmLaunchTokenCollectionName = "nm_launch_tokens"
)

// mongoNmClientTokenRepository implements repository.NmClientTokenRepository.
type mongoNmClientTokenRepository struct {
	collection *mongo.Collection
}

// NewMongoNmClientTokenRepository creates the client-credential token cache
// repository.
func NewMongoNmClientTokenRepository(db *mongo.Database) repository.NmClientTokenRepository {
	return &mongoNmClientTokenRepository{
		collection: db.Collection(nmClientTokenCollectionName),
	}
}

// Latest returns the most recently inserted token record.
func (r *mongoNmClientTokenRepository) Latest(ctx context.Context) (*domain.NmClientToken, error) {
	var token domain.NmClientToken
	findOptions := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	err := r.collection.FindOne(ctx, bson.M{}, findOptions).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

// Insert stores a freshly granted token pair. Older records are left in place;
// Latest always wins.
func (r *mongoNmClientTokenRepository) Insert(ctx context.Context, token *domain.NmClientToken) error {
	token.ID = primitive.NewObjectID()
	token.CreatedAt = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, token)
	return err
}

// mongoNmLaunchTokenRepository implements repository.NmLaunchTokenRepository.
type mongoNmLaunchTokenRepository struct {
	collection *mongo.Collection
}

// NewMongoNmLaunchTokenRepository creates the launch token repository.
func NewMongoNmLaunchTokenRepository(db *mongo.Database) repository.NmLaunchTokenRepository {
	return &mongoNmLaunchTokenRepository{
		collection: db.Collection(nmLaunchTokenCollectionName),
	}
}

// Create stores a newly minted launch token.
func (r *mongoNmLaunchTokenRepository) Create(ctx context.Context, token *domain.NmLaunchToken) error {
	if token.Token == "" {
		return errors.New("launch token value is required")
	}
	token.ID = primitive.NewObjectID()
	token.CreatedAt = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, token)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByToken looks a launch token up by its opaque value.
func (r *mongoNmLaunchTokenRepository) GetByToken(ctx context.Context, token string) (*domain.NmLaunchToken, error) {
	var doc domain.NmLaunchToken
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// MarkUsed sets usedAt, but only when it is still unset. The filter makes
// redemption race-safe: the second caller matches zero documents.
func (r *mongoNmLaunchTokenRepository) MarkUsed(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	filter := bson.M{"_id": id, "usedAt": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{"usedAt": at}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureNmLaunchTokenIndexes creates the unique token index and the TTL index
// that expires stale tokens server-side.
func EnsureNmLaunchTokenIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
