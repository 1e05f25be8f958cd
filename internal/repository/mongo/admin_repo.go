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

const adminCollectionName = "admin_users"

// mongoAdminUserRepository implements repository.AdminUserRepository.
type mongoAdminUserRepository struct {
	collection *mongo.Collection
}

// NewMongoAdminUserRepository creates a new AdminUser repository backed by MongoDB.
func NewMongoAdminUserRepository(db *mongo.Database) repository.AdminUserRepository {
	return &mongoAdminUserRepository{
		collection: db.Collection(adminCollectionName),
	}
}

// Create inserts a new admin account.
func (r *mongoAdminUserRepository) Create(ctx context.Context, admin *domain.AdminUser) (primitive.ObjectID, error) {
	if admin.Email == "" || admin.PasswordHash == "" {
		return primitive.NilObjectID, errors.New("admin email and password hash are required")
	}

	admin.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	if admin.Role == "" {
		admin.Role = "admin"
	}

	result, err := r.collection.InsertOne(ctx, admin)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByEmail retrieves an admin account by email.
func (r *mongoAdminUserRepository) GetByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	var admin domain.AdminUser
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &admin, nil
}

// SetLastLogin records a successful login time.
func (r *mongoAdminUserRepository) SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"lastLoginAt": at,
			"updatedAt":   time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureAdminUserIndexes creates the unique email index.
func EnsureAdminUserIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
