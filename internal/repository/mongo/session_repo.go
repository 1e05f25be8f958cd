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

const sessionCollectionName = "sessions"

// mongoSessionRepository implements repository.SessionRepository.
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new Session repository backed by MongoDB.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// Create inserts a new session. The compound unique index rejects a duplicate
// sessionNumber within the same subject.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error) {
	if session.Title == "" || session.SubjectID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session title and subject ID are required")
	}
	if session.SessionNumber <= 0 {
		return primitive.NilObjectID, errors.New("session number must be positive")
	}

	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.IsActive = true

	result, err := r.collection.InsertOne(ctx, session)
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

// GetByID retrieves a session by its ID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error) {
	var session domain.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListActiveBySubject retrieves the active sessions of a subject ordered by
// session number.
func (r *mongoSessionRepository) ListActiveBySubject(ctx context.Context, subjectID primitive.ObjectID) ([]domain.Session, error) {
	var sessions []domain.Session
	filter := bson.M{"subjectId": subjectID, "isActive": true}
	findOptions := options.Find().SetSort(bson.D{{Key: "sessionNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Update modifies the mutable fields of a session.
func (r *mongoSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	if session.ID == primitive.NilObjectID {
		return errors.New("session ID is required for update")
	}

	set := bson.M{
		"title":       session.Title,
		"description": session.Description,
		"updatedAt":   time.Now().UTC(),
	}
	if session.SessionNumber > 0 {
		set["sessionNumber"] = session.SessionNumber
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SoftDelete marks a session inactive.
func (r *mongoSessionRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return softDeleteByID(ctx, r.collection, id)
}

// EnsureSessionIndexes creates the compound unique (subjectId, sessionNumber)
// index.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subjectId", Value: 1}, {Key: "sessionNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
