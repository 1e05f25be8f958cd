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

const subjectCollectionName = "subjects"

// mongoSubjectRepository implements repository.SubjectRepository.
type mongoSubjectRepository struct {
	collection *mongo.Collection
}

// NewMongoSubjectRepository creates a new Subject repository backed by MongoDB.
func NewMongoSubjectRepository(db *mongo.Database) repository.SubjectRepository {
	return &mongoSubjectRepository{
		collection: db.Collection(subjectCollectionName),
	}
}

// Create inserts a new subject.
func (r *mongoSubjectRepository) Create(ctx context.Context, subject *domain.Subject) (primitive.ObjectID, error) {
	if subject.Title == "" || subject.CourseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("subject title and course ID are required")
	}

	subject.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	subject.IsActive = true

	result, err := r.collection.InsertOne(ctx, subject)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a subject by its ID.
func (r *mongoSubjectRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Subject, error) {
	var subject domain.Subject
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&subject)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &subject, nil
}

// ListActiveByCourse retrieves the active subjects of one course in creation order.
func (r *mongoSubjectRepository) ListActiveByCourse(ctx context.Context, courseID primitive.ObjectID) ([]domain.Subject, error) {
	var subjects []domain.Subject
	filter := bson.M{"courseId": courseID, "isActive": true}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

// Update modifies the mutable fields of a subject.
func (r *mongoSubjectRepository) Update(ctx context.Context, subject *domain.Subject) error {
	if subject.ID == primitive.NilObjectID {
		return errors.New("subject ID is required for update")
	}

	update := bson.M{
		"$set": bson.M{
			"title":     subject.Title,
			"content":   subject.Content,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": subject.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SoftDelete marks a subject inactive.
func (r *mongoSubjectRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return softDeleteByID(ctx, r.collection, id)
}

// IncTotalSessions adjusts the cached session counter.
func (r *mongoSubjectRepository) IncTotalSessions(ctx context.Context, id primitive.ObjectID, delta int) error {
	update := bson.M{
		"$inc": bson.M{"totalSessions": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
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

// EnsureSubjectIndexes creates the course lookup index.
func EnsureSubjectIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "courseId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
