package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const courseCollectionName = "courses"

// mongoCourseRepository implements repository.CourseRepository.
type mongoCourseRepository struct {
	collection *mongo.Collection
}

// NewMongoCourseRepository creates a new Course repository backed by MongoDB.
func NewMongoCourseRepository(db *mongo.Database) repository.CourseRepository {
	return &mongoCourseRepository{
		collection: db.Collection(courseCollectionName),
	}
}

// Create inserts a new course. The lowercase shadow of courseCode is always
// rewritten here so the two can never drift.
func (r *mongoCourseRepository) Create(ctx context.Context, course *domain.Course) (primitive.ObjectID, error) {
	if course.Title == "" || course.CourseCode == "" || course.CenterID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("course title, courseCode and center ID are required")
	}

	course.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	course.IsActive = true
	course.CourseCodeLower = strings.ToLower(course.CourseCode)
	if course.CourseType == "" {
		course.CourseType = domain.CourseTypeOnline
	}

	result, err := r.collection.InsertOne(ctx, course)
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

// GetByID retrieves a course by its ID.
func (r *mongoCourseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Course, error) {
	var course domain.Course
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&course)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

// GetActiveByCode retrieves an active course by its code, case-insensitively
// via the lowercase shadow field.
func (r *mongoCourseRepository) GetActiveByCode(ctx context.Context, courseCode string) (*domain.Course, error) {
	var course domain.Course
	filter := bson.M{"courseCodeLower": strings.ToLower(courseCode), "isActive": true}
	err := r.collection.FindOne(ctx, filter).Decode(&course)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

// ListActive retrieves all active courses, newest first.
func (r *mongoCourseRepository) ListActive(ctx context.Context) ([]domain.Course, error) {
	return r.findCourses(ctx, bson.M{"isActive": true})
}

// ListActiveByCenter retrieves the active courses of one center.
func (r *mongoCourseRepository) ListActiveByCenter(ctx context.Context, centerID primitive.ObjectID) ([]domain.Course, error) {
	return r.findCourses(ctx, bson.M{"centerId": centerID, "isActive": true})
}

func (r *mongoCourseRepository) findCourses(ctx context.Context, filter bson.M) ([]domain.Course, error) {
	var courses []domain.Course
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Update modifies the mutable fields of a course. CourseCode changes rewrite
// the lowercase shadow in the same $set.
func (r *mongoCourseRepository) Update(ctx context.Context, course *domain.Course) error {
	if course.ID == primitive.NilObjectID {
		return errors.New("course ID is required for update")
	}

	set := bson.M{
		"title":       course.Title,
		"description": course.Description,
		"language":    course.Language,
		"imageUrl":    course.ImageURL,
		"courseType":  course.CourseType,
		"objectives":  course.Objectives,
		"nmApproved":  course.NmApproved,
		"updatedAt":   time.Now().UTC(),
	}
	if course.CourseCode != "" {
		set["courseCode"] = course.CourseCode
		set["courseCodeLower"] = strings.ToLower(course.CourseCode)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": course.ID}, bson.M{"$set": set})
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

// SoftDelete marks a course inactive.
func (r *mongoCourseRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return softDeleteByID(ctx, r.collection, id)
}

// SetNmPublished flips the partner publish flag for a course by code.
func (r *mongoCourseRepository) SetNmPublished(ctx context.Context, courseCode string, published bool) error {
	filter := bson.M{"courseCodeLower": strings.ToLower(courseCode)}
	update := bson.M{
		"$set": bson.M{
			"nmPublished": published,
			"updatedAt":   time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IncTotalSubjects adjusts the cached subject counter.
func (r *mongoCourseRepository) IncTotalSubjects(ctx context.Context, id primitive.ObjectID, delta int) error {
	update := bson.M{
		"$inc": bson.M{"totalSubjects": delta},
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

// EnsureCourseIndexes creates the unique courseCode indexes.
func EnsureCourseIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "courseCodeLower", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "centerId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
