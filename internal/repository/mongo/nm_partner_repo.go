package mongo

import (
	"context"
	"errors"
	"time"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	nmStudentCollectionName      = "nm_students"
	nmSubscriptionCollectionName = "nm_subscriptions"
	nmProgressCollectionName     = "nm_progress"
)

// mongoNmStudentRepository implements repository.NmStudentRepository.
type mongoNmStudentRepository struct {
	collection *mongo.Collection
}

// NewMongoNmStudentRepository creates the partner student repository.
func NewMongoNmStudentRepository(db *mongo.Database) repository.NmStudentRepository {
	return &mongoNmStudentRepository{
		collection: db.Collection(nmStudentCollectionName),
	}
}

// Upsert creates or refreshes the local student mirror keyed by nmUserId.
func (r *mongoNmStudentRepository) Upsert(ctx context.Context, student *domain.NmStudent) error {
	if student.NmUserID == "" {
		return errors.New("nmUserId is required")
	}

	now := time.Now().UTC()
	filter := bson.M{"nmUserId": student.NmUserID}
	update := bson.M{
		"$set": bson.M{
			"email":     student.Email,
			"name":      student.Name,
			"phone":     student.Phone,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"nmUserId":  student.NmUserID,
			"createdAt": now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// mongoNmSubscriptionRepository implements repository.NmSubscriptionRepository.
type mongoNmSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoNmSubscriptionRepository creates the subscription repository.
func NewMongoNmSubscriptionRepository(db *mongo.Database) repository.NmSubscriptionRepository {
	return &mongoNmSubscriptionRepository{
		collection: db.Collection(nmSubscriptionCollectionName),
	}
}

// Upsert records a subscription once per (nmUserId, courseCode) pair. Repeat
// calls only touch updatedAt, so subscribe and access stay idempotent.
func (r *mongoNmSubscriptionRepository) Upsert(ctx context.Context, nmUserID, courseCode string) error {
	if nmUserID == "" || courseCode == "" {
		return errors.New("nmUserId and courseCode are required")
	}

	now := time.Now().UTC()
	filter := bson.M{"nmUserId": nmUserID, "courseCode": courseCode}
	update := bson.M{
		"$set": bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{
			"nmUserId":     nmUserID,
			"courseCode":   courseCode,
			"subscribedAt": now,
			"createdAt":    now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// GetByPair fetches the subscription for one (student, course) pair.
func (r *mongoNmSubscriptionRepository) GetByPair(ctx context.Context, nmUserID, courseCode string) (*domain.NmSubscription, error) {
	var sub domain.NmSubscription
	filter := bson.M{"nmUserId": nmUserID, "courseCode": courseCode}
	err := r.collection.FindOne(ctx, filter).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// mongoNmProgressRepository implements repository.NmProgressRepository.
type mongoNmProgressRepository struct {
	collection *mongo.Collection
}

// NewMongoNmProgressRepository creates the progress repository.
func NewMongoNmProgressRepository(db *mongo.Database) repository.NmProgressRepository {
	return &mongoNmProgressRepository{
		collection: db.Collection(nmProgressCollectionName),
	}
}

// Upsert replaces the progress blob for a pair. Last write wins; there is no
// merge of concurrent partial updates.
func (r *mongoNmProgressRepository) Upsert(ctx context.Context, nmUserID, courseCode string, progress map[string]interface{}) error {
	if nmUserID == "" || courseCode == "" {
		return errors.New("nmUserId and courseCode are required")
	}

	now := time.Now().UTC()
	filter := bson.M{"nmUserId": nmUserID, "courseCode": courseCode}
	update := bson.M{
		"$set": bson.M{
			"progress":      progress,
			"lastUpdatedAt": now,
			"updatedAt":     now,
		},
		"$setOnInsert": bson.M{
			"nmUserId":   nmUserID,
			"courseCode": courseCode,
			"createdAt":  now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// GetByPair fetches the progress record for one pair.
func (r *mongoNmProgressRepository) GetByPair(ctx context.Context, nmUserID, courseCode string) (*domain.NmProgress, error) {
	var progress domain.NmProgress
	filter := bson.M{"nmUserId": nmUserID, "courseCode": courseCode}
	err := r.collection.FindOne(ctx, filter).Decode(&progress)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &progress, nil
}

// EnsureNmPartnerIndexes creates the unique keys for students, subscriptions
// and progress.
func EnsureNmPartnerIndexes(ctx context.Context, db *mongo.Database) {
	pair := bson.D{{Key: "nmUserId", Value: 1}, {Key: "courseCode", Value: 1}}

	_, _ = db.Collection(nmStudentCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "nmUserId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, _ = db.Collection(nmSubscriptionCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    pair,
		Options: options.Index().SetUnique(true),
	})
	_, _ = db.Collection(nmProgressCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    pair,
		Options: options.Index().SetUnique(true),
	})
}
