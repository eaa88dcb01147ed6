package mongo

import (
	"context"
	"errors"
	"time"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const activityCollectionName = "activity_logs"

// mongoActivityRepository implements repository.ActivityRepository.
// The collection is append-only; nothing here updates or deletes.
type mongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository creates a new ActivityLog repository.
func NewMongoActivityRepository(db *mongo.Database) repository.ActivityRepository {
	return &mongoActivityRepository{
		collection: db.Collection(activityCollectionName),
	}
}

// Append inserts a new activity entry.
func (r *mongoActivityRepository) Append(ctx context.Context, entry *domain.ActivityLog) (primitive.ObjectID, error) {
	if entry.UserID == primitive.NilObjectID || entry.WorkoutID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("activity entry requires userId and workoutId")
	}
	entry.ID = primitive.NewObjectID()
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByUserAndRange retrieves a user's log entries in [from, to), oldest first.
func (r *mongoActivityRepository) GetByUserAndRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.ActivityLog, error) {
	filter := bson.M{
		"userId":   userID,
		"loggedAt": bson.M{"$gte": from, "$lt": to},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "loggedAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.ActivityLog
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureActivityIndexes creates necessary indexes for the activity collection.
func EnsureActivityIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "loggedAt", Value: -1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
