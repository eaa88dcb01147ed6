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

const adaptationEventCollectionName = "adaptation_events"

// mongoAdaptationEventRepository implements repository.AdaptationEventRepository.
type mongoAdaptationEventRepository struct {
	collection *mongo.Collection
}

// NewMongoAdaptationEventRepository creates the audit-event repository.
func NewMongoAdaptationEventRepository(db *mongo.Database) repository.AdaptationEventRepository {
	return &mongoAdaptationEventRepository{
		collection: db.Collection(adaptationEventCollectionName),
	}
}

// Create inserts an adaptation audit event.
func (r *mongoAdaptationEventRepository) Create(ctx context.Context, event *domain.AdaptationEvent) (primitive.ObjectID, error) {
	if event.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("adaptation event requires userId")
	}
	event.ID = primitive.NewObjectID()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByUser returns a user's adaptation history, newest first.
func (r *mongoAdaptationEventRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.AdaptationEvent, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.AdaptationEvent
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// EnsureAdaptationEventIndexes creates indexes for the audit collection.
func EnsureAdaptationEventIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "eventId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
