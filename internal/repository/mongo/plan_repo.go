// internal/repository/mongo/plan_repo.go
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

const planCollectionName = "fitness_plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new FitnessPlan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new plan with its full week tree. A single InsertOne
// makes whole-plan generation all-or-nothing.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.FitnessPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.Name == "" {
		return primitive.NilObjectID, errors.New("plan requires userId and name")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single plan (with its week tree) by ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.FitnessPlan, error) {
	var plan domain.FitnessPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByUser lists a user's plans, newest first, honoring the filter.
// A nil userID lists across all users (template browsing).
func (r *mongoPlanRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, filter repository.PlanFilter) ([]domain.FitnessPlan, error) {
	query := bson.M{}
	if userID != primitive.NilObjectID {
		query["userId"] = userID
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.ExperienceLevel != "" {
		query["experienceLevel"] = filter.ExperienceLevel
	}
	if filter.Equipment != "" {
		query["equipment"] = filter.Equipment
	}
	if filter.MinWeeks > 0 || filter.MaxWeeks > 0 {
		rangeQ := bson.M{}
		if filter.MinWeeks > 0 {
			rangeQ["$gte"] = filter.MinWeeks
		}
		if filter.MaxWeeks > 0 {
			rangeQ["$lte"] = filter.MaxWeeks
		}
		query["durationWeeks"] = rangeQ
	}
	if filter.StartedAfter != nil || filter.StartedBefore != nil {
		rangeQ := bson.M{}
		if filter.StartedAfter != nil {
			rangeQ["$gte"] = *filter.StartedAfter
		}
		if filter.StartedBefore != nil {
			rangeQ["$lte"] = *filter.StartedBefore
		}
		query["startDate"] = rangeQ
	}
	if filter.TemplatesOnly {
		query["isTemplate"] = true
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []domain.FitnessPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// GetActiveByUser returns the user's single ACTIVE plan, if any.
func (r *mongoPlanRepository) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.FitnessPlan, error) {
	var plan domain.FitnessPlan
	filter := bson.M{"userId": userID, "status": domain.PlanActive}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Update replaces the full plan document (the aggregate is small enough
// that replacing beats field-level patches for tree updates).
func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.FitnessPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("plan ID is required for update")
	}
	plan.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": plan.ID}, plan)
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

// UpdateStatus changes only the plan status.
func (r *mongoPlanRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.PlanStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
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

// Delete removes the plan document; the embedded week tree goes with it.
func (r *mongoPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Activate demotes any other ACTIVE plan of the user to PAUSED, then
// flips the target to ACTIVE. The partial unique index on
// {userId, status:active} (see EnsurePlanIndexes) backstops the invariant
// if two activations race between the two statements: the second insert
// of an active status hits the index and surfaces ErrDuplicate.
func (r *mongoPlanRepository) Activate(ctx context.Context, userID, planID primitive.ObjectID) error {
	now := time.Now().UTC()

	_, err := r.collection.UpdateMany(ctx,
		bson.M{"userId": userID, "status": domain.PlanActive, "_id": bson.M{"$ne": planID}},
		bson.M{"$set": bson.M{"status": domain.PlanPaused, "updatedAt": now}},
	)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": planID, "userId": userID},
		bson.M{"$set": bson.M{"status": domain.PlanActive, "updatedAt": now}},
	)
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

// ReplaceWeek swaps one week's subtree inside the plan document.
func (r *mongoPlanRepository) ReplaceWeek(ctx context.Context, planID primitive.ObjectID, week domain.PlanWeek) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": planID, "weeks.number": week.Number},
		bson.M{"$set": bson.M{"weeks.$": week, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListActiveUserIDs returns distinct users with an ACTIVE plan whose end
// date has not passed.
func (r *mongoPlanRepository) ListActiveUserIDs(ctx context.Context, now time.Time) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"status":  domain.PlanActive,
		"endDate": bson.M{"$gte": now},
	}
	raw, err := r.collection.Distinct(ctx, "userId", filter)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// CountByStatus aggregates the user's plan counts per status.
func (r *mongoPlanRepository) CountByStatus(ctx context.Context, userID primitive.ObjectID) (map[domain.PlanStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[domain.PlanStatus]int64)
	for cursor.Next(ctx) {
		var row struct {
			Status domain.PlanStatus `bson:"_id"`
			Count  int64             `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Status] = row.Count
	}
	return counts, cursor.Err()
}

// EnsurePlanIndexes creates indexes for the plans collection, including
// the partial unique index that enforces one ACTIVE plan per user.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_active_plan_per_user").
				SetPartialFilterExpression(bson.M{"status": string(domain.PlanActive)}),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "endDate", Value: 1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
