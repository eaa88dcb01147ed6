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

const exerciseCollectionName = "exercises"

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository backed by MongoDB.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

// Create inserts a new catalog exercise.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || len(exercise.PrimaryMuscles) == 0 {
		return primitive.NilObjectID, errors.New("exercise name and primary muscles are required")
	}

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, exercise)
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

// GetByID retrieves an exercise by its ID.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// List retrieves catalog exercises matching the filter. An empty filter
// returns the whole catalog (rating-descending).
func (r *mongoExerciseRepository) List(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error) {
	query := bson.M{}

	if filter.MuscleGroup != "" {
		query["$or"] = []bson.M{
			{"primaryMuscles": filter.MuscleGroup},
			{"secondaryMuscles": filter.MuscleGroup},
		}
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Equipment != nil {
		// Required equipment must be a subset of what's available.
		// An exercise requiring nothing always matches.
		query["equipment"] = bson.M{"$not": bson.M{"$elemMatch": bson.M{"$nin": filter.Equipment}}}
	}
	if filter.MaxDifficulty != "" {
		allowed := []domain.Difficulty{}
		for _, d := range []domain.Difficulty{
			domain.DifficultyBeginner,
			domain.DifficultyIntermediate,
			domain.DifficultyAdvanced,
			domain.DifficultyExpert,
		} {
			if d.Rank() <= filter.MaxDifficulty.Rank() {
				allowed = append(allowed, d)
			}
		}
		query["difficulty"] = bson.M{"$in": allowed}
	}
	if filter.Search != "" {
		query["$text"] = bson.M{"$search": filter.Search}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "averageRating", Value: -1}})
	if filter.Limit > 0 {
		findOptions.SetLimit(filter.Limit)
	}

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []domain.Exercise
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// Update modifies an existing exercise. Usage/rating counters are owned
// by IncrementUsage/ApplyRating and are not touched here.
func (r *mongoExerciseRepository) Update(ctx context.Context, exercise *domain.Exercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("exercise ID is required for update")
	}
	if exercise.Name == "" {
		return errors.New("exercise name cannot be empty")
	}

	update := bson.M{
		"$set": bson.M{
			"name":                    exercise.Name,
			"description":             exercise.Description,
			"category":                exercise.Category,
			"difficulty":              exercise.Difficulty,
			"primaryMuscles":          exercise.PrimaryMuscles,
			"secondaryMuscles":        exercise.SecondaryMuscles,
			"equipment":               exercise.Equipment,
			"isCompound":              exercise.IsCompound,
			"contraindications":       exercise.Contraindications,
			"healthConditionsToAvoid": exercise.HealthConditionsToAvoid,
			"injuryWarnings":          exercise.InjuryWarnings,
			"defaultSets":             exercise.DefaultSets,
			"defaultReps":             exercise.DefaultReps,
			"defaultDurationSec":      exercise.DefaultDurationSec,
			"defaultRestSec":          exercise.DefaultRestSec,
			"progressions":            exercise.Progressions,
			"regressions":             exercise.Regressions,
			"alternatives":            exercise.Alternatives,
			"mediaObjectKey":          exercise.MediaObjectKey,
			"updatedAt":               time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": exercise.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a catalog exercise.
func (r *mongoExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IncrementUsage bumps the usage counter on every selected exercise.
func (r *mongoExerciseRepository) IncrementUsage(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$inc": bson.M{"usageCount": 1}},
	)
	return err
}

// ApplyRating folds a new rating into the running average with a single
// pipeline update, so concurrent ratings don't lose each other.
func (r *mongoExerciseRepository) ApplyRating(ctx context.Context, id primitive.ObjectID, rating float64) error {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"averageRating": bson.M{"$divide": []interface{}{
				bson.M{"$add": []interface{}{
					bson.M{"$multiply": []interface{}{"$averageRating", "$ratingCount"}},
					rating,
				}},
				bson.M{"$add": []interface{}{"$ratingCount", 1}},
			}},
			"ratingCount": bson.M{"$add": []interface{}{"$ratingCount", 1}},
			"updatedAt":   time.Now().UTC(),
		}}},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, pipeline)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "primaryMuscles", Value: 1}, {Key: "difficulty", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("exercise_text_search"),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
