// internal/service/exercise_library.go
package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrValidationFailed = errors.New("exercise validation failed")
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
)

// SuitabilityFilter is the profile-derived query the generator resolves
// candidates with.
type SuitabilityFilter struct {
	AvailableEquipment []string
	HealthConditions   []string
	DislikedExercises  []string
	MaxDifficulty      domain.Difficulty
	Goal               domain.FitnessGoal
}

// ExerciseLibrary answers catalog and suitability queries and records the
// usage/rating side effects of selection.
type ExerciseLibrary interface {
	CreateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	ListExercises(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, exerciseID primitive.ObjectID) error

	// Suitable filters the catalog with equipment, health-condition and
	// dislike constraints, ordered for the caller's goal.
	Suitable(ctx context.Context, filter SuitabilityFilter) ([]domain.Exercise, error)

	// RecordSelection increments usage counters on the selected exercises.
	RecordSelection(ctx context.Context, ids []primitive.ObjectID) error

	// RateExercise folds a 1-5 rating into the running average.
	RateExercise(ctx context.Context, exerciseID primitive.ObjectID, rating float64) error
}

// exerciseLibrary implements the ExerciseLibrary interface.
type exerciseLibrary struct {
	exerciseRepo repository.ExerciseRepository
}

// NewExerciseLibrary creates a new instance of exerciseLibrary.
func NewExerciseLibrary(exerciseRepo repository.ExerciseRepository) ExerciseLibrary {
	return &exerciseLibrary{
		exerciseRepo: exerciseRepo,
	}
}

// CreateExercise adds an admin-approved exercise to the catalog.
func (l *exerciseLibrary) CreateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error) {
	if exercise.Name == "" || len(exercise.PrimaryMuscles) == 0 {
		return nil, ErrValidationFailed
	}
	if exercise.Difficulty == "" {
		exercise.Difficulty = domain.DifficultyBeginner
	}

	exerciseID, err := l.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	return l.exerciseRepo.GetByID(ctx, exerciseID)
}

// GetExerciseByID retrieves a single catalog exercise.
func (l *exerciseLibrary) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := l.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// ListExercises runs a plain catalog query.
func (l *exerciseLibrary) ListExercises(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error) {
	return l.exerciseRepo.List(ctx, filter)
}

// UpdateExercise modifies a catalog entry.
func (l *exerciseLibrary) UpdateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error) {
	if exercise.Name == "" {
		return nil, ErrValidationFailed
	}
	err := l.exerciseRepo.Update(ctx, exercise)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return l.exerciseRepo.GetByID(ctx, exercise.ID)
}

// DeleteExercise removes a catalog entry. Plans keep referencing the
// exercise by name; history is not rewritten.
func (l *exerciseLibrary) DeleteExercise(ctx context.Context, exerciseID primitive.ObjectID) error {
	err := l.exerciseRepo.Delete(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	return nil
}

// Suitable returns catalog exercises a user can safely perform:
//   - required equipment ⊆ available equipment (or none required),
//   - no health-condition conflict (case-insensitive bidirectional
//     substring match against the exercise's conditions-to-avoid),
//   - not on the user's dislike list.
//
// Ordering: for strength/muscle-gain goals compounds come first, ties
// broken by descending rating; otherwise plain descending rating.
func (l *exerciseLibrary) Suitable(ctx context.Context, filter SuitabilityFilter) ([]domain.Exercise, error) {
	all, err := l.exerciseRepo.List(ctx, repository.ExerciseFilter{
		Equipment:     filter.AvailableEquipment,
		MaxDifficulty: filter.MaxDifficulty,
	})
	if err != nil {
		return nil, err
	}

	disliked := make(map[string]bool, len(filter.DislikedExercises))
	for _, name := range filter.DislikedExercises {
		disliked[strings.ToLower(name)] = true
	}

	suitable := make([]domain.Exercise, 0, len(all))
	for _, ex := range all {
		if disliked[strings.ToLower(ex.Name)] {
			continue
		}
		if ConditionsConflict(ex.HealthConditionsToAvoid, filter.HealthConditions) {
			continue
		}
		suitable = append(suitable, ex)
	}

	compoundFirst := filter.Goal == domain.GoalStrength || filter.Goal == domain.GoalMuscleGain
	sort.SliceStable(suitable, func(i, j int) bool {
		a, b := &suitable[i], &suitable[j]
		if compoundFirst && a.IsCompound != b.IsCompound {
			return a.IsCompound
		}
		return a.AverageRating > b.AverageRating
	})

	return suitable, nil
}

// RecordSelection increments usage counters for the selected exercises.
func (l *exerciseLibrary) RecordSelection(ctx context.Context, ids []primitive.ObjectID) error {
	return l.exerciseRepo.IncrementUsage(ctx, ids)
}

// RateExercise applies a user rating to the running average.
func (l *exerciseLibrary) RateExercise(ctx context.Context, exerciseID primitive.ObjectID, rating float64) error {
	if rating < 1 || rating > 5 {
		return ErrRatingOutOfRange
	}
	err := l.exerciseRepo.ApplyRating(ctx, exerciseID, rating)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrExerciseNotFound
	}
	return err
}

// ConditionsConflict reports whether any entry of a intersects any entry
// of b under case-insensitive bidirectional substring matching, so
// "knee injury" conflicts with "injury" and vice versa.
func ConditionsConflict(a, b []string) bool {
	for _, x := range a {
		lx := strings.ToLower(strings.TrimSpace(x))
		if lx == "" {
			continue
		}
		for _, y := range b {
			ly := strings.ToLower(strings.TrimSpace(y))
			if ly == "" {
				continue
			}
			if strings.Contains(lx, ly) || strings.Contains(ly, lx) {
				return true
			}
		}
	}
	return false
}
