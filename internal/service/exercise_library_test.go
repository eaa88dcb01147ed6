package service

import (
	"context"
	"testing"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateExerciseValidation(t *testing.T) {
	t.Parallel()
	library := NewExerciseLibrary(newFakeExerciseRepo())
	ctx := context.Background()

	_, err := library.CreateExercise(ctx, &domain.Exercise{PrimaryMuscles: []string{domain.MuscleChest}})
	assert.ErrorIs(t, err, ErrValidationFailed, "name is required")

	_, err = library.CreateExercise(ctx, &domain.Exercise{Name: "Push-Up"})
	assert.ErrorIs(t, err, ErrValidationFailed, "at least one primary muscle is required")

	created, err := library.CreateExercise(ctx, &domain.Exercise{
		Name:           "Push-Up",
		PrimaryMuscles: []string{domain.MuscleChest},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DifficultyBeginner, created.Difficulty, "difficulty defaults to beginner")
	assert.False(t, created.ID.IsZero())
}

func TestSuitableFiltering(t *testing.T) {
	t.Parallel()
	repo := newFakeExerciseRepo()
	ctx := context.Background()

	mustCreate := func(ex domain.Exercise) {
		_, err := repo.Create(ctx, &ex)
		require.NoError(t, err)
	}
	mustCreate(domain.Exercise{
		Name: "Push-Up", Difficulty: domain.DifficultyBeginner,
		PrimaryMuscles: []string{domain.MuscleChest}, AverageRating: 4.0,
	})
	mustCreate(domain.Exercise{
		Name: "Burpee", Difficulty: domain.DifficultyBeginner,
		PrimaryMuscles: []string{domain.MuscleFullBody}, AverageRating: 4.8,
	})
	mustCreate(domain.Exercise{
		Name: "Jump Squat", Difficulty: domain.DifficultyBeginner,
		PrimaryMuscles:          []string{domain.MuscleLegs},
		HealthConditionsToAvoid: []string{"knee injury"}, AverageRating: 4.5,
	})
	mustCreate(domain.Exercise{
		Name: "Barbell Snatch", Difficulty: domain.DifficultyExpert,
		PrimaryMuscles: []string{domain.MuscleFullBody},
		Equipment:      []string{domain.EquipmentBarbell}, AverageRating: 5.0,
	})

	library := NewExerciseLibrary(repo)
	got, err := library.Suitable(ctx, SuitabilityFilter{
		AvailableEquipment: []string{domain.EquipmentBodyweight},
		HealthConditions:   []string{"injury"},
		DislikedExercises:  []string{"burpee"},
		MaxDifficulty:      domain.DifficultyIntermediate,
	})
	require.NoError(t, err)

	// Snatch needs a barbell and is above the cap, Jump Squat conflicts
	// with the injury, Burpee is disliked.
	require.Len(t, got, 1)
	assert.Equal(t, "Push-Up", got[0].Name)
}

func TestSuitableOrdering(t *testing.T) {
	t.Parallel()
	repo := newFakeExerciseRepo()
	ctx := context.Background()

	for _, ex := range []domain.Exercise{
		{Name: "Lateral Raise", PrimaryMuscles: []string{domain.MuscleShoulders}, Difficulty: domain.DifficultyBeginner, AverageRating: 4.9},
		{Name: "Push-Up", PrimaryMuscles: []string{domain.MuscleChest}, Difficulty: domain.DifficultyBeginner, IsCompound: true, AverageRating: 4.2},
		{Name: "Inverted Row", PrimaryMuscles: []string{domain.MuscleBack}, Difficulty: domain.DifficultyBeginner, IsCompound: true, AverageRating: 4.6},
	} {
		copied := ex
		_, err := repo.Create(ctx, &copied)
		require.NoError(t, err)
	}
	library := NewExerciseLibrary(repo)

	t.Run("strength goal puts compounds first", func(t *testing.T) {
		t.Parallel()
		got, err := library.Suitable(ctx, SuitabilityFilter{
			MaxDifficulty: domain.DifficultyExpert,
			Goal:          domain.GoalStrength,
		})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Inverted Row", got[0].Name)
		assert.Equal(t, "Push-Up", got[1].Name)
		assert.Equal(t, "Lateral Raise", got[2].Name)
	})

	t.Run("other goals order by rating alone", func(t *testing.T) {
		t.Parallel()
		got, err := library.Suitable(ctx, SuitabilityFilter{
			MaxDifficulty: domain.DifficultyExpert,
			Goal:          domain.GoalEndurance,
		})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Lateral Raise", got[0].Name)
	})
}

func TestRateExercise(t *testing.T) {
	t.Parallel()
	repo := newFakeExerciseRepo()
	library := NewExerciseLibrary(repo)
	ctx := context.Background()

	created, err := library.CreateExercise(ctx, &domain.Exercise{
		Name: "Plank", PrimaryMuscles: []string{domain.MuscleCore},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, library.RateExercise(ctx, created.ID, 0.5), ErrRatingOutOfRange)
	assert.ErrorIs(t, library.RateExercise(ctx, created.ID, 5.5), ErrRatingOutOfRange)
	assert.ErrorIs(t, library.RateExercise(ctx, primitive.NewObjectID(), 4), ErrExerciseNotFound)

	require.NoError(t, library.RateExercise(ctx, created.ID, 4))
	require.NoError(t, library.RateExercise(ctx, created.ID, 5))

	got, err := library.GetExerciseByID(ctx, created.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got.AverageRating, 0.001)
	assert.Equal(t, int64(2), got.RatingCount)
}

func TestListExercisesFilter(t *testing.T) {
	t.Parallel()
	repo := newFakeExerciseRepo()
	seedCatalog(repo)
	library := NewExerciseLibrary(repo)

	got, err := library.ListExercises(context.Background(), repository.ExerciseFilter{
		MuscleGroup: domain.MuscleBack,
	})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, ex := range got {
		assert.True(t, ex.TargetsMuscle(domain.MuscleBack))
	}
}

func TestDeleteExercise(t *testing.T) {
	t.Parallel()
	library := NewExerciseLibrary(newFakeExerciseRepo())
	assert.ErrorIs(t, library.DeleteExercise(context.Background(), primitive.NewObjectID()), ErrExerciseNotFound)
}
