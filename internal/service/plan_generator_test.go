package service

import (
	"context"
	"testing"
	"time"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newGeneratorFixture(t *testing.T) (PlanGenerator, *fakeUserRepo, *fakePlanRepo, *fakeExerciseRepo, primitive.ObjectID) {
	t.Helper()

	userRepo := newFakeUserRepo()
	planRepo := newFakePlanRepo()
	exerciseRepo := newFakeExerciseRepo()
	seedCatalog(exerciseRepo)

	user := &domain.User{
		Email:   "lifter@example.com",
		Profile: *beginnerProfile(),
	}
	userID, err := userRepo.Create(context.Background(), user)
	require.NoError(t, err)

	library := NewExerciseLibrary(exerciseRepo)
	generator := NewPlanGenerator(library, NewSafetyValidator(), planRepo, userRepo)
	return generator, userRepo, planRepo, exerciseRepo, userID
}

func baseParams() GenerateParams {
	return GenerateParams{
		Name:               "Bodyweight Foundations",
		Type:               domain.PlanGeneralFitness,
		DurationWeeks:      8,
		WorkoutsPerWeek:    3,
		WorkoutDurationMin: 45,
		Equipment:          []string{domain.EquipmentBodyweight},
		StartDate:          time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		DeloadFrequency:    4,
	}
}

func TestGenerateFitnessPlan(t *testing.T) {
	t.Parallel()
	generator, _, planRepo, _, userID := newGeneratorFixture(t)

	plan, err := generator.GenerateFitnessPlan(context.Background(), userID, baseParams())
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, domain.PlanDraft, plan.Status)
	assert.Equal(t, userID, plan.UserID)
	assert.Equal(t, domain.DifficultyBeginner, plan.ExperienceLevel)
	require.Len(t, plan.Weeks, 8)
	assert.Equal(t, 24, plan.TotalWorkouts())

	for _, week := range plan.Weeks {
		require.Len(t, week.Workouts, 3, "week %d", week.Number)
		for _, w := range week.Workouts {
			assert.LessOrEqual(t, w.TotalSets(), 12,
				"week %d workout %q exceeds the beginner set ceiling", week.Number, w.Name)
			assert.NotEmpty(t, w.Exercises)
			assert.False(t, w.ID.IsZero(), "workout needs a stable id for activity correlation")
			for _, ex := range w.Exercises {
				assert.GreaterOrEqual(t, ex.Intensity, 1.0)
				assert.LessOrEqual(t, ex.Intensity, 10.0)
				assert.Positive(t, ex.TargetSets)
			}
		}
	}

	// Deload cadence of 4 puts weeks 4 and 8 at reduced load.
	for _, week := range plan.Weeks {
		if week.Number == 4 || week.Number == 8 {
			assert.True(t, week.IsDeload(), "week %d", week.Number)
			assert.Equal(t, 0.7, week.VolumeModifier)
			assert.Equal(t, 0.8, week.IntensityModifier)
		} else {
			assert.False(t, week.IsDeload(), "week %d", week.Number)
		}
	}

	// Deload volume stays under the matching normal week.
	week3Sets, week4Sets := 0, 0
	for _, w := range plan.Weeks[2].Workouts {
		week3Sets += w.TotalSets()
	}
	for _, w := range plan.Weeks[3].Workouts {
		week4Sets += w.TotalSets()
	}
	assert.Less(t, week4Sets, week3Sets)

	// The plan was persisted.
	stored, err := planRepo.GetByID(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Name, stored.Name)
}

func TestGenerateFitnessPlanParameterBounds(t *testing.T) {
	t.Parallel()
	generator, _, _, _, userID := newGeneratorFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*GenerateParams)
	}{
		{"zero weeks", func(p *GenerateParams) { p.DurationWeeks = 0 }},
		{"too many weeks", func(p *GenerateParams) { p.DurationWeeks = 60 }},
		{"zero frequency", func(p *GenerateParams) { p.WorkoutsPerWeek = 0 }},
		{"eight per week", func(p *GenerateParams) { p.WorkoutsPerWeek = 8 }},
		{"ten minute sessions", func(p *GenerateParams) { p.WorkoutDurationMin = 10 }},
		{"no equipment listed", func(p *GenerateParams) { p.Equipment = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := baseParams()
			tc.mutate(&params)
			_, err := generator.GenerateFitnessPlan(ctx, userID, params)
			assert.ErrorIs(t, err, ErrInvalidPlanParameters)
		})
	}
}

func TestGenerateFitnessPlanUnknownUser(t *testing.T) {
	t.Parallel()
	generator, _, _, _, _ := newGeneratorFixture(t)

	_, err := generator.GenerateFitnessPlan(context.Background(), primitive.NewObjectID(), baseParams())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGenerateFitnessPlanInsufficientCatalog(t *testing.T) {
	t.Parallel()

	userRepo := newFakeUserRepo()
	planRepo := newFakePlanRepo()
	exerciseRepo := newFakeExerciseRepo()
	for _, name := range []string{"Push-Up", "Bodyweight Squat", "Plank"} {
		_, err := exerciseRepo.Create(context.Background(), &domain.Exercise{
			Name:           name,
			Category:       domain.CategoryStrength,
			Difficulty:     domain.DifficultyBeginner,
			PrimaryMuscles: []string{domain.MuscleChest},
		})
		require.NoError(t, err)
	}
	userID, err := userRepo.Create(context.Background(), &domain.User{
		Email: "sparse@example.com", Profile: *beginnerProfile(),
	})
	require.NoError(t, err)

	generator := NewPlanGenerator(NewExerciseLibrary(exerciseRepo), NewSafetyValidator(), planRepo, userRepo)
	_, err = generator.GenerateFitnessPlan(context.Background(), userID, baseParams())
	assert.ErrorIs(t, err, ErrInsufficientCatalog)
}

func TestGenerateFitnessPlanRollsBackOnUsageFailure(t *testing.T) {
	t.Parallel()
	generator, _, planRepo, exerciseRepo, userID := newGeneratorFixture(t)
	exerciseRepo.failIncrement = true

	_, err := generator.GenerateFitnessPlan(context.Background(), userID, baseParams())
	require.Error(t, err)

	// The half-created plan must not survive.
	plans, err := planRepo.GetByUser(context.Background(), userID, repository.PlanFilter{})
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestRegenerateWeek(t *testing.T) {
	t.Parallel()
	generator, _, planRepo, _, userID := newGeneratorFixture(t)
	ctx := context.Background()

	plan, err := generator.GenerateFitnessPlan(ctx, userID, baseParams())
	require.NoError(t, err)

	t.Run("force deload reduces the week", func(t *testing.T) {
		week, err := generator.RegenerateWeek(ctx, plan.ID, 2, &AdaptationHints{ForceDeload: true})
		require.NoError(t, err)
		assert.True(t, week.IsDeload())
		assert.Equal(t, 2, week.Number)

		stored, err := planRepo.GetByID(ctx, plan.ID)
		require.NoError(t, err)
		assert.True(t, stored.Week(2).IsDeload(), "replacement must be persisted")
	})

	t.Run("unknown week rejected", func(t *testing.T) {
		_, err := generator.RegenerateWeek(ctx, plan.ID, 99, nil)
		assert.Error(t, err)
	})
}
