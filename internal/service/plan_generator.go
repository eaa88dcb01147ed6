// internal/service/plan_generator.go
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidPlanParameters = errors.New("invalid plan parameters")
	ErrInsufficientCatalog   = errors.New("not enough suitable exercises in the catalog")
	ErrUserNotFound          = errors.New("user not found")
	ErrPlanNotFound          = errors.New("fitness plan not found")
	ErrWeekNotFound          = errors.New("plan week not found")
)

// Minimum number of suitable catalog candidates required before a plan
// can be generated.
const minCandidates = 10

// GenerateParams are the inputs to whole-plan generation.
type GenerateParams struct {
	Name                string
	Type                domain.PlanType
	DurationWeeks       int
	WorkoutsPerWeek     int
	WorkoutDurationMin  int
	Equipment           []string
	Location            string
	StartDate           time.Time
	Targets             domain.TargetMetrics
	ProgressiveOverload bool
	ProgressionRate     float64 // fraction per week; 0 = default 5%
	DeloadFrequency     int     // every N weeks; 0 = default 4
}

// AdaptationHints bias a single week's regeneration.
type AdaptationHints struct {
	SwapExercises         []string // exercise names to replace
	VolumeDeltaPercent    float64  // positive = more sets
	IntensityDeltaPercent float64  // positive = harder
	ForceDeload           bool
}

// PlanGenerator builds and rebuilds the plan's week→workout→exercise
// tree from the catalog, under the safety validator's rules.
type PlanGenerator interface {
	GenerateFitnessPlan(ctx context.Context, userID primitive.ObjectID, params GenerateParams) (*domain.FitnessPlan, error)
	RegenerateWeek(ctx context.Context, planID primitive.ObjectID, weekNumber int, hints *AdaptationHints) (*domain.PlanWeek, error)
}

// planGenerator implements the PlanGenerator interface.
type planGenerator struct {
	library   ExerciseLibrary
	validator SafetyValidator
	planRepo  repository.PlanRepository
	userRepo  repository.UserRepository
}

// NewPlanGenerator creates a new instance of planGenerator.
func NewPlanGenerator(
	library ExerciseLibrary,
	validator SafetyValidator,
	planRepo repository.PlanRepository,
	userRepo repository.UserRepository,
) PlanGenerator {
	return &planGenerator{
		library:   library,
		validator: validator,
		planRepo:  planRepo,
		userRepo:  userRepo,
	}
}

// GenerateFitnessPlan builds a full multi-week plan for the user and
// persists it. The whole operation is all-or-nothing: parameter or
// catalog failures abort before anything is written, and a failed write
// after plan creation rolls the plan back.
func (g *planGenerator) GenerateFitnessPlan(ctx context.Context, userID primitive.ObjectID, params GenerateParams) (*domain.FitnessPlan, error) {
	if err := validateGenerateParams(params); err != nil {
		return nil, err
	}
	applyParamDefaults(&params)

	user, err := g.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	profile := &user.Profile

	candidates, err := g.resolveCandidates(ctx, profile, params.Equipment, params.Type, nil)
	if err != nil {
		return nil, err
	}

	plan := &domain.FitnessPlan{
		UserID:             userID,
		Name:               params.Name,
		Type:               params.Type,
		Status:             domain.PlanDraft,
		ExperienceLevel:    profile.ExperienceLevel,
		StartDate:          params.StartDate,
		EndDate:            params.StartDate.AddDate(0, 0, params.DurationWeeks*7),
		DurationWeeks:      params.DurationWeeks,
		WorkoutsPerWeek:    params.WorkoutsPerWeek,
		RestDaysPerWeek:    7 - params.WorkoutsPerWeek,
		WorkoutDurationMin: params.WorkoutDurationMin,
		Targets:            params.Targets,
		Equipment:          params.Equipment,
		Location:           params.Location,
		HealthConditions:   profile.HealthConditions,
		PhysicalLimitations: profile.PhysicalLimitations,
		Progression: domain.ProgressionSettings{
			Enabled:         params.ProgressiveOverload,
			WeeklyRate:      params.ProgressionRate,
			DeloadFrequency: params.DeloadFrequency,
		},
	}

	used := map[primitive.ObjectID]bool{}
	for week := 1; week <= params.DurationWeeks; week++ {
		w, err := g.buildWeek(plan, profile, candidates, week, nil, used)
		if err != nil {
			return nil, err
		}
		plan.Weeks = append(plan.Weeks, *w)
	}

	planID, err := g.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID

	usedIDs := make([]primitive.ObjectID, 0, len(used))
	for id := range used {
		usedIDs = append(usedIDs, id)
	}
	if err := g.library.RecordSelection(ctx, usedIDs); err != nil {
		// Keep generation all-or-nothing: undo the plan insert.
		_ = g.planRepo.Delete(ctx, planID)
		return nil, fmt.Errorf("recording exercise usage: %w", err)
	}

	return plan, nil
}

// RegenerateWeek rebuilds a single week from the plan's current
// parameters, optionally biased by adaptation hints, and swaps it into
// the stored plan.
func (g *planGenerator) RegenerateWeek(ctx context.Context, planID primitive.ObjectID, weekNumber int, hints *AdaptationHints) (*domain.PlanWeek, error) {
	plan, err := g.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.Week(weekNumber) == nil {
		return nil, ErrWeekNotFound
	}

	user, err := g.userRepo.GetByID(ctx, plan.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	profile := &user.Profile

	var exclude []string
	if hints != nil {
		exclude = hints.SwapExercises
	}
	candidates, err := g.resolveCandidates(ctx, profile, plan.Equipment, plan.Type, exclude)
	if err != nil {
		return nil, err
	}

	used := map[primitive.ObjectID]bool{}
	week, err := g.buildWeek(plan, profile, candidates, weekNumber, hints, used)
	if err != nil {
		return nil, err
	}

	if err := g.planRepo.ReplaceWeek(ctx, planID, *week); err != nil {
		return nil, err
	}

	usedIDs := make([]primitive.ObjectID, 0, len(used))
	for id := range used {
		usedIDs = append(usedIDs, id)
	}
	if err := g.library.RecordSelection(ctx, usedIDs); err != nil {
		return nil, fmt.Errorf("recording exercise usage: %w", err)
	}

	return week, nil
}

func validateGenerateParams(params GenerateParams) error {
	switch {
	case params.DurationWeeks < 1 || params.DurationWeeks > 52:
		return fmt.Errorf("%w: duration must be 1-52 weeks, got %d", ErrInvalidPlanParameters, params.DurationWeeks)
	case params.WorkoutsPerWeek < 1 || params.WorkoutsPerWeek > 7:
		return fmt.Errorf("%w: workouts per week must be 1-7, got %d", ErrInvalidPlanParameters, params.WorkoutsPerWeek)
	case params.WorkoutDurationMin < 15 || params.WorkoutDurationMin > 180:
		return fmt.Errorf("%w: workout duration must be 15-180 minutes, got %d", ErrInvalidPlanParameters, params.WorkoutDurationMin)
	case len(params.Equipment) == 0:
		return fmt.Errorf("%w: at least one equipment entry is required (use %q for none)", ErrInvalidPlanParameters, domain.EquipmentBodyweight)
	}
	return nil
}

func applyParamDefaults(params *GenerateParams) {
	if params.Name == "" {
		params.Name = fmt.Sprintf("%d-week %s plan", params.DurationWeeks, strings.ReplaceAll(string(params.Type), "_", " "))
	}
	if params.Type == "" {
		params.Type = domain.PlanGeneralFitness
	}
	if params.StartDate.IsZero() {
		params.StartDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if params.DeloadFrequency == 0 {
		params.DeloadFrequency = 4
	}
	if params.ProgressionRate == 0 {
		params.ProgressionRate = 0.05
	}
}

// resolveCandidates pulls suitable exercises for the profile and plan
// constraints, requiring the catalog minimum.
func (g *planGenerator) resolveCandidates(ctx context.Context, profile *domain.FitnessProfile, equipment []string, planType domain.PlanType, exclude []string) ([]domain.Exercise, error) {
	disliked := append([]string{}, profile.DislikedExercises...)
	disliked = append(disliked, exclude...)

	candidates, err := g.library.Suitable(ctx, SuitabilityFilter{
		AvailableEquipment: equipment,
		HealthConditions:   profile.HealthConditions,
		DislikedExercises:  disliked,
		MaxDifficulty:      difficultyCap(profile.ExperienceLevel),
		Goal:               goalForPlanType(planType),
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) < minCandidates {
		return nil, fmt.Errorf("%w: found %d, need %d", ErrInsufficientCatalog, len(candidates), minCandidates)
	}
	return candidates, nil
}

// difficultyCap lets a user train one step above their level; the
// validator still warns on those picks.
func difficultyCap(level domain.Difficulty) domain.Difficulty {
	switch level {
	case domain.DifficultyBeginner:
		return domain.DifficultyIntermediate
	case domain.DifficultyIntermediate:
		return domain.DifficultyAdvanced
	default:
		return domain.DifficultyExpert
	}
}

// buildWeek assembles one week of workouts under the volume budget.
// Deload weeks (week mod deloadFrequency == 0) drop one set per exercise
// and one intensity step.
func (g *planGenerator) buildWeek(plan *domain.FitnessPlan, profile *domain.FitnessProfile, candidates []domain.Exercise, weekNumber int, hints *AdaptationHints, used map[primitive.ObjectID]bool) (*domain.PlanWeek, error) {
	deloadFreq := plan.Progression.DeloadFrequency
	isDeload := deloadFreq > 0 && weekNumber%deloadFreq == 0
	if hints != nil && hints.ForceDeload {
		isDeload = true
	}

	week := &domain.PlanWeek{
		Number:            weekNumber,
		Type:              domain.WeekNormal,
		StartDate:         plan.StartDate.AddDate(0, 0, (weekNumber-1)*7),
		IntensityModifier: 1.0,
		VolumeModifier:    1.0,
	}
	week.EndDate = week.StartDate.AddDate(0, 0, 7)
	if isDeload {
		week.Type = domain.WeekDeload
		week.IntensityModifier = 0.8
		week.VolumeModifier = 0.7
	}

	split := SplitFor(plan.WorkoutsPerWeek)
	mods := ModifiersFor(plan.Type)
	limits, ok := setLimitsByLevel[profile.ExperienceLevel]
	if !ok {
		limits = setLimitsByLevel[domain.DifficultyBeginner]
	}

	// Plan-type multiplier scales the budget but never past the level ceiling.
	workoutBudget := int(math.Round(float64(limits.Max) * mods.Sets))
	if workoutBudget > limits.Max {
		workoutBudget = limits.Max
	}

	dayStride := 7 / plan.WorkoutsPerWeek
	if dayStride < 1 {
		dayStride = 1
	}

	for dayIdx, day := range split {
		workout, err := g.buildWorkout(plan, profile, candidates, day, weekNumber, dayIdx, workoutBudget, isDeload, hints, used)
		if err != nil {
			return nil, err
		}
		workout.DayOfWeek = dayIdx*dayStride + 1
		week.Workouts = append(week.Workouts, *workout)
	}

	return week, nil
}

// buildWorkout selects exercises per target muscle group under the
// volume budget, preferring compounds for strength/muscle-gain plans
// (Suitable already orders them first) and skipping anything the safety
// validator hard-rejects.
func (g *planGenerator) buildWorkout(plan *domain.FitnessPlan, profile *domain.FitnessProfile, candidates []domain.Exercise, day SplitDay, weekNumber, dayIdx, workoutBudget int, isDeload bool, hints *AdaptationHints, used map[primitive.ObjectID]bool) (*domain.PlanWorkout, error) {
	workout := &domain.PlanWorkout{
		ID:                 primitive.NewObjectID(),
		Name:               day.Name,
		Type:               day.Type,
		TargetMuscleGroups: day.MuscleGroups,
		Status:             domain.WorkoutPlanned,
	}

	groupCap, ok := maxSetsPerMuscleGroup[profile.ExperienceLevel]
	if !ok {
		groupCap = maxSetsPerMuscleGroup[domain.DifficultyBeginner]
	}
	mods := ModifiersFor(plan.Type)
	groupCap = int(math.Round(float64(groupCap) * mods.Sets))
	if groupCap < 2 {
		groupCap = 2
	}

	remaining := workoutBudget
	order := 0
	pickedNames := map[string]bool{}

	for _, group := range day.MuscleGroups {
		if remaining <= 0 {
			break
		}
		groupSets := groupCap
		if groupSets > remaining {
			groupSets = remaining
		}

		picks := g.pickForGroup(candidates, profile, group, pickedNames)
		if len(picks) == 0 {
			continue
		}

		setsPerExercise := groupSets / len(picks)
		if setsPerExercise < 1 {
			setsPerExercise = 1
			picks = picks[:1]
		}

		for _, ex := range picks {
			pe := g.prescribe(plan, profile, ex, weekNumber, setsPerExercise, isDeload, hints)
			pe.Order = order
			pe.MuscleGroup = group
			order++
			workout.Exercises = append(workout.Exercises, pe)
			remaining -= pe.TargetSets
			used[ex.ID] = true
			pickedNames[strings.ToLower(ex.Name)] = true
		}
	}

	if len(workout.Exercises) == 0 {
		return nil, fmt.Errorf("%w: no candidates target %v", ErrInsufficientCatalog, day.MuscleGroups)
	}

	// Respect the requested session length: shave sets off the tail
	// (never below one set) until the estimate fits.
	for EstimateWorkoutMinutes(workout) > plan.WorkoutDurationMin {
		trimmed := false
		for i := len(workout.Exercises) - 1; i >= 0; i-- {
			if workout.Exercises[i].TargetSets > 1 {
				workout.Exercises[i].TargetSets--
				trimmed = true
				break
			}
		}
		if !trimmed {
			break
		}
	}

	workout.EstimatedDurationMin = EstimateWorkoutMinutes(workout)
	sum := 0.0
	for i := range workout.Exercises {
		sum += workout.Exercises[i].Intensity
	}
	est := sum / float64(len(workout.Exercises)) * mods.Intensity
	workout.EstimatedIntensity = clampScore(est)
	// Coarse heuristic, deliberately not calorimetry.
	workout.EstimatedCalories = workout.EstimatedDurationMin * int(2+workout.EstimatedIntensity)

	return workout, nil
}

// pickForGroup returns 1-2 safe candidates targeting the muscle group.
// Candidates arrive pre-ordered by Suitable, so taking from the front
// preserves compound-first/rating ordering. Hard safety rejects are
// skipped in favor of the next candidate.
func (g *planGenerator) pickForGroup(candidates []domain.Exercise, profile *domain.FitnessProfile, group string, alreadyPicked map[string]bool) []domain.Exercise {
	var picks []domain.Exercise
	for i := range candidates {
		ex := candidates[i]
		if len(picks) == 2 {
			break
		}
		if alreadyPicked[strings.ToLower(ex.Name)] {
			continue
		}
		if !ex.TargetsMuscle(group) {
			continue
		}
		if res := g.validator.ValidateExerciseForUser(&ex, profile); !res.Valid {
			continue // substitute considered instead of silently including
		}
		picks = append(picks, ex)
	}
	return picks
}

// prescribe turns a catalog exercise into a week-specific prescription:
// plan-type rep/rest scheme, progressive-overload rep nudging (capped at
// 20% cumulative), deload reductions, and the intensity score.
func (g *planGenerator) prescribe(plan *domain.FitnessPlan, profile *domain.FitnessProfile, ex domain.Exercise, weekNumber, sets int, isDeload bool, hints *AdaptationHints) domain.PlanExercise {
	repsMin, repsMax, rest := repScheme(plan.Type)
	if ex.DefaultDurationSec > 0 {
		// Duration-style movement (planks, carries): no rep range.
		repsMin, repsMax = 0, 0
	}

	if hints != nil && hints.VolumeDeltaPercent != 0 {
		sets = int(math.Round(float64(sets) * (1 + hints.VolumeDeltaPercent/100)))
	}
	if sets < 1 {
		sets = 1
	}

	// Progressive overload: nudge the rep range upward on non-deload
	// weeks after the first, capped at 20% over baseline.
	if plan.Progression.Enabled && weekNumber > 1 && !isDeload && repsMax > 0 {
		boost := plan.Progression.WeeklyRate * float64(weekNumber-1)
		if boost > 0.20 {
			boost = 0.20
		}
		repsMin = int(math.Round(float64(repsMin) * (1 + boost)))
		repsMax = int(math.Round(float64(repsMax) * (1 + boost)))
	}

	intensity := 6.0
	intensity += intensityDeltaByPlanType[plan.Type]
	switch profile.IntensityPreference {
	case domain.PreferLowIntensity:
		intensity--
	case domain.PreferHighIntensity:
		intensity++
	}
	diffDelta := ex.Difficulty.Rank() - profile.ExperienceLevel.Rank()
	if diffDelta > 1 {
		diffDelta = 1
	} else if diffDelta < -1 {
		diffDelta = -1
	}
	intensity += float64(diffDelta)

	if isDeload {
		if sets > 1 {
			sets--
		}
		intensity--
	}
	if hints != nil && hints.IntensityDeltaPercent != 0 {
		intensity *= 1 + hints.IntensityDeltaPercent/100
	}

	pe := domain.PlanExercise{
		ExerciseID:        ex.ID,
		ExerciseName:      ex.Name,
		IsCompound:        ex.IsCompound,
		TargetSets:        sets,
		TargetRepsMin:     repsMin,
		TargetRepsMax:     repsMax,
		TargetDurationSec: ex.DefaultDurationSec,
		RestSec:           rest,
		Intensity:         clampScore(intensity),
		Status:            domain.ExercisePlanned,
	}
	if pe.RestSec == 0 {
		pe.RestSec = 60
	}
	return pe
}

// repScheme returns the default rep range and rest per plan type.
// Weight progression is left to the per-exercise suggestion evaluated
// from logged performance, not pre-computed here.
func repScheme(planType domain.PlanType) (repsMin, repsMax, restSec int) {
	switch planType {
	case domain.PlanStrengthBuilding:
		return 4, 6, 120
	case domain.PlanMuscleBuilding:
		return 8, 12, 90
	case domain.PlanWeightLoss:
		return 10, 15, 45
	case domain.PlanEndurance:
		return 12, 20, 45
	default:
		return 8, 12, 60
	}
}

func clampScore(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
