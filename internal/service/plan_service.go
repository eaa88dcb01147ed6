// internal/service/plan_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrPlanAccessDenied     = errors.New("plan does not belong to user")
	ErrInvalidTransition    = errors.New("status transition not allowed")
	ErrPlanLocked           = errors.New("plan cannot be modified while active")
	ErrWorkoutNotFound      = errors.New("workout not found in plan")
	ErrExerciseNotInWorkout = errors.New("exercise not found in workout")
	ErrNotATemplate         = errors.New("plan is not a template")
)

// ProgressEntry records one finished (or skipped) session against a plan.
type ProgressEntry struct {
	WorkoutID   primitive.ObjectID
	Status      domain.WorkoutStatus // completed, skipped or modified
	DurationMin int
	Intensity   float64 // RPE 1..10
	SetsDone    int

	// Optional per-exercise actuals, keyed by exercise order within the
	// workout. Exercise transitions are explicit; completing every
	// exercise never cascades into the workout status.
	Exercises []ExerciseProgress
}

// ExerciseProgress carries one exercise's logged outcome.
type ExerciseProgress struct {
	Order         int
	Status        domain.ExerciseStatus
	ActualReps    []int
	ActualWeights []float64
}

// ProgressSummary is the read model for a plan's progress endpoint.
type ProgressSummary struct {
	PlanID        primitive.ObjectID                     `json:"planId"`
	Status        domain.PlanStatus                      `json:"status"`
	CurrentWeek   int                                    `json:"currentWeek"`
	DurationWeeks int                                    `json:"durationWeeks"`
	Progress      domain.PlanProgress                    `json:"progress"`
	Suggestions   map[string]domain.ProgressionDirection `json:"suggestions,omitempty"`
}

// PlanStats aggregates a user's plans by lifecycle state.
type PlanStats struct {
	ByStatus map[domain.PlanStatus]int64 `json:"byStatus"`
	Total    int64                       `json:"total"`
}

// PlanService is the plan management surface: lifecycle, progress
// recording, cloning, templates and validation passthroughs. Generation
// itself is delegated to the PlanGenerator.
type PlanService interface {
	Generate(ctx context.Context, userID primitive.ObjectID, params GenerateParams) (*domain.FitnessPlan, error)
	Get(ctx context.Context, userID, planID primitive.ObjectID) (*domain.FitnessPlan, error)
	List(ctx context.Context, userID primitive.ObjectID, filter repository.PlanFilter) ([]domain.FitnessPlan, error)

	// Update persists edits to a plan's mutable fields. An ACTIVE plan is
	// locked against edits; pause it first.
	Update(ctx context.Context, userID primitive.ObjectID, plan *domain.FitnessPlan) error

	// Delete removes a plan and, with it, its whole week tree. An ACTIVE
	// plan cannot be deleted.
	Delete(ctx context.Context, userID, planID primitive.ObjectID) error

	// Activate makes the plan the user's single active plan, pausing any
	// other active one.
	Activate(ctx context.Context, userID, planID primitive.ObjectID) error
	Pause(ctx context.Context, userID, planID primitive.ObjectID) error
	Resume(ctx context.Context, userID, planID primitive.ObjectID) error
	Complete(ctx context.Context, userID, planID primitive.ObjectID) error
	Cancel(ctx context.Context, userID, planID primitive.ObjectID) error

	// RecordProgress applies a workout outcome to the plan, updates the
	// running counters and appends to the activity log.
	RecordProgress(ctx context.Context, userID, planID primitive.ObjectID, entry ProgressEntry) (*domain.FitnessPlan, error)

	ProgressSummary(ctx context.Context, userID, planID primitive.ObjectID) (*ProgressSummary, error)

	// Clone copies a plan (own or template) into a fresh draft for the user.
	Clone(ctx context.Context, userID, sourcePlanID primitive.ObjectID, startDate time.Time) (*domain.FitnessPlan, error)
	ListTemplates(ctx context.Context, filter repository.PlanFilter) ([]domain.FitnessPlan, error)

	Stats(ctx context.Context, userID primitive.ObjectID) (*PlanStats, error)

	// ValidatePlanParameters dry-runs the safety checks without generating.
	ValidatePlanParameters(ctx context.Context, userID primitive.ObjectID, params PlanParameters) (*domain.ValidationResult, error)
	ValidateExercisePrescription(ctx context.Context, userID primitive.ObjectID, name string, sets, reps int, weightKg float64) (*domain.ValidationResult, error)
}

// planService implements the PlanService interface.
type planService struct {
	planRepo     repository.PlanRepository
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	generator    PlanGenerator
	validator    SafetyValidator
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.PlanRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	generator PlanGenerator,
	validator SafetyValidator,
) PlanService {
	return &planService{
		planRepo:     planRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		generator:    generator,
		validator:    validator,
	}
}

func (s *planService) Generate(ctx context.Context, userID primitive.ObjectID, params GenerateParams) (*domain.FitnessPlan, error) {
	return s.generator.GenerateFitnessPlan(ctx, userID, params)
}

// getOwned fetches the plan and enforces ownership.
func (s *planService) getOwned(ctx context.Context, userID, planID primitive.ObjectID) (*domain.FitnessPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.UserID != userID {
		return nil, ErrPlanAccessDenied
	}
	return plan, nil
}

func (s *planService) Get(ctx context.Context, userID, planID primitive.ObjectID) (*domain.FitnessPlan, error) {
	return s.getOwned(ctx, userID, planID)
}

func (s *planService) List(ctx context.Context, userID primitive.ObjectID, filter repository.PlanFilter) ([]domain.FitnessPlan, error) {
	return s.planRepo.GetByUser(ctx, userID, filter)
}

func (s *planService) Update(ctx context.Context, userID primitive.ObjectID, plan *domain.FitnessPlan) error {
	current, err := s.getOwned(ctx, userID, plan.ID)
	if err != nil {
		return err
	}
	if current.Status == domain.PlanActive {
		return ErrPlanLocked
	}
	// Lifecycle fields are owned by the transition endpoints.
	plan.UserID = current.UserID
	plan.Status = current.Status
	plan.Progress = current.Progress
	plan.CreatedAt = current.CreatedAt
	return s.planRepo.Update(ctx, plan)
}

func (s *planService) Delete(ctx context.Context, userID, planID primitive.ObjectID) error {
	plan, err := s.getOwned(ctx, userID, planID)
	if err != nil {
		return err
	}
	if plan.Status == domain.PlanActive {
		return ErrPlanLocked
	}
	// The whole week tree lives in the plan document, so this cascades.
	return s.planRepo.Delete(ctx, planID)
}

func (s *planService) Activate(ctx context.Context, userID, planID primitive.ObjectID) error {
	plan, err := s.getOwned(ctx, userID, planID)
	if err != nil {
		return err
	}
	if !plan.Status.CanTransitionTo(domain.PlanActive) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, plan.Status, domain.PlanActive)
	}
	return s.planRepo.Activate(ctx, userID, planID)
}

func (s *planService) Pause(ctx context.Context, userID, planID primitive.ObjectID) error {
	return s.transition(ctx, userID, planID, domain.PlanPaused)
}

func (s *planService) Resume(ctx context.Context, userID, planID primitive.ObjectID) error {
	// Resuming re-enters the single-active-plan path.
	plan, err := s.getOwned(ctx, userID, planID)
	if err != nil {
		return err
	}
	if plan.Status != domain.PlanPaused {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, plan.Status, domain.PlanActive)
	}
	return s.planRepo.Activate(ctx, userID, planID)
}

func (s *planService) Complete(ctx context.Context, userID, planID primitive.ObjectID) error {
	return s.transition(ctx, userID, planID, domain.PlanCompleted)
}

func (s *planService) Cancel(ctx context.Context, userID, planID primitive.ObjectID) error {
	return s.transition(ctx, userID, planID, domain.PlanCancelled)
}

func (s *planService) transition(ctx context.Context, userID, planID primitive.ObjectID, target domain.PlanStatus) error {
	plan, err := s.getOwned(ctx, userID, planID)
	if err != nil {
		return err
	}
	if !plan.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, plan.Status, target)
	}
	return s.planRepo.UpdateStatus(ctx, planID, target)
}

func (s *planService) RecordProgress(ctx context.Context, userID, planID primitive.ObjectID, entry ProgressEntry) (*domain.FitnessPlan, error) {
	plan, err := s.getOwned(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	workout := findWorkout(plan, entry.WorkoutID)
	if workout == nil {
		return nil, ErrWorkoutNotFound
	}

	// Workouts pass through in_progress on the way to a terminal state.
	if workout.Status == domain.WorkoutPlanned && entry.Status != domain.WorkoutSkipped && entry.Status != domain.WorkoutModified {
		workout.Transition(domain.WorkoutInProgress)
	}
	if !workout.Transition(entry.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, workout.Status, entry.Status)
	}

	now := time.Now().UTC()
	switch entry.Status {
	case domain.WorkoutCompleted:
		workout.CompletedAt = &now
		workout.ActualDurationMin = entry.DurationMin
		workout.ActualIntensity = entry.Intensity
		workout.SetsCompleted = entry.SetsDone
		plan.Progress.WorkoutsCompleted++
		plan.Progress.TotalSetsDone += entry.SetsDone
		plan.Progress.TotalMinutes += entry.DurationMin
	case domain.WorkoutSkipped:
		plan.Progress.WorkoutsSkipped++
	}

	for _, ep := range entry.Exercises {
		ex := findExercise(workout, ep.Order)
		if ex == nil {
			return nil, ErrExerciseNotInWorkout
		}
		if ex.Status == domain.ExercisePlanned && ep.Status != domain.ExerciseSkipped && ep.Status != domain.ExerciseModified {
			ex.Transition(domain.ExerciseInProgress)
		}
		if !ex.Transition(ep.Status) {
			return nil, fmt.Errorf("%w: exercise %d: %s -> %s", ErrInvalidTransition, ep.Order, ex.Status, ep.Status)
		}
		ex.ActualReps = ep.ActualReps
		ex.ActualWeights = ep.ActualWeights
	}

	recomputeProgress(plan)

	// The activity log feeds the adaptation engine's adherence math, so it
	// goes in before the counters; a failed append leaves the stored plan
	// untouched and the whole entry retryable.
	log := &domain.ActivityLog{
		UserID:      userID,
		PlanID:      planID,
		WorkoutID:   entry.WorkoutID,
		Completed:   entry.Status == domain.WorkoutCompleted,
		Intensity:   entry.Intensity,
		DurationMin: entry.DurationMin,
		LoggedAt:    now,
	}
	if _, err := s.activityRepo.Append(ctx, log); err != nil {
		return nil, err
	}

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *planService) ProgressSummary(ctx context.Context, userID, planID primitive.ObjectID) (*ProgressSummary, error) {
	plan, err := s.getOwned(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	summary := &ProgressSummary{
		PlanID:        plan.ID,
		Status:        plan.Status,
		CurrentWeek:   plan.CurrentWeekNumber(time.Now().UTC()),
		DurationWeeks: plan.DurationWeeks,
		Progress:      plan.Progress,
		Suggestions:   map[string]domain.ProgressionDirection{},
	}
	if week := plan.Week(summary.CurrentWeek); week != nil {
		for i := range week.Workouts {
			for j := range week.Workouts[i].Exercises {
				ex := &week.Workouts[i].Exercises[j]
				if ex.Status == domain.ExerciseCompleted {
					summary.Suggestions[ex.ExerciseName] = ex.Suggestion()
				}
			}
		}
	}
	return summary, nil
}

func (s *planService) Clone(ctx context.Context, userID, sourcePlanID primitive.ObjectID, startDate time.Time) (*domain.FitnessPlan, error) {
	source, err := s.planRepo.GetByID(ctx, sourcePlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	// Anyone may clone a template; otherwise only the owner.
	if !source.IsTemplate && source.UserID != userID {
		return nil, ErrPlanAccessDenied
	}
	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}

	clone := source.CloneForUser(userID, startDate)
	clone.CreatedAt = time.Now().UTC()
	clone.UpdatedAt = clone.CreatedAt

	id, err := s.planRepo.Create(ctx, clone)
	if err != nil {
		return nil, err
	}
	clone.ID = id
	return clone, nil
}

func (s *planService) ListTemplates(ctx context.Context, filter repository.PlanFilter) ([]domain.FitnessPlan, error) {
	filter.TemplatesOnly = true
	return s.planRepo.GetByUser(ctx, primitive.NilObjectID, filter)
}

func (s *planService) Stats(ctx context.Context, userID primitive.ObjectID) (*PlanStats, error) {
	byStatus, err := s.planRepo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &PlanStats{ByStatus: byStatus}
	for _, n := range byStatus {
		stats.Total += n
	}
	return stats, nil
}

func (s *planService) ValidatePlanParameters(ctx context.Context, userID primitive.ObjectID, params PlanParameters) (*domain.ValidationResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.validator.ValidateFitnessPlan(params, &user.Profile), nil
}

func (s *planService) ValidateExercisePrescription(ctx context.Context, userID primitive.ObjectID, name string, sets, reps int, weightKg float64) (*domain.ValidationResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.validator.ValidateExerciseParameters(name, sets, reps, weightKg, &user.Profile), nil
}

// recomputeProgress refreshes the derived counters from the week tree.
func recomputeProgress(plan *domain.FitnessPlan) {
	total := plan.TotalWorkouts()
	if total == 0 {
		return
	}
	plan.Progress.CompletionPercent = 100 * float64(plan.Progress.WorkoutsCompleted) / float64(total)

	attempted := plan.Progress.WorkoutsCompleted + plan.Progress.WorkoutsSkipped
	if attempted > 0 {
		plan.Progress.AdherenceScore = 100 * float64(plan.Progress.WorkoutsCompleted) / float64(attempted)
	}
}

func findWorkout(plan *domain.FitnessPlan, workoutID primitive.ObjectID) *domain.PlanWorkout {
	for i := range plan.Weeks {
		for j := range plan.Weeks[i].Workouts {
			if plan.Weeks[i].Workouts[j].ID == workoutID {
				return &plan.Weeks[i].Workouts[j]
			}
		}
	}
	return nil
}

func findExercise(workout *domain.PlanWorkout, order int) *domain.PlanExercise {
	for i := range workout.Exercises {
		if workout.Exercises[i].Order == order {
			return &workout.Exercises[i]
		}
	}
	return nil
}
