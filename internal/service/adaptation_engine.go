// internal/service/adaptation_engine.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/reasoning"
	"forgefit/fitness-engine/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Thresholds for candidate generation and escalation.
const (
	volumeDeficiencyCut    = 20.0 // above this, propose a volume cut
	consistencyRestCut     = 60.0 // below this, propose a rest adjustment
	aiVolumeThreshold      = 30.0 // escalate to the reasoning strategy
	aiIntensityThreshold   = 25.0
	overtrainingIntensity  = 8.5
	overtrainingConsistency = 90.0
	deloadAdherenceFloor   = 40.0
	weightCheckinAdherence = 50.0
	weightCheckinVolumeDef = 25.0
	minWorkoutsPerWeek     = 2
)

// BatchSummary aggregates one weekly run. Per-user failures are counted,
// never propagated; the trigger itself always succeeds.
type BatchSummary struct {
	Started   time.Time
	Finished  time.Time
	Processed int
	Skipped   int // users with no active plan
	Errors    int
}

// AdaptationEngine is the weekly batch job: per active-plan user it
// analyzes the last seven days, proposes and safety-gates adaptations,
// and regenerates the next week.
type AdaptationEngine interface {
	// RunWeekly fans out over all users with an ACTIVE, unexpired plan in
	// fixed-size batches with a pause between batches.
	RunWeekly(ctx context.Context) (*BatchSummary, error)

	// AdaptUser runs the adaptation cycle for one user. A user without an
	// active plan yields an empty result, not an error.
	AdaptUser(ctx context.Context, userID primitive.ObjectID) (*domain.AdaptationResult, error)
}

// AdaptationEngineConfig bounds the fan-out.
type AdaptationEngineConfig struct {
	BatchSize  int
	BatchPause time.Duration
}

// DefaultAdaptationEngineConfig returns sane batch bounds.
func DefaultAdaptationEngineConfig() AdaptationEngineConfig {
	return AdaptationEngineConfig{
		BatchSize:  10,
		BatchPause: 2 * time.Second,
	}
}

// adaptationEngine implements the AdaptationEngine interface.
type adaptationEngine struct {
	planRepo     repository.PlanRepository
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	eventRepo    repository.AdaptationEventRepository
	generator    PlanGenerator
	validator    SafetyValidator
	strategy     reasoning.Strategy
	config       AdaptationEngineConfig
	logger       *slog.Logger
	now          func() time.Time // swapped in tests
}

// NewAdaptationEngine creates a new instance of adaptationEngine.
// A nil strategy falls back to the no-op (rule-only) strategy.
func NewAdaptationEngine(
	planRepo repository.PlanRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	eventRepo repository.AdaptationEventRepository,
	generator PlanGenerator,
	validator SafetyValidator,
	strategy reasoning.Strategy,
	config AdaptationEngineConfig,
	logger *slog.Logger,
) AdaptationEngine {
	if strategy == nil {
		strategy = reasoning.NoopStrategy{}
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultAdaptationEngineConfig().BatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &adaptationEngine{
		planRepo:     planRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		eventRepo:    eventRepo,
		generator:    generator,
		validator:    validator,
		strategy:     strategy,
		config:       config,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RunWeekly processes every active-plan user in batches. One user's
// failure is logged and counted; the run always continues.
func (e *adaptationEngine) RunWeekly(ctx context.Context) (*BatchSummary, error) {
	summary := &BatchSummary{Started: e.now()}

	userIDs, err := e.planRepo.ListActiveUserIDs(ctx, e.now())
	if err != nil {
		return nil, fmt.Errorf("listing active users: %w", err)
	}
	e.logger.Info("weekly adaptation run starting", "users", len(userIDs), "batch_size", e.config.BatchSize)

	for start := 0; start < len(userIDs); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(userIDs) {
			end = len(userIDs)
		}

		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for _, userID := range userIDs[start:end] {
			wg.Add(1)
			go func(id primitive.ObjectID) {
				defer wg.Done()
				result, err := e.AdaptUser(ctx, id)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					summary.Errors++
					e.logger.Error("user adaptation failed", "user_id", id.Hex(), "error", err)
				case result.NoActivePlan:
					summary.Skipped++
				default:
					summary.Processed++
				}
			}(userID)
		}
		wg.Wait()

		if end < len(userIDs) && e.config.BatchPause > 0 {
			select {
			case <-time.After(e.config.BatchPause):
			case <-ctx.Done():
				summary.Finished = e.now()
				return summary, ctx.Err()
			}
		}
	}

	summary.Finished = e.now()
	e.logger.Info("weekly adaptation run finished",
		"processed", summary.Processed, "skipped", summary.Skipped, "errors", summary.Errors)
	return summary, nil
}

// AdaptUser runs the full per-user cycle: adherence analysis, deficiency
// derivation, candidate generation (+optional AI escalation), safety
// gating, next-week regeneration, recommendations, and the audit event.
func (e *adaptationEngine) AdaptUser(ctx context.Context, userID primitive.ObjectID) (*domain.AdaptationResult, error) {
	plan, err := e.planRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.AdaptationResult{UserID: userID, NoActivePlan: true}, nil
		}
		return nil, err
	}

	user, err := e.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := &user.Profile

	now := e.now()
	weekNumber := plan.CurrentWeekNumber(now)

	logs, err := e.activityRepo.GetByUserAndRange(ctx, userID, now.AddDate(0, 0, -7), now)
	if err != nil {
		return nil, err
	}

	adherence := analyzeAdherence(plan, weekNumber, logs)
	deficiencies := deriveDeficiencies(plan, weekNumber, logs, adherence)

	candidates := e.ruleCandidates(adherence, deficiencies)
	candidates = append(candidates, e.aiCandidates(ctx, plan, profile, weekNumber, adherence, deficiencies)...)

	var applied, rejected []domain.Adaptation
	for _, c := range candidates {
		cand := c
		if res := e.validator.ValidateAdaptation(&cand, profile); res.Valid {
			applied = append(applied, cand)
		} else {
			rejected = append(rejected, cand)
		}
	}

	result := &domain.AdaptationResult{
		UserID:       userID,
		PlanID:       plan.ID,
		Adherence:    adherence,
		Deficiencies: deficiencies,
		Applied:      applied,
		Rejected:     rejected,
	}

	nextWeek := weekNumber + 1
	if nextWeek <= plan.DurationWeeks {
		week, err := e.regenerateNextWeek(ctx, plan, nextWeek, applied, deficiencies)
		if err != nil {
			return nil, err
		}
		result.NextWeek = summarizeWeek(plan, week, applied)
	}

	result.Recommendations = buildRecommendations(now, adherence, deficiencies)
	result.Measurements = buildMeasurementRequests(now, adherence, deficiencies)

	event := &domain.AdaptationEvent{
		EventID:      uuid.NewString(),
		UserID:       userID,
		PlanID:       plan.ID,
		WeekNumber:   weekNumber,
		Adherence:    adherence,
		Deficiencies: deficiencies,
		Applied:      applied,
		Rejected:     rejected,
		CreatedAt:    now,
	}
	if _, err := e.eventRepo.Create(ctx, event); err != nil {
		// The adaptation already happened; a lost audit record is logged,
		// not fatal.
		e.logger.Error("failed to persist adaptation event", "user_id", userID.Hex(), "error", err)
	}

	return result, nil
}

// analyzeAdherence computes the week's adherence metrics from the
// scheduled workouts and the activity log.
func analyzeAdherence(plan *domain.FitnessPlan, weekNumber int, logs []domain.ActivityLog) domain.AdherenceAnalysis {
	a := domain.AdherenceAnalysis{}

	week := plan.Week(weekNumber)
	scheduledIDs := map[primitive.ObjectID]bool{}
	if week != nil {
		a.ScheduledWorkouts = len(week.Workouts)
		for i := range week.Workouts {
			scheduledIDs[week.Workouts[i].ID] = true
		}
	}

	days := map[string]bool{}
	intensitySum, durationSum := 0.0, 0.0
	logged := 0
	for _, entry := range logs {
		days[entry.LoggedAt.Format("2006-01-02")] = true
		if entry.Completed {
			logged++
			intensitySum += entry.Intensity
			durationSum += float64(entry.DurationMin)
			if scheduledIDs[entry.WorkoutID] {
				a.CompletedWorkouts++
			}
		}
	}

	if a.ScheduledWorkouts > 0 {
		a.AdherenceScore = 100 * float64(a.CompletedWorkouts) / float64(a.ScheduledWorkouts)
	}
	if logged > 0 {
		a.AvgIntensity = intensitySum / float64(logged)
		a.AvgDurationMin = durationSum / float64(logged)
	}
	a.ConsistencyScore = 100 * float64(len(days)) / 7

	return a
}

// deriveDeficiencies turns the adherence analysis into training gaps.
func deriveDeficiencies(plan *domain.FitnessPlan, weekNumber int, logs []domain.ActivityLog, a domain.AdherenceAnalysis) domain.Deficiencies {
	d := domain.Deficiencies{
		VolumeDeficiency: 100 - a.AdherenceScore,
	}
	if a.AvgIntensity < 7 {
		d.IntensityDeficiency = 100 * (7 - a.AvgIntensity) / 7
	}

	completed := map[primitive.ObjectID]bool{}
	for _, entry := range logs {
		if entry.Completed {
			completed[entry.WorkoutID] = true
		}
	}

	if week := plan.Week(weekNumber); week != nil {
		weakSeen := map[string]bool{}
		typeSeen := map[domain.WorkoutType]bool{}
		for i := range week.Workouts {
			w := &week.Workouts[i]
			if completed[w.ID] {
				continue
			}
			for _, mg := range w.TargetMuscleGroups {
				if !weakSeen[mg] {
					weakSeen[mg] = true
					d.WeakMuscleGroups = append(d.WeakMuscleGroups, mg)
				}
			}
			if !typeSeen[w.Type] {
				typeSeen[w.Type] = true
				d.MissedWorkoutTypes = append(d.MissedWorkoutTypes, string(w.Type))
			}
		}
	}

	d.Recovery = domain.RecoveryIndicators{
		PotentialOvertraining: a.AvgIntensity > overtrainingIntensity && a.ConsistencyScore > overtrainingConsistency,
		RecommendedDeload:     a.AdherenceScore < deloadAdherenceFloor,
	}
	return d
}

// ruleCandidates produces the deterministic rule-based proposals.
func (e *adaptationEngine) ruleCandidates(a domain.AdherenceAnalysis, d domain.Deficiencies) []domain.Adaptation {
	var out []domain.Adaptation

	if d.VolumeDeficiency > volumeDeficiencyCut {
		out = append(out, domain.Adaptation{
			Type:                domain.AdaptVolumeReduction,
			Description:         "Reduce weekly training volume by 15%",
			Reason:              fmt.Sprintf("only %.0f%% of scheduled workouts were completed", a.AdherenceScore),
			Impact:              "fewer sets per session, easier to complete the week",
			VolumeChangePercent: -15,
		})
	}
	if a.ConsistencyScore < consistencyRestCut {
		out = append(out, domain.Adaptation{
			Type:        domain.AdaptRestAdjustment,
			Description: "Add a rest day and spread sessions more evenly",
			Reason:      fmt.Sprintf("training on %.0f%% consistency suggests the schedule doesn't fit the week", a.ConsistencyScore),
			Impact:      "lower weekly frequency",
		})
	}
	if d.Recovery.RecommendedDeload {
		out = append(out, domain.Adaptation{
			Type:        domain.AdaptDeload,
			Description: "Run next week as a deload",
			Reason:      "adherence below 40% signals accumulated fatigue or life stress",
			Impact:      "reduced sets and intensity for one week",
		})
	}
	return out
}

// aiCandidates escalates to the reasoning strategy when the gaps are
// large. Failures and timeouts degrade silently to an empty addition.
func (e *adaptationEngine) aiCandidates(ctx context.Context, plan *domain.FitnessPlan, profile *domain.FitnessProfile, weekNumber int, a domain.AdherenceAnalysis, d domain.Deficiencies) []domain.Adaptation {
	if d.VolumeDeficiency <= aiVolumeThreshold && d.IntensityDeficiency <= aiIntensityThreshold {
		return nil
	}

	input := reasoning.Input{
		PlanSummary: reasoning.PlanSummary{
			Type:            plan.Type,
			ExperienceLevel: plan.ExperienceLevel,
			WeekNumber:      weekNumber,
			DurationWeeks:   plan.DurationWeeks,
			WorkoutsPerWeek: plan.WorkoutsPerWeek,
		},
		Adherence:    a,
		Deficiencies: d,
		Preferences: reasoning.Preferences{
			Goal:                profile.Goal,
			IntensityPreference: profile.IntensityPreference,
			DislikedExercises:   profile.DislikedExercises,
		},
	}

	candidates, err := e.strategy.SuggestAdaptations(ctx, input)
	if err != nil {
		e.logger.Warn("reasoning strategy unavailable, continuing rule-only",
			"plan_id", plan.ID.Hex(), "error", err)
		return nil
	}
	return candidates
}

// regenerateNextWeek folds accepted adaptations into generation hints
// and rebuilds the coming week.
func (e *adaptationEngine) regenerateNextWeek(ctx context.Context, plan *domain.FitnessPlan, nextWeek int, applied []domain.Adaptation, d domain.Deficiencies) (*domain.PlanWeek, error) {
	hints := &AdaptationHints{}
	for _, a := range applied {
		switch a.Type {
		case domain.AdaptVolumeReduction, domain.AdaptVolumeIncrease:
			hints.VolumeDeltaPercent += a.VolumeChangePercent
		case domain.AdaptIntensityChange:
			hints.IntensityDeltaPercent += a.IntensityChangePercent
		case domain.AdaptExerciseSwap:
			hints.SwapExercises = append(hints.SwapExercises, a.SwapExercises...)
		case domain.AdaptDeload:
			hints.ForceDeload = true
		case domain.AdaptRestAdjustment:
			// Frequency drops one day, floored at the minimum.
			if plan.WorkoutsPerWeek > minWorkoutsPerWeek {
				plan.WorkoutsPerWeek--
				plan.RestDaysPerWeek++
				if err := e.planRepo.Update(ctx, plan); err != nil {
					return nil, err
				}
			}
		}
	}

	return e.generator.RegenerateWeek(ctx, plan.ID, nextWeek, hints)
}

// summarizeWeek describes the regenerated week, including a net
// difficulty direction from the balance of volume-cut vs. progression
// adaptations.
func summarizeWeek(plan *domain.FitnessPlan, week *domain.PlanWeek, applied []domain.Adaptation) *domain.WeekSummary {
	s := &domain.WeekSummary{
		WeekNumber:   week.Number,
		WorkoutCount: len(week.Workouts),
	}

	previousNames := map[string]bool{}
	if prev := plan.Week(week.Number - 1); prev != nil {
		for i := range prev.Workouts {
			for j := range prev.Workouts[i].Exercises {
				previousNames[strings.ToLower(prev.Workouts[i].Exercises[j].ExerciseName)] = true
			}
		}
	}

	for i := range week.Workouts {
		s.EstimatedMinutes += week.Workouts[i].EstimatedDurationMin
		for j := range week.Workouts[i].Exercises {
			if len(previousNames) > 0 && !previousNames[strings.ToLower(week.Workouts[i].Exercises[j].ExerciseName)] {
				s.NewExercises++
			}
		}
	}

	easier, harder := 0, 0
	for _, a := range applied {
		switch a.Type {
		case domain.AdaptVolumeReduction, domain.AdaptDeload, domain.AdaptRestAdjustment:
			easier++
		case domain.AdaptProgression, domain.AdaptVolumeIncrease:
			harder++
		}
	}
	switch {
	case easier > harder:
		s.Direction = domain.DirectionEasier
	case harder > easier:
		s.Direction = domain.DirectionHarder
	default:
		s.Direction = domain.DirectionSame
	}
	return s
}

// buildRecommendations emits coaching tips with priority and due date.
func buildRecommendations(now time.Time, a domain.AdherenceAnalysis, d domain.Deficiencies) []domain.Recommendation {
	var out []domain.Recommendation

	if d.Recovery.PotentialOvertraining {
		out = append(out, domain.Recommendation{
			Title:    "Watch for overtraining",
			Message:  "High intensity with near-daily training; schedule at least two full rest days this week.",
			Priority: domain.PriorityHigh,
			DueDate:  now.AddDate(0, 0, 3),
		})
	}
	if d.Recovery.RecommendedDeload {
		out = append(out, domain.Recommendation{
			Title:    "Deload week ahead",
			Message:  "Next week runs at reduced volume and intensity; treat it as recovery, not lost progress.",
			Priority: domain.PriorityMedium,
			DueDate:  now.AddDate(0, 0, 7),
		})
	}
	if len(d.WeakMuscleGroups) > 0 {
		out = append(out, domain.Recommendation{
			Title:    "Muscle groups to catch up",
			Message:  fmt.Sprintf("Missed sessions left %s undertrained; prioritize those days next week.", strings.Join(d.WeakMuscleGroups, ", ")),
			Priority: domain.PriorityMedium,
			DueDate:  now.AddDate(0, 0, 7),
		})
	}
	if a.AdherenceScore >= 90 {
		out = append(out, domain.Recommendation{
			Title:    "Strong week",
			Message:  fmt.Sprintf("%.0f%% adherence — keep the same schedule.", a.AdherenceScore),
			Priority: domain.PriorityLow,
			DueDate:  now.AddDate(0, 0, 7),
		})
	}
	return out
}

// buildMeasurementRequests asks for check-ins when the signals warrant.
func buildMeasurementRequests(now time.Time, a domain.AdherenceAnalysis, d domain.Deficiencies) []domain.MeasurementRequest {
	var out []domain.MeasurementRequest

	if d.VolumeDeficiency > weightCheckinVolumeDef || a.AdherenceScore < weightCheckinAdherence {
		out = append(out, domain.MeasurementRequest{
			Kind:     "weight_checkin",
			Reason:   "low training volume this week; a weigh-in keeps the plan's targets honest",
			Priority: domain.PriorityMedium,
			DueDate:  now.AddDate(0, 0, 3),
		})
	}
	if d.Recovery.RecommendedDeload {
		out = append(out, domain.MeasurementRequest{
			Kind:     "fitness_retest",
			Reason:   "after the deload, retest baseline lifts to recalibrate targets",
			Priority: domain.PriorityLow,
			DueDate:  now.AddDate(0, 0, 10),
		})
	}
	return out
}
