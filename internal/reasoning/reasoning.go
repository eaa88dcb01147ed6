// Package reasoning defines the pluggable strategy the adaptation engine
// escalates to when rule-based candidates are not enough. The default is
// a no-op, keeping the core algorithm fully testable offline; the Gemini
// implementation lives alongside it.
package reasoning

import (
	"context"

	"forgefit/fitness-engine/internal/domain"
)

// Input is the structured snapshot handed to a strategy. It carries no
// repository handles; strategies reason over data only.
type Input struct {
	PlanSummary  PlanSummary              `json:"planSummary"`
	Adherence    domain.AdherenceAnalysis `json:"adherenceAnalysis"`
	Deficiencies domain.Deficiencies      `json:"deficiencies"`
	Preferences  Preferences              `json:"userPreferences"`
}

// PlanSummary is the slice of plan state a strategy needs.
type PlanSummary struct {
	Type            domain.PlanType   `json:"type"`
	ExperienceLevel domain.Difficulty `json:"experienceLevel"`
	WeekNumber      int               `json:"weekNumber"`
	DurationWeeks   int               `json:"durationWeeks"`
	WorkoutsPerWeek int               `json:"workoutsPerWeek"`
}

// Preferences are the user-side signals worth surfacing to a strategy.
type Preferences struct {
	Goal                domain.FitnessGoal         `json:"goal,omitempty"`
	IntensityPreference domain.IntensityPreference `json:"intensityPreference,omitempty"`
	DislikedExercises   []string                   `json:"dislikedExercises,omitempty"`
}

// Strategy proposes additional adaptation candidates. Output is
// unvalidated; the caller must gate everything through the safety
// validator. Implementations must honor ctx cancellation, and callers
// treat any error as "no additional candidates".
type Strategy interface {
	SuggestAdaptations(ctx context.Context, input Input) ([]domain.Adaptation, error)
}

// NoopStrategy is the offline default: it never proposes anything.
type NoopStrategy struct{}

func (NoopStrategy) SuggestAdaptations(_ context.Context, _ Input) ([]domain.Adaptation, error) {
	return nil, nil
}
