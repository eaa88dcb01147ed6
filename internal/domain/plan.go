// internal/domain/plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanType drives volume/intensity multipliers during generation.
type PlanType string

const (
	PlanWeightLoss       PlanType = "weight_loss"
	PlanMuscleBuilding   PlanType = "muscle_building"
	PlanStrengthBuilding PlanType = "strength_building"
	PlanEndurance        PlanType = "endurance"
	PlanGeneralFitness   PlanType = "general_fitness"
)

// PlanStatus is the plan lifecycle state machine:
// draft → active → paused ↔ active → {completed, cancelled}.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

// CanTransitionTo reports whether the status state machine allows moving
// from s to target. Completed and cancelled are terminal.
func (s PlanStatus) CanTransitionTo(target PlanStatus) bool {
	switch s {
	case PlanDraft:
		return target == PlanActive || target == PlanCancelled
	case PlanActive:
		return target == PlanPaused || target == PlanCompleted || target == PlanCancelled
	case PlanPaused:
		return target == PlanActive || target == PlanCompleted || target == PlanCancelled
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s PlanStatus) IsTerminal() bool {
	return s == PlanCompleted || s == PlanCancelled
}

// TargetMetrics are the coarse outcome targets a plan aims at.
type TargetMetrics struct {
	TargetWeightKg     float64 `bson:"targetWeightKg,omitempty" json:"targetWeightKg,omitempty"`
	WeeklyActiveMin    int     `bson:"weeklyActiveMin,omitempty" json:"weeklyActiveMin,omitempty"`
	TargetWorkoutsWeek int     `bson:"targetWorkoutsWeek,omitempty" json:"targetWorkoutsWeek,omitempty"`
}

// ProgressionSettings control progressive overload and deload cadence.
type ProgressionSettings struct {
	Enabled         bool    `bson:"enabled" json:"enabled"`
	WeeklyRate      float64 `bson:"weeklyRate" json:"weeklyRate"`           // fraction per week, e.g. 0.05
	DeloadFrequency int     `bson:"deloadFrequency" json:"deloadFrequency"` // every N weeks; 0 = never
}

// PlanProgress holds the running counters updated as activity is logged.
type PlanProgress struct {
	AdherenceScore    float64 `bson:"adherenceScore" json:"adherenceScore"` // 0..100
	CompletionPercent float64 `bson:"completionPercent" json:"completionPercent"`
	WorkoutsCompleted int     `bson:"workoutsCompleted" json:"workoutsCompleted"`
	WorkoutsSkipped   int     `bson:"workoutsSkipped" json:"workoutsSkipped"`
	TotalSetsDone     int     `bson:"totalSetsDone" json:"totalSetsDone"`
	TotalMinutes      int     `bson:"totalMinutes" json:"totalMinutes"`
}

// FitnessPlan is the aggregate root. It owns its week→workout→exercise
// tree (embedded in the same document, so plan writes are atomic and
// deleting a plan cascades for free). Catalog exercises are referenced
// by id/name, never owned.
type FitnessPlan struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"`

	Name   string     `bson:"name" json:"name"`
	Type   PlanType   `bson:"type" json:"type"`
	Status PlanStatus `bson:"status" json:"status"`

	ExperienceLevel Difficulty `bson:"experienceLevel" json:"experienceLevel"`

	StartDate     time.Time `bson:"startDate" json:"startDate"`
	EndDate       time.Time `bson:"endDate" json:"endDate"`
	DurationWeeks int       `bson:"durationWeeks" json:"durationWeeks"`

	WorkoutsPerWeek    int `bson:"workoutsPerWeek" json:"workoutsPerWeek"`
	RestDaysPerWeek    int `bson:"restDaysPerWeek" json:"restDaysPerWeek"`
	WorkoutDurationMin int `bson:"workoutDurationMin" json:"workoutDurationMin"`

	Targets TargetMetrics `bson:"targets,omitempty" json:"targets,omitempty"`

	// Constraints the plan was generated under; regeneration re-reads these.
	Equipment           []string `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Location            string   `bson:"location,omitempty" json:"location,omitempty"` // e.g. "home", "gym"
	HealthConditions    []string `bson:"healthConditions,omitempty" json:"healthConditions,omitempty"`
	PhysicalLimitations []string `bson:"physicalLimitations,omitempty" json:"physicalLimitations,omitempty"`

	Progression ProgressionSettings `bson:"progression" json:"progression"`
	Progress    PlanProgress        `bson:"progress" json:"progress"`

	IsTemplate bool `bson:"isTemplate,omitempty" json:"isTemplate,omitempty"`

	Weeks []PlanWeek `bson:"weeks,omitempty" json:"weeks,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Week returns the week with the given 1-based number, or nil.
func (p *FitnessPlan) Week(number int) *PlanWeek {
	for i := range p.Weeks {
		if p.Weeks[i].Number == number {
			return &p.Weeks[i]
		}
	}
	return nil
}

// CurrentWeekNumber computes which plan week the given time falls in.
// Returns 0 before the start date and DurationWeeks after the end.
func (p *FitnessPlan) CurrentWeekNumber(now time.Time) int {
	if now.Before(p.StartDate) {
		return 0
	}
	week := int(now.Sub(p.StartDate).Hours()/(24*7)) + 1
	if week > p.DurationWeeks {
		return p.DurationWeeks
	}
	return week
}

// Expired reports whether the plan's scheduled window has passed.
func (p *FitnessPlan) Expired(now time.Time) bool {
	return !p.EndDate.IsZero() && now.After(p.EndDate)
}

// TotalWorkouts counts workouts across all weeks.
func (p *FitnessPlan) TotalWorkouts() int {
	n := 0
	for i := range p.Weeks {
		n += len(p.Weeks[i].Workouts)
	}
	return n
}

// CloneForUser produces a structural copy of the plan for a (possibly
// different) user: parameters and the full week tree are preserved,
// progress counters are zeroed, every workout/exercise is reset to its
// planned state and the clone starts as a draft.
func (p *FitnessPlan) CloneForUser(userID primitive.ObjectID, startDate time.Time) *FitnessPlan {
	clone := *p
	clone.ID = primitive.NilObjectID
	clone.UserID = userID
	clone.Status = PlanDraft
	clone.Progress = PlanProgress{}
	clone.StartDate = startDate
	clone.EndDate = startDate.AddDate(0, 0, p.DurationWeeks*7)
	clone.IsTemplate = false

	clone.Weeks = make([]PlanWeek, len(p.Weeks))
	for i := range p.Weeks {
		clone.Weeks[i] = p.Weeks[i].resetCopy(startDate)
	}
	return &clone
}
