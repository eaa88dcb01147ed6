package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutStatus is the per-workout state machine:
// planned → in_progress → {completed, skipped, modified}.
// It is correlated with, but never implicitly driven by, exercise status.
type WorkoutStatus string

const (
	WorkoutPlanned    WorkoutStatus = "planned"
	WorkoutInProgress WorkoutStatus = "in_progress"
	WorkoutCompleted  WorkoutStatus = "completed"
	WorkoutSkipped    WorkoutStatus = "skipped"
	WorkoutModified   WorkoutStatus = "modified"
)

// CanTransitionTo reports whether the workout state machine allows the move.
func (s WorkoutStatus) CanTransitionTo(target WorkoutStatus) bool {
	switch s {
	case WorkoutPlanned:
		return target == WorkoutInProgress || target == WorkoutSkipped || target == WorkoutModified
	case WorkoutInProgress:
		return target == WorkoutCompleted || target == WorkoutSkipped || target == WorkoutModified
	default:
		return false
	}
}

// WorkoutType is a coarse label for the session's focus.
type WorkoutType string

const (
	WorkoutTypeStrength WorkoutType = "strength"
	WorkoutTypeCardio   WorkoutType = "cardio"
	WorkoutTypeMixed    WorkoutType = "mixed"
	WorkoutTypeMobility WorkoutType = "mobility"
)

// PlanWorkout is a single scheduled session. Owned by PlanWeek, owns its
// exercise prescriptions.
type PlanWorkout struct {
	ID        primitive.ObjectID `bson:"id" json:"id"` // stable id for activity-log correlation
	DayOfWeek int                `bson:"dayOfWeek" json:"dayOfWeek"` // 1 (Mon) - 7 (Sun)
	Name      string             `bson:"name" json:"name"`
	Type      WorkoutType        `bson:"type" json:"type"`

	TargetMuscleGroups []string `bson:"targetMuscleGroups" json:"targetMuscleGroups"`

	EstimatedDurationMin int     `bson:"estimatedDurationMin" json:"estimatedDurationMin"`
	EstimatedIntensity   float64 `bson:"estimatedIntensity" json:"estimatedIntensity"` // 1..10
	EstimatedCalories    int     `bson:"estimatedCalories" json:"estimatedCalories"`   // coarse heuristic

	Status WorkoutStatus `bson:"status" json:"status"`

	// Completion aggregates, filled when progress is recorded.
	CompletedAt       *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	ActualDurationMin int        `bson:"actualDurationMin,omitempty" json:"actualDurationMin,omitempty"`
	ActualIntensity   float64    `bson:"actualIntensity,omitempty" json:"actualIntensity,omitempty"` // RPE 1..10
	SetsCompleted     int        `bson:"setsCompleted,omitempty" json:"setsCompleted,omitempty"`

	Exercises []PlanExercise `bson:"exercises,omitempty" json:"exercises,omitempty"`
}

// TotalSets sums target sets across the workout's exercises.
func (w *PlanWorkout) TotalSets() int {
	n := 0
	for i := range w.Exercises {
		n += w.Exercises[i].TargetSets
	}
	return n
}

// Transition applies a status change, rejecting moves the state machine
// does not allow.
func (w *PlanWorkout) Transition(target WorkoutStatus) bool {
	if !w.Status.CanTransitionTo(target) {
		return false
	}
	w.Status = target
	return true
}

func (w *PlanWorkout) resetCopy() PlanWorkout {
	c := *w
	c.ID = primitive.NewObjectID()
	c.Status = WorkoutPlanned
	c.CompletedAt = nil
	c.ActualDurationMin = 0
	c.ActualIntensity = 0
	c.SetsCompleted = 0
	c.Exercises = make([]PlanExercise, len(w.Exercises))
	for i := range w.Exercises {
		c.Exercises[i] = w.Exercises[i].resetCopy()
	}
	return c
}
