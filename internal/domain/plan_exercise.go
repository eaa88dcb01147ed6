package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseStatus mirrors the workout state machine at the prescription
// level. Completing every exercise does NOT cascade the workout status;
// each level owns its own transitions.
type ExerciseStatus string

const (
	ExercisePlanned    ExerciseStatus = "planned"
	ExerciseInProgress ExerciseStatus = "in_progress"
	ExerciseCompleted  ExerciseStatus = "completed"
	ExerciseSkipped    ExerciseStatus = "skipped"
	ExerciseModified   ExerciseStatus = "modified"
)

// CanTransitionTo reports whether the exercise state machine allows the move.
func (s ExerciseStatus) CanTransitionTo(target ExerciseStatus) bool {
	switch s {
	case ExercisePlanned:
		return target == ExerciseInProgress || target == ExerciseSkipped || target == ExerciseModified
	case ExerciseInProgress:
		return target == ExerciseCompleted || target == ExerciseSkipped || target == ExerciseModified
	default:
		return false
	}
}

// ProgressionDirection is the post-hoc suggestion derived from logged
// performance versus target.
type ProgressionDirection string

const (
	SuggestProgress ProgressionDirection = "progress"
	SuggestHold     ProgressionDirection = "hold"
	SuggestRegress  ProgressionDirection = "regress"
)

// PlanExercise is one prescription inside a workout. It references a
// catalog exercise by id/name and carries its own targets and logged
// actuals.
type PlanExercise struct {
	ExerciseID   primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	ExerciseName string             `bson:"exerciseName" json:"exerciseName"`
	Order        int                `bson:"order" json:"order"`
	MuscleGroup  string             `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"`
	IsCompound   bool               `bson:"isCompound" json:"isCompound"` // copied from the catalog at selection time

	TargetSets     int     `bson:"targetSets" json:"targetSets"`
	TargetRepsMin  int     `bson:"targetRepsMin" json:"targetRepsMin"`
	TargetRepsMax  int     `bson:"targetRepsMax" json:"targetRepsMax"`
	TargetWeightKg float64 `bson:"targetWeightKg,omitempty" json:"targetWeightKg,omitempty"`
	TargetDurationSec int  `bson:"targetDurationSec,omitempty" json:"targetDurationSec,omitempty"`
	RestSec        int     `bson:"restSec" json:"restSec"`
	Intensity      float64 `bson:"intensity" json:"intensity"` // 1..10

	Status ExerciseStatus `bson:"status" json:"status"`

	// Per-set actuals recorded as the user logs the workout.
	ActualReps    []int     `bson:"actualReps,omitempty" json:"actualReps,omitempty"`
	ActualWeights []float64 `bson:"actualWeights,omitempty" json:"actualWeights,omitempty"`
}

// Transition applies a status change, rejecting moves the state machine
// does not allow.
func (e *PlanExercise) Transition(target ExerciseStatus) bool {
	if !e.Status.CanTransitionTo(target) {
		return false
	}
	e.Status = target
	return true
}

// Volume approximates workload as Σ reps×weight over the logged sets,
// falling back to target sets×reps×weight when nothing is logged yet.
func (e *PlanExercise) Volume() float64 {
	if len(e.ActualReps) == 0 {
		return float64(e.TargetSets*e.TargetRepsMax) * e.TargetWeightKg
	}
	total := 0.0
	for i, reps := range e.ActualReps {
		w := e.TargetWeightKg
		if i < len(e.ActualWeights) {
			w = e.ActualWeights[i]
		}
		total += float64(reps) * w
	}
	return total
}

// IntensityLoad is volume scaled by the prescribed intensity, a coarse
// proxy for training stress.
func (e *PlanExercise) IntensityLoad() float64 {
	return e.Volume() * e.Intensity / 10
}

// Suggestion compares logged performance against target and recommends
// progressing, holding, or regressing the exercise next week. Hitting the
// top of the rep range on every set suggests progression; missing the
// bottom on most sets suggests regression.
func (e *PlanExercise) Suggestion() ProgressionDirection {
	if len(e.ActualReps) < e.TargetSets || e.TargetSets == 0 {
		return SuggestHold
	}
	hitTop, missedBottom := 0, 0
	for _, reps := range e.ActualReps {
		if reps >= e.TargetRepsMax {
			hitTop++
		}
		if reps < e.TargetRepsMin {
			missedBottom++
		}
	}
	switch {
	case hitTop == len(e.ActualReps):
		return SuggestProgress
	case missedBottom*2 > len(e.ActualReps):
		return SuggestRegress
	default:
		return SuggestHold
	}
}

func (e *PlanExercise) resetCopy() PlanExercise {
	c := *e
	c.Status = ExercisePlanned
	c.ActualReps = nil
	c.ActualWeights = nil
	return c
}
