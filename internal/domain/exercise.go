// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty is the catalog-wide exercise difficulty scale.
// The ordering beginner < intermediate < advanced < expert matters for
// safety checks and intensity scoring; use Rank for comparisons.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

// Rank maps a difficulty to its position in the total order.
// Unknown values rank as beginner so a malformed catalog entry never
// outranks a real one.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyIntermediate:
		return 1
	case DifficultyAdvanced:
		return 2
	case DifficultyExpert:
		return 3
	default:
		return 0
	}
}

// ExerciseCategory groups catalog exercises by training modality.
type ExerciseCategory string

const (
	CategoryStrength    ExerciseCategory = "strength"
	CategoryCardio      ExerciseCategory = "cardio"
	CategoryFlexibility ExerciseCategory = "flexibility"
	CategoryBalance     ExerciseCategory = "balance"
	CategoryPlyometric  ExerciseCategory = "plyometric"
)

// Common muscle group identifiers used by split templates and filters.
const (
	MuscleChest     = "chest"
	MuscleBack      = "back"
	MuscleShoulders = "shoulders"
	MuscleBiceps    = "biceps"
	MuscleTriceps   = "triceps"
	MuscleLegs      = "legs"
	MuscleGlutes    = "glutes"
	MuscleCore      = "core"
	MuscleFullBody  = "full_body"
)

// Common equipment identifiers. Free-form strings are allowed in the
// catalog; these constants just keep built-in data consistent.
const (
	EquipmentBodyweight = "bodyweight"
	EquipmentDumbbell   = "dumbbell"
	EquipmentBarbell    = "barbell"
	EquipmentKettlebell = "kettlebell"
	EquipmentBands      = "resistance_bands"
	EquipmentMachine    = "machine"
	EquipmentPullUpBar  = "pull_up_bar"
	EquipmentBench      = "bench"
)

// Exercise is a catalog entry. It is created and approved by an admin,
// mutated only by usage/rating events, and referenced (never owned) by
// generated plans.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	Category         ExerciseCategory `bson:"category" json:"category"`
	Difficulty       Difficulty       `bson:"difficulty" json:"difficulty"`
	PrimaryMuscles   []string         `bson:"primaryMuscles" json:"primaryMuscles"`
	SecondaryMuscles []string         `bson:"secondaryMuscles,omitempty" json:"secondaryMuscles,omitempty"`
	Equipment        []string         `bson:"equipment,omitempty" json:"equipment,omitempty"` // empty = no equipment needed
	IsCompound       bool             `bson:"isCompound" json:"isCompound"`

	// Safety metadata consulted by the validator and the library's
	// suitability filter.
	Contraindications       []string `bson:"contraindications,omitempty" json:"contraindications,omitempty"`
	HealthConditionsToAvoid []string `bson:"healthConditionsToAvoid,omitempty" json:"healthConditionsToAvoid,omitempty"`
	InjuryWarnings          []string `bson:"injuryWarnings,omitempty" json:"injuryWarnings,omitempty"`

	// Default prescription used when the generator has nothing better.
	DefaultSets        int `bson:"defaultSets,omitempty" json:"defaultSets,omitempty"`
	DefaultReps        int `bson:"defaultReps,omitempty" json:"defaultReps,omitempty"`
	DefaultDurationSec int `bson:"defaultDurationSec,omitempty" json:"defaultDurationSec,omitempty"`
	DefaultRestSec     int `bson:"defaultRestSec,omitempty" json:"defaultRestSec,omitempty"`

	// Links to related catalog entries by name.
	Progressions []string `bson:"progressions,omitempty" json:"progressions,omitempty"`
	Regressions  []string `bson:"regressions,omitempty" json:"regressions,omitempty"`
	Alternatives []string `bson:"alternatives,omitempty" json:"alternatives,omitempty"`

	// Demo media object key in S3; presigned URLs are generated on demand.
	MediaObjectKey string `bson:"mediaObjectKey,omitempty" json:"-"`

	// Mutated by selection/rating events only.
	UsageCount    int64   `bson:"usageCount" json:"usageCount"`
	AverageRating float64 `bson:"averageRating" json:"averageRating"`
	RatingCount   int64   `bson:"ratingCount" json:"ratingCount"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// RequiresEquipment reports whether the exercise needs any equipment at all.
func (e *Exercise) RequiresEquipment() bool {
	return len(e.Equipment) > 0
}

// TargetsMuscle reports whether the given muscle group is a primary or
// secondary target of this exercise.
func (e *Exercise) TargetsMuscle(group string) bool {
	for _, m := range e.PrimaryMuscles {
		if m == group {
			return true
		}
	}
	for _, m := range e.SecondaryMuscles {
		if m == group {
			return true
		}
	}
	return false
}
