// internal/domain/adaptation.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdaptationType classifies a proposed change to next week's program.
type AdaptationType string

const (
	AdaptVolumeReduction  AdaptationType = "volume_reduction"
	AdaptVolumeIncrease   AdaptationType = "volume_increase"
	AdaptIntensityChange  AdaptationType = "intensity_change"
	AdaptRestAdjustment   AdaptationType = "rest_adjustment"
	AdaptExerciseSwap     AdaptationType = "exercise_swap"
	AdaptDeload           AdaptationType = "deload"
	AdaptProgression      AdaptationType = "progression"
)

// Adaptation is a single proposed program change. Candidates come from
// the rule engine or the AI reasoning strategy and must pass safety
// validation before being applied.
type Adaptation struct {
	Type        AdaptationType `bson:"type" json:"type"`
	Description string         `bson:"description" json:"description"`
	Reason      string         `bson:"reason" json:"reason"`
	Impact      string         `bson:"impact,omitempty" json:"impact,omitempty"`

	// Percent deltas, positive = increase. Only ones relevant to Type are set.
	VolumeChangePercent    float64 `bson:"volumeChangePercent,omitempty" json:"volumeChangePercent,omitempty"`
	IntensityChangePercent float64 `bson:"intensityChangePercent,omitempty" json:"intensityChangePercent,omitempty"`

	// For exercise swaps: names to replace.
	SwapExercises []string `bson:"swapExercises,omitempty" json:"swapExercises,omitempty"`

	FromAI bool `bson:"fromAI,omitempty" json:"fromAI,omitempty"`
}

// AdherenceAnalysis summarizes the last seven days of logged activity.
type AdherenceAnalysis struct {
	ScheduledWorkouts int     `json:"scheduledWorkouts"`
	CompletedWorkouts int     `json:"completedWorkouts"`
	AdherenceScore    float64 `json:"adherenceScore"`   // 0..100
	AvgIntensity      float64 `json:"avgIntensity"`     // RPE over logged sessions
	AvgDurationMin    float64 `json:"avgDurationMin"`
	ConsistencyScore  float64 `json:"consistencyScore"` // 100·distinct logged days / 7
}

// RecoveryIndicators flag overtraining risk and deload need.
type RecoveryIndicators struct {
	PotentialOvertraining bool `json:"potentialOvertraining"`
	RecommendedDeload     bool `json:"recommendedDeload"`
}

// Deficiencies are the gaps derived from the adherence analysis.
type Deficiencies struct {
	VolumeDeficiency    float64            `json:"volumeDeficiency"`    // 0..100
	IntensityDeficiency float64            `json:"intensityDeficiency"` // 0..100
	WeakMuscleGroups    []string           `json:"weakMuscleGroups,omitempty"`
	MissedWorkoutTypes  []string           `json:"missedWorkoutTypes,omitempty"`
	Recovery            RecoveryIndicators `json:"recovery"`
}

// DifficultyDirection summarizes how next week compares to the current one.
type DifficultyDirection string

const (
	DirectionEasier DifficultyDirection = "easier"
	DirectionSame   DifficultyDirection = "same"
	DirectionHarder DifficultyDirection = "harder"
)

// WeekSummary describes the regenerated week.
type WeekSummary struct {
	WeekNumber       int                 `json:"weekNumber"`
	WorkoutCount     int                 `json:"workoutCount"`
	EstimatedMinutes int                 `json:"estimatedMinutes"`
	NewExercises     int                 `json:"newExercises"`
	Direction        DifficultyDirection `json:"direction"`
}

// RecommendationPriority orders coaching output for the user.
type RecommendationPriority string

const (
	PriorityLow    RecommendationPriority = "low"
	PriorityMedium RecommendationPriority = "medium"
	PriorityHigh   RecommendationPriority = "high"
)

// Recommendation is a coaching tip emitted alongside an adaptation run.
type Recommendation struct {
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Priority RecommendationPriority `json:"priority"`
	DueDate  time.Time              `json:"dueDate"`
}

// MeasurementRequest asks the user for a check-in (weigh-in, retest).
type MeasurementRequest struct {
	Kind     string                 `json:"kind"` // "weight_checkin", "fitness_retest"
	Reason   string                 `json:"reason"`
	Priority RecommendationPriority `json:"priority"`
	DueDate  time.Time              `json:"dueDate"`
}

// AdaptationResult is the per-user outcome of a weekly run. A user with
// no active plan yields a result with NoActivePlan set, not an error.
type AdaptationResult struct {
	UserID       primitive.ObjectID   `json:"userId"`
	PlanID       primitive.ObjectID   `json:"planId,omitempty"`
	NoActivePlan bool                 `json:"noActivePlan,omitempty"`
	Adherence    AdherenceAnalysis    `json:"adherence"`
	Deficiencies Deficiencies         `json:"deficiencies"`
	Applied      []Adaptation         `json:"applied,omitempty"`
	Rejected     []Adaptation         `json:"rejected,omitempty"`
	NextWeek     *WeekSummary         `json:"nextWeek,omitempty"`
	Recommendations []Recommendation  `json:"recommendations,omitempty"`
	Measurements []MeasurementRequest `json:"measurements,omitempty"`
}

// AdaptationEvent is the persisted audit record of one adaptation run.
type AdaptationEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID   string             `bson:"eventId" json:"eventId"` // uuid, stable across retries
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	PlanID    primitive.ObjectID `bson:"planId,omitempty" json:"planId,omitempty"`
	WeekNumber int               `bson:"weekNumber,omitempty" json:"weekNumber,omitempty"`

	Adherence    AdherenceAnalysis `bson:"adherence" json:"adherence"`
	Deficiencies Deficiencies      `bson:"deficiencies" json:"deficiencies"`
	Applied      []Adaptation      `bson:"applied,omitempty" json:"applied,omitempty"`
	Rejected     []Adaptation      `bson:"rejected,omitempty" json:"rejected,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
