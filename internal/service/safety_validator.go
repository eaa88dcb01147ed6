// internal/service/safety_validator.go
package service

import (
	"fmt"
	"strings"

	"forgefit/fitness-engine/internal/domain"
)

// Rule identifiers used in validation results. Tests and callers match on
// these instead of message text.
const (
	RuleHealthConditionConflict = "health_condition_conflict"
	RuleContraindication        = "contraindication_overlap"
	RuleInjuryHistory           = "injury_history_overlap"
	RuleDifficultyAboveLevel    = "difficulty_above_level"
	RuleAgeHighImpact           = "age_high_impact_caution"
	RuleAgeHeavyWeight          = "age_heavy_weight_caution"

	RuleTotalSetsCeiling   = "total_sets_ceiling"
	RuleTotalSetsApproach  = "total_sets_approaching_ceiling"
	RuleIntensityTooHigh   = "intensity_too_high"
	RuleBeginnerIntensity  = "beginner_high_intensity_volume"
	RuleDurationTooLong    = "duration_above_max"
	RuleDurationLong       = "duration_above_recommended"
	RuleDurationTooShort   = "duration_insufficient_stimulus"
	RulePushPullImbalance  = "push_pull_imbalance"
	RuleIsolationOrdering  = "isolation_before_compound"

	RuleDurationWeeksRange    = "duration_weeks_range"
	RuleFrequencyRange        = "frequency_range"
	RuleFrequencyBand         = "frequency_outside_level_band"
	RuleProgressionRate       = "progression_rate_aggressive"
	RuleDeloadCadence         = "deload_cadence_range"
	RulePlanTypeFrequency     = "plan_type_frequency_misalignment"
	RuleAgeAdvisory           = "age_advisory"

	RuleSetsRange        = "sets_range"
	RuleRepsRange        = "reps_range"
	RuleWeightNegative   = "weight_negative"
	RuleHighReps         = "high_reps"
	RuleLowRepsHighSets  = "low_reps_high_sets"
	RuleRelativeWeight   = "weight_high_relative_bodyweight"

	RuleAdaptationMalformed       = "adaptation_malformed"
	RuleAdaptationIntensityJump   = "adaptation_intensity_jump"
	RuleAdaptationVolumeJump      = "adaptation_volume_jump"
)

// Per-experience-level set ceilings for a single workout. Exceeding Max
// is an error, exceeding Warn is a warning.
type setLimits struct {
	Warn int
	Max  int
}

var setLimitsByLevel = map[domain.Difficulty]setLimits{
	domain.DifficultyBeginner:     {Warn: 10, Max: 12},
	domain.DifficultyIntermediate: {Warn: 15, Max: 18},
	domain.DifficultyAdvanced:     {Warn: 20, Max: 25},
	domain.DifficultyExpert:       {Warn: 25, Max: 30},
}

// Per-level workout duration bands in minutes: below Min warns
// (insufficient stimulus), above Max errors, between Warn and Max warns.
type durationBand struct {
	Min  int
	Warn int
	Max  int
}

var durationBandsByLevel = map[domain.Difficulty]durationBand{
	domain.DifficultyBeginner:     {Min: 20, Warn: 60, Max: 90},
	domain.DifficultyIntermediate: {Min: 25, Warn: 75, Max: 105},
	domain.DifficultyAdvanced:     {Min: 30, Warn: 90, Max: 120},
	domain.DifficultyExpert:       {Min: 40, Warn: 105, Max: 150},
}

// Soft weekly-frequency bands per experience level.
var frequencyBandsByLevel = map[domain.Difficulty][2]int{
	domain.DifficultyBeginner:     {2, 4},
	domain.DifficultyIntermediate: {3, 5},
	domain.DifficultyAdvanced:     {4, 6},
	domain.DifficultyExpert:       {4, 7},
}

// Soft frequency alignment per plan type.
var frequencyBandsByPlanType = map[domain.PlanType][2]int{
	domain.PlanWeightLoss:       {3, 6},
	domain.PlanMuscleBuilding:   {3, 6},
	domain.PlanStrengthBuilding: {3, 5},
	domain.PlanEndurance:        {3, 6},
	domain.PlanGeneralFitness:   {2, 5},
}

// Seconds a single rep takes, used by the duration estimate.
const secondsPerRep = 3

// Rest inserted between consecutive exercises, on top of inter-set rest.
const interExerciseRestSec = 60

// PlanParameters is the validator's (and generator's) view of a plan
// request; an existing plan maps onto it 1:1.
type PlanParameters struct {
	Type               domain.PlanType
	DurationWeeks      int
	WorkoutsPerWeek    int
	WorkoutDurationMin int
	Equipment          []string
	ProgressionRate    float64 // fraction per week
	DeloadFrequency    int     // every N weeks
}

// SafetyValidator is the stateless, deterministic rule engine. All
// methods are pure: no repository access, no side effects.
type SafetyValidator interface {
	ValidateExerciseForUser(exercise *domain.Exercise, profile *domain.FitnessProfile) *domain.ValidationResult
	ValidateWorkout(workout *domain.PlanWorkout, profile *domain.FitnessProfile) *domain.ValidationResult
	ValidateFitnessPlan(params PlanParameters, profile *domain.FitnessProfile) *domain.ValidationResult
	ValidateExerciseParameters(name string, sets, reps int, weightKg float64, profile *domain.FitnessProfile) *domain.ValidationResult
	ValidateAdaptation(adaptation *domain.Adaptation, profile *domain.FitnessProfile) *domain.ValidationResult
}

type safetyValidator struct{}

// NewSafetyValidator creates the stateless rule engine.
func NewSafetyValidator() SafetyValidator {
	return &safetyValidator{}
}

// ValidateExerciseForUser checks one catalog exercise against a profile.
// Only a health-condition conflict is a hard failure; everything else is
// advisory.
func (v *safetyValidator) ValidateExerciseForUser(exercise *domain.Exercise, profile *domain.FitnessProfile) *domain.ValidationResult {
	result := domain.NewValidationResult()

	if ConditionsConflict(exercise.HealthConditionsToAvoid, profile.HealthConditions) {
		result.AddError(RuleHealthConditionConflict,
			fmt.Sprintf("%s conflicts with a reported health condition", exercise.Name))
	}
	if ConditionsConflict(exercise.Contraindications, profile.PhysicalLimitations) {
		result.AddWarning(RuleContraindication,
			fmt.Sprintf("%s is contraindicated for a reported physical limitation", exercise.Name))
	}
	if ConditionsConflict(exercise.InjuryWarnings, profile.InjuryHistory) {
		result.AddWarning(RuleInjuryHistory,
			fmt.Sprintf("%s carries an injury warning matching your injury history", exercise.Name))
	}
	if exercise.Difficulty.Rank() > profile.ExperienceLevel.Rank() {
		result.AddWarning(RuleDifficultyAboveLevel,
			fmt.Sprintf("%s is rated %s, above your %s level", exercise.Name, exercise.Difficulty, profile.ExperienceLevel))
	}

	if profile.Age >= 65 && isHighImpact(exercise) {
		result.AddWarning(RuleAgeHighImpact,
			fmt.Sprintf("%s is high impact; consider a low-impact alternative at age %d", exercise.Name, profile.Age))
	}
	if profile.Age > 0 && profile.Age < 18 && usesHeavyWeight(exercise) {
		result.AddWarning(RuleAgeHeavyWeight,
			fmt.Sprintf("%s involves heavy loading; prioritize technique before age 18", exercise.Name))
	}

	return result
}

// ValidateWorkout checks an assembled workout's volume, intensity,
// estimated duration, movement balance, and ordering.
func (v *safetyValidator) ValidateWorkout(workout *domain.PlanWorkout, profile *domain.FitnessProfile) *domain.ValidationResult {
	result := domain.NewValidationResult()
	level := profile.ExperienceLevel

	limits, ok := setLimitsByLevel[level]
	if !ok {
		limits = setLimitsByLevel[domain.DifficultyBeginner]
	}

	totalSets := workout.TotalSets()
	if totalSets > limits.Max {
		result.AddError(RuleTotalSetsCeiling,
			fmt.Sprintf("%d total sets exceeds the %d-set ceiling for %s level", totalSets, limits.Max, level))
	} else if totalSets > limits.Warn {
		result.AddWarning(RuleTotalSetsApproach,
			fmt.Sprintf("%d total sets is close to the %d-set ceiling for %s level", totalSets, limits.Max, level))
	}

	// Mean per-exercise intensity.
	if len(workout.Exercises) > 0 {
		sum := 0.0
		hard := 0
		for i := range workout.Exercises {
			sum += workout.Exercises[i].Intensity
			if workout.Exercises[i].Intensity >= 8 {
				hard++
			}
		}
		mean := sum / float64(len(workout.Exercises))
		if mean > 9 {
			result.AddWarning(RuleIntensityTooHigh,
				fmt.Sprintf("average intensity %.1f/10 leaves no recovery headroom", mean))
		}
		if level == domain.DifficultyBeginner && hard > 3 {
			result.AddWarning(RuleBeginnerIntensity,
				fmt.Sprintf("%d exercises at intensity 8+ is a lot for a beginner", hard))
		}
	}

	band, ok := durationBandsByLevel[level]
	if !ok {
		band = durationBandsByLevel[domain.DifficultyBeginner]
	}
	estimated := EstimateWorkoutMinutes(workout)
	switch {
	case estimated > band.Max:
		result.AddError(RuleDurationTooLong,
			fmt.Sprintf("estimated %d min exceeds the %d min maximum for %s level", estimated, band.Max, level))
	case estimated > band.Warn:
		result.AddWarning(RuleDurationLong,
			fmt.Sprintf("estimated %d min is above the recommended %d min for %s level", estimated, band.Warn, level))
	case estimated < band.Min && len(workout.Exercises) > 0:
		result.AddWarning(RuleDurationTooShort,
			fmt.Sprintf("estimated %d min is below the %d min needed for a training stimulus", estimated, band.Min))
	}

	push, pull := countPushPull(workout)
	if push > 0 && pull > 0 {
		ratio := float64(push) / float64(pull)
		if ratio > 1.5 || ratio < 1.0/1.5 {
			result.AddWarning(RulePushPullImbalance,
				fmt.Sprintf("push/pull split of %d/%d exercises is skewed", push, pull))
		}
	}

	if isolationBeforeCompound(workout) {
		result.AddWarning(RuleIsolationOrdering,
			"isolation work is scheduled before compound lifts; compounds first preserves performance")
	}

	return result
}

// ValidateFitnessPlan checks whole-plan parameters. Frequency outside
// [1,7] is the only hard failure; the rest is advisory.
func (v *safetyValidator) ValidateFitnessPlan(params PlanParameters, profile *domain.FitnessProfile) *domain.ValidationResult {
	result := domain.NewValidationResult()

	if params.DurationWeeks < 4 || params.DurationWeeks > 52 {
		result.AddWarning(RuleDurationWeeksRange,
			fmt.Sprintf("%d weeks is outside the typical 4-52 week program length", params.DurationWeeks))
	}

	if params.WorkoutsPerWeek < 1 || params.WorkoutsPerWeek > 7 {
		result.AddError(RuleFrequencyRange,
			fmt.Sprintf("%d workouts per week is not schedulable", params.WorkoutsPerWeek))
	} else {
		if band, ok := frequencyBandsByLevel[profile.ExperienceLevel]; ok {
			if params.WorkoutsPerWeek < band[0] || params.WorkoutsPerWeek > band[1] {
				result.AddWarning(RuleFrequencyBand,
					fmt.Sprintf("%d workouts/week is outside the %d-%d band for %s level",
						params.WorkoutsPerWeek, band[0], band[1], profile.ExperienceLevel))
			}
		}
		if band, ok := frequencyBandsByPlanType[params.Type]; ok {
			if params.WorkoutsPerWeek < band[0] || params.WorkoutsPerWeek > band[1] {
				result.AddWarning(RulePlanTypeFrequency,
					fmt.Sprintf("%s plans usually run %d-%d workouts/week, not %d",
						params.Type, band[0], band[1], params.WorkoutsPerWeek))
			}
		}
	}

	if params.ProgressionRate > 0.15 {
		result.AddWarning(RuleProgressionRate,
			fmt.Sprintf("progression of %.0f%%/week outpaces recovery for most lifters", params.ProgressionRate*100))
	}
	if params.DeloadFrequency != 0 && (params.DeloadFrequency < 3 || params.DeloadFrequency > 8) {
		result.AddWarning(RuleDeloadCadence,
			fmt.Sprintf("deload every %d weeks is outside the usual 3-8 week cadence", params.DeloadFrequency))
	}

	// Advisory only; never blocks a plan.
	if profile.Age >= 65 {
		result.AddWarning(RuleAgeAdvisory,
			"favor low-impact work and longer recovery windows at 65+")
	} else if profile.Age > 0 && profile.Age < 18 {
		result.AddWarning(RuleAgeAdvisory,
			"focus on technique and bodyweight strength before 18")
	}

	return result
}

// ValidateExerciseParameters checks ad-hoc set/rep/weight prescriptions.
func (v *safetyValidator) ValidateExerciseParameters(name string, sets, reps int, weightKg float64, profile *domain.FitnessProfile) *domain.ValidationResult {
	result := domain.NewValidationResult()

	if sets < 1 || sets > 10 {
		result.AddError(RuleSetsRange, fmt.Sprintf("%d sets for %s is outside the 1-10 range", sets, name))
	}
	if reps < 1 || reps > 100 {
		result.AddError(RuleRepsRange, fmt.Sprintf("%d reps for %s is outside the 1-100 range", reps, name))
	}
	if weightKg < 0 {
		result.AddError(RuleWeightNegative, "weight cannot be negative")
	}

	if reps > 30 && reps <= 100 {
		result.AddWarning(RuleHighReps,
			fmt.Sprintf("%d reps shifts %s into pure endurance territory", reps, name))
	}
	if reps >= 1 && reps < 3 && sets > 5 {
		result.AddWarning(RuleLowRepsHighSets,
			fmt.Sprintf("%d sets of %d reps is a very heavy protocol; confirm it's intended", sets, reps))
	}
	if profile.BodyweightKg > 0 && weightKg > 3*profile.BodyweightKg {
		result.AddWarning(RuleRelativeWeight,
			fmt.Sprintf("%.0fkg is very high relative to body weight (%.0fkg)", weightKg, profile.BodyweightKg))
	}

	return result
}

// ValidateAdaptation gates proposed program changes. Rule-based and
// AI-sourced candidates both pass through here.
func (v *safetyValidator) ValidateAdaptation(adaptation *domain.Adaptation, profile *domain.FitnessProfile) *domain.ValidationResult {
	result := domain.NewValidationResult()

	if adaptation == nil {
		result.AddError(RuleAdaptationMalformed, "adaptation is empty")
		return result
	}
	if adaptation.Type == "" || adaptation.Description == "" {
		result.AddError(RuleAdaptationMalformed, "adaptation requires a type and description")
		return result
	}
	switch adaptation.Type {
	case domain.AdaptVolumeReduction, domain.AdaptVolumeIncrease, domain.AdaptIntensityChange,
		domain.AdaptRestAdjustment, domain.AdaptExerciseSwap, domain.AdaptDeload, domain.AdaptProgression:
	default:
		result.AddError(RuleAdaptationMalformed, fmt.Sprintf("unknown adaptation type %q", adaptation.Type))
		return result
	}

	maxIntensityJump := 10.0
	if profile.ExperienceLevel == domain.DifficultyBeginner {
		maxIntensityJump = 5.0
	}
	if adaptation.IntensityChangePercent > maxIntensityJump {
		result.AddError(RuleAdaptationIntensityJump,
			fmt.Sprintf("+%.0f%% intensity in one week exceeds the %.0f%% safety bound",
				adaptation.IntensityChangePercent, maxIntensityJump))
	}
	if adaptation.VolumeChangePercent > 15 {
		result.AddError(RuleAdaptationVolumeJump,
			fmt.Sprintf("+%.0f%% volume in one week exceeds the 15%% safety bound", adaptation.VolumeChangePercent))
	}

	return result
}

// EstimateWorkoutMinutes approximates session length as
// Σ sets·(rep time + rest) per exercise, plus rest between exercises.
func EstimateWorkoutMinutes(workout *domain.PlanWorkout) int {
	totalSec := 0
	for i := range workout.Exercises {
		ex := &workout.Exercises[i]
		perSet := ex.TargetRepsMax*secondsPerRep + ex.RestSec
		if ex.TargetDurationSec > 0 {
			perSet = ex.TargetDurationSec + ex.RestSec
		}
		totalSec += ex.TargetSets * perSet
	}
	if n := len(workout.Exercises); n > 1 {
		totalSec += (n - 1) * interExerciseRestSec
	}
	return totalSec / 60
}

var pushTokens = []string{"press", "push", "bench", "dip", "fly", "extension"}
var pullTokens = []string{"row", "pull", "curl", "chin", "shrug", "deadlift"}

func countPushPull(workout *domain.PlanWorkout) (push, pull int) {
	for i := range workout.Exercises {
		name := strings.ToLower(workout.Exercises[i].ExerciseName)
		for _, t := range pushTokens {
			if strings.Contains(name, t) {
				push++
				break
			}
		}
		for _, t := range pullTokens {
			if strings.Contains(name, t) {
				pull++
				break
			}
		}
	}
	return push, pull
}

func isolationBeforeCompound(workout *domain.PlanWorkout) bool {
	seenIsolation := false
	for i := range workout.Exercises {
		if workout.Exercises[i].IsCompound {
			if seenIsolation {
				return true
			}
		} else {
			seenIsolation = true
		}
	}
	return false
}

func isHighImpact(exercise *domain.Exercise) bool {
	if exercise.Category == domain.CategoryPlyometric || exercise.Category == domain.CategoryCardio {
		return true
	}
	name := strings.ToLower(exercise.Name)
	return strings.Contains(name, "jump") || strings.Contains(name, "sprint")
}

func usesHeavyWeight(exercise *domain.Exercise) bool {
	for _, eq := range exercise.Equipment {
		if eq == domain.EquipmentBarbell {
			return true
		}
	}
	return false
}
