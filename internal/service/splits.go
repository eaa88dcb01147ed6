package service

import "forgefit/fitness-engine/internal/domain"

// SplitDay is one training day of a weekly split template.
type SplitDay struct {
	Name         string
	MuscleGroups []string
	Type         domain.WorkoutType
}

// splitTemplates maps workoutsPerWeek to an ordered muscle-group split.
// New splits are data, not code; unmapped frequencies fall back to the
// 3-day template via SplitFor.
var splitTemplates = map[int][]SplitDay{
	3: {
		{Name: "Push Day", MuscleGroups: []string{domain.MuscleChest, domain.MuscleShoulders, domain.MuscleTriceps}, Type: domain.WorkoutTypeStrength},
		{Name: "Pull Day", MuscleGroups: []string{domain.MuscleBack, domain.MuscleBiceps, domain.MuscleCore}, Type: domain.WorkoutTypeStrength},
		{Name: "Leg Day", MuscleGroups: []string{domain.MuscleLegs, domain.MuscleGlutes, domain.MuscleCore}, Type: domain.WorkoutTypeStrength},
	},
	4: {
		{Name: "Chest & Triceps", MuscleGroups: []string{domain.MuscleChest, domain.MuscleTriceps}, Type: domain.WorkoutTypeStrength},
		{Name: "Back & Biceps", MuscleGroups: []string{domain.MuscleBack, domain.MuscleBiceps}, Type: domain.WorkoutTypeStrength},
		{Name: "Shoulders & Core", MuscleGroups: []string{domain.MuscleShoulders, domain.MuscleCore}, Type: domain.WorkoutTypeStrength},
		{Name: "Legs & Glutes", MuscleGroups: []string{domain.MuscleLegs, domain.MuscleGlutes}, Type: domain.WorkoutTypeStrength},
	},
	5: {
		{Name: "Chest", MuscleGroups: []string{domain.MuscleChest}, Type: domain.WorkoutTypeStrength},
		{Name: "Back", MuscleGroups: []string{domain.MuscleBack}, Type: domain.WorkoutTypeStrength},
		{Name: "Shoulders & Core", MuscleGroups: []string{domain.MuscleShoulders, domain.MuscleCore}, Type: domain.WorkoutTypeStrength},
		{Name: "Legs & Glutes", MuscleGroups: []string{domain.MuscleLegs, domain.MuscleGlutes}, Type: domain.WorkoutTypeStrength},
		{Name: "Arms", MuscleGroups: []string{domain.MuscleBiceps, domain.MuscleTriceps}, Type: domain.WorkoutTypeStrength},
	},
}

// defaultSplitDays is the fallback for frequencies without a dedicated
// template; days are reused cyclically when the frequency exceeds the
// template length.
const defaultSplitDays = 3

// SplitFor returns the ordered split for a weekly frequency. Frequencies
// without a template reuse the 3-day split, cycling days as needed.
func SplitFor(workoutsPerWeek int) []SplitDay {
	if tpl, ok := splitTemplates[workoutsPerWeek]; ok {
		return tpl
	}
	base := splitTemplates[defaultSplitDays]
	if workoutsPerWeek <= 0 {
		return nil
	}
	days := make([]SplitDay, workoutsPerWeek)
	for i := 0; i < workoutsPerWeek; i++ {
		days[i] = base[i%len(base)]
	}
	return days
}

// typeModifiers are the plan-type volume/intensity multipliers applied
// during generation.
type typeModifiers struct {
	Sets      float64
	Intensity float64
}

var modifiersByPlanType = map[domain.PlanType]typeModifiers{
	domain.PlanWeightLoss:       {Sets: 0.8, Intensity: 0.9},
	domain.PlanMuscleBuilding:   {Sets: 1.1, Intensity: 1.0},
	domain.PlanStrengthBuilding: {Sets: 1.0, Intensity: 1.2},
	domain.PlanEndurance:        {Sets: 0.9, Intensity: 0.8},
	domain.PlanGeneralFitness:   {Sets: 1.0, Intensity: 1.0},
}

// ModifiersFor returns the plan-type multipliers, defaulting to neutral.
func ModifiersFor(planType domain.PlanType) typeModifiers {
	if m, ok := modifiersByPlanType[planType]; ok {
		return m
	}
	return typeModifiers{Sets: 1.0, Intensity: 1.0}
}

// Per-level volume budgets used by the generator: maximum sets per
// workout (mirrors the validator ceilings) and per muscle group.
var maxSetsPerMuscleGroup = map[domain.Difficulty]int{
	domain.DifficultyBeginner:     6,
	domain.DifficultyIntermediate: 8,
	domain.DifficultyAdvanced:     10,
	domain.DifficultyExpert:       12,
}

// intensityDeltaByPlanType shifts the base per-exercise intensity score.
var intensityDeltaByPlanType = map[domain.PlanType]float64{
	domain.PlanStrengthBuilding: 1,
	domain.PlanMuscleBuilding:   0.5,
	domain.PlanWeightLoss:       0,
	domain.PlanEndurance:        -1,
	domain.PlanGeneralFitness:   0,
}

// goalForPlanType maps the plan type onto the suitability-ordering goal.
func goalForPlanType(t domain.PlanType) domain.FitnessGoal {
	switch t {
	case domain.PlanStrengthBuilding:
		return domain.GoalStrength
	case domain.PlanMuscleBuilding:
		return domain.GoalMuscleGain
	case domain.PlanWeightLoss:
		return domain.GoalWeightLoss
	case domain.PlanEndurance:
		return domain.GoalEndurance
	default:
		return domain.GoalGeneralFitness
	}
}
