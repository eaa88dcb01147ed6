package domain

import "time"

// WeekType marks the role a week plays in the periodization cycle.
type WeekType string

const (
	WeekNormal     WeekType = "normal"
	WeekDeload     WeekType = "deload"
	WeekPeak       WeekType = "peak"
	WeekRecovery   WeekType = "recovery"
	WeekAssessment WeekType = "assessment"
)

// PlanWeek is one week of a plan. Owned by FitnessPlan, owns its Workouts.
type PlanWeek struct {
	Number int      `bson:"number" json:"number"` // 1-based
	Type   WeekType `bson:"type" json:"type"`

	StartDate time.Time `bson:"startDate" json:"startDate"`
	EndDate   time.Time `bson:"endDate" json:"endDate"`

	// Modifiers applied relative to the plan baseline. 1.0 = unchanged.
	IntensityModifier float64 `bson:"intensityModifier" json:"intensityModifier"`
	VolumeModifier    float64 `bson:"volumeModifier" json:"volumeModifier"`

	// Wellness/feedback signals gathered during the week; consulted when
	// recommending a deload.
	ReportedFatigue  int    `bson:"reportedFatigue,omitempty" json:"reportedFatigue,omitempty"` // RPE-style 1..10
	ReportedSleep    int    `bson:"reportedSleep,omitempty" json:"reportedSleep,omitempty"`     // hours/night
	FeedbackNotes    string `bson:"feedbackNotes,omitempty" json:"feedbackNotes,omitempty"`
	CompletedWorkouts int   `bson:"completedWorkouts" json:"completedWorkouts"`

	Workouts []PlanWorkout `bson:"workouts,omitempty" json:"workouts,omitempty"`
}

// IsDeload reports whether this is a reduced-load week.
func (w *PlanWeek) IsDeload() bool {
	return w.Type == WeekDeload || w.Type == WeekRecovery
}

// TotalSets sums target sets across all workouts in the week.
func (w *PlanWeek) TotalSets() int {
	n := 0
	for i := range w.Workouts {
		n += w.Workouts[i].TotalSets()
	}
	return n
}

// resetCopy returns a copy with progress fields cleared and dates shifted
// to a new plan start. Used by plan cloning.
func (w *PlanWeek) resetCopy(planStart time.Time) PlanWeek {
	c := *w
	c.StartDate = planStart.AddDate(0, 0, (w.Number-1)*7)
	c.EndDate = c.StartDate.AddDate(0, 0, 7)
	c.ReportedFatigue = 0
	c.ReportedSleep = 0
	c.FeedbackNotes = ""
	c.CompletedWorkouts = 0
	c.Workouts = make([]PlanWorkout, len(w.Workouts))
	for i := range w.Workouts {
		c.Workouts[i] = w.Workouts[i].resetCopy()
	}
	return c
}
