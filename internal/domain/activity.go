package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityLog is an append-only record of a workout attempt. The weekly
// adaptation job queries these by user and date range.
type ActivityLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	PlanID    primitive.ObjectID `bson:"planId,omitempty" json:"planId,omitempty"`
	WorkoutID primitive.ObjectID `bson:"workoutId" json:"workoutId"`

	Completed   bool    `bson:"completed" json:"completed"`
	Intensity   float64 `bson:"intensity,omitempty" json:"intensity,omitempty"` // RPE 1..10
	DurationMin int     `bson:"durationMin,omitempty" json:"durationMin,omitempty"`

	LoggedAt time.Time `bson:"loggedAt" json:"loggedAt"`
}
