package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleAdmin Role = "admin" // manages the exercise catalog, can trigger adaptations
	RoleUser  Role = "user"  // owns plans and logged activity
)

// FitnessGoal captures what the user is primarily training for.
type FitnessGoal string

const (
	GoalWeightLoss     FitnessGoal = "weight_loss"
	GoalMuscleGain     FitnessGoal = "muscle_gain"
	GoalStrength       FitnessGoal = "strength"
	GoalEndurance      FitnessGoal = "endurance"
	GoalGeneralFitness FitnessGoal = "general_fitness"
)

// IntensityPreference is a coarse user preference consulted when scoring
// per-exercise intensity.
type IntensityPreference string

const (
	PreferLowIntensity      IntensityPreference = "low"
	PreferModerateIntensity IntensityPreference = "moderate"
	PreferHighIntensity     IntensityPreference = "high"
)

// User represents an account plus the fitness profile the engine
// consumes. The profile is filled during onboarding and replaced
// wholesale on update.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`

	Profile FitnessProfile `bson:"profile" json:"profile"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FitnessProfile is everything the generator and validator need to know
// about a person. All lists are free-text, matched case-insensitively.
type FitnessProfile struct {
	ExperienceLevel     Difficulty          `bson:"experienceLevel" json:"experienceLevel"`
	Age                 int                 `bson:"age,omitempty" json:"age,omitempty"`
	BodyweightKg        float64             `bson:"bodyweightKg,omitempty" json:"bodyweightKg,omitempty"`
	Goal                FitnessGoal         `bson:"goal,omitempty" json:"goal,omitempty"`
	IntensityPreference IntensityPreference `bson:"intensityPreference,omitempty" json:"intensityPreference,omitempty"`

	AvailableEquipment  []string `bson:"availableEquipment,omitempty" json:"availableEquipment,omitempty"`
	HealthConditions    []string `bson:"healthConditions,omitempty" json:"healthConditions,omitempty"`
	PhysicalLimitations []string `bson:"physicalLimitations,omitempty" json:"physicalLimitations,omitempty"`
	InjuryHistory       []string `bson:"injuryHistory,omitempty" json:"injuryHistory,omitempty"`
	DislikedExercises   []string `bson:"dislikedExercises,omitempty" json:"dislikedExercises,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
