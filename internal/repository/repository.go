package repository

import (
	"context"
	"time"

	"forgefit/fitness-engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrUpdateFailed  = RepositoryError("update failed")
	ErrDeleteFailed  = RepositoryError("delete failed")
	ErrDuplicate     = RepositoryError("duplicate entity")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, profile domain.FitnessProfile) error
}

// ExerciseFilter narrows catalog queries. Zero values mean "no filter".
type ExerciseFilter struct {
	MuscleGroup string
	Category    domain.ExerciseCategory
	Equipment   []string // candidate must require a subset of these (or nothing)
	MaxDifficulty domain.Difficulty
	Search      string // name/description text search
	Limit       int64
}

// ExerciseRepository defines the interface for interacting with the
// exercise catalog.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	List(ctx context.Context, filter ExerciseFilter) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// IncrementUsage bumps the usage counter on all given exercises.
	IncrementUsage(ctx context.Context, ids []primitive.ObjectID) error
	// ApplyRating folds a new rating into the running average:
	// avg' = (avg·n + rating)/(n+1).
	ApplyRating(ctx context.Context, id primitive.ObjectID, rating float64) error
}

// PlanFilter narrows plan listings.
type PlanFilter struct {
	Type            domain.PlanType
	Status          domain.PlanStatus
	ExperienceLevel domain.Difficulty
	Equipment       string
	MinWeeks        int
	MaxWeeks        int
	StartedAfter    *time.Time
	StartedBefore   *time.Time
	TemplatesOnly   bool
}

// PlanRepository defines the interface for the plan aggregate. The whole
// week→workout→exercise tree is stored with the plan, so single-document
// writes keep generation all-or-nothing.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.FitnessPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.FitnessPlan, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID, filter PlanFilter) ([]domain.FitnessPlan, error)
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.FitnessPlan, error)
	Update(ctx context.Context, plan *domain.FitnessPlan) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.PlanStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// Activate demotes any other ACTIVE plan of the same user to PAUSED and
	// activates the target in one repository operation, upholding the
	// single-active-plan invariant under concurrent activation.
	Activate(ctx context.Context, userID, planID primitive.ObjectID) error

	// ReplaceWeek swaps out one week's entire subtree.
	ReplaceWeek(ctx context.Context, planID primitive.ObjectID, week domain.PlanWeek) error

	// ListActiveUserIDs returns the distinct users holding an ACTIVE,
	// unexpired plan as of now. Feed for the weekly adaptation batch.
	ListActiveUserIDs(ctx context.Context, now time.Time) ([]primitive.ObjectID, error)

	CountByStatus(ctx context.Context, userID primitive.ObjectID) (map[domain.PlanStatus]int64, error)
}

// ActivityRepository is the append-only workout completion log.
type ActivityRepository interface {
	Append(ctx context.Context, entry *domain.ActivityLog) (primitive.ObjectID, error)
	GetByUserAndRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.ActivityLog, error)
}

// AdaptationEventRepository stores the audit trail of weekly runs.
type AdaptationEventRepository interface {
	Create(ctx context.Context, event *domain.AdaptationEvent) (primitive.ObjectID, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.AdaptationEvent, error)
}
