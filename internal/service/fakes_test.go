package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes shared by the service tests.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	copied := *user
	r.users[user.ID] = &copied
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, profile domain.FitnessProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Profile = profile
	return nil
}

type fakeExerciseRepo struct {
	mu        sync.Mutex
	exercises map[primitive.ObjectID]*domain.Exercise

	failIncrement bool // simulate a usage-counter write failure
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: map[primitive.ObjectID]*domain.Exercise{}}
}

func (r *fakeExerciseRepo) Create(ctx context.Context, ex *domain.Exercise) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex.ID = primitive.NewObjectID()
	ex.CreatedAt = time.Now().UTC()
	ex.UpdatedAt = ex.CreatedAt
	copied := *ex
	r.exercises[ex.ID] = &copied
	return ex.ID, nil
}

func (r *fakeExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *ex
	return &copied, nil
}

// List mirrors the mongo repo's filter semantics: equipment must be a
// subset of the available set (or empty) and difficulty at most the cap.
func (r *fakeExerciseRepo) List(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	available := map[string]bool{}
	for _, eq := range filter.Equipment {
		available[eq] = true
	}

	var out []domain.Exercise
	for _, ex := range r.exercises {
		if len(filter.Equipment) > 0 {
			ok := true
			for _, eq := range ex.Equipment {
				if !available[eq] {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
		}
		if filter.MaxDifficulty != "" && ex.Difficulty.Rank() > filter.MaxDifficulty.Rank() {
			continue
		}
		if filter.MuscleGroup != "" && !ex.TargetsMuscle(filter.MuscleGroup) {
			continue
		}
		if filter.Category != "" && ex.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(ex.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *ex)
	}
	return out, nil
}

func (r *fakeExerciseRepo) Update(ctx context.Context, ex *domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[ex.ID]; !ok {
		return repository.ErrNotFound
	}
	ex.UpdatedAt = time.Now().UTC()
	copied := *ex
	r.exercises[ex.ID] = &copied
	return nil
}

func (r *fakeExerciseRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

func (r *fakeExerciseRepo) IncrementUsage(ctx context.Context, ids []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failIncrement {
		return repository.ErrUpdateFailed
	}
	for _, id := range ids {
		if ex, ok := r.exercises[id]; ok {
			ex.UsageCount++
		}
	}
	return nil
}

func (r *fakeExerciseRepo) ApplyRating(ctx context.Context, id primitive.ObjectID, rating float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	ex.AverageRating = (ex.AverageRating*float64(ex.RatingCount) + rating) / float64(ex.RatingCount+1)
	ex.RatingCount++
	return nil
}

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[primitive.ObjectID]*domain.FitnessPlan

	failCreate bool // simulate a write failure
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[primitive.ObjectID]*domain.FitnessPlan{}}
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *domain.FitnessPlan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return primitive.NilObjectID, repository.ErrUpdateFailed
	}
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now().UTC()
	plan.UpdatedAt = plan.CreatedAt
	copied := clonePlan(plan)
	r.plans[plan.ID] = copied
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.FitnessPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePlan(p), nil
}

func (r *fakePlanRepo) GetByUser(ctx context.Context, userID primitive.ObjectID, filter repository.PlanFilter) ([]domain.FitnessPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FitnessPlan
	for _, p := range r.plans {
		if userID != primitive.NilObjectID && p.UserID != userID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.TemplatesOnly && !p.IsTemplate {
			continue
		}
		if filter.MinWeeks > 0 && p.DurationWeeks < filter.MinWeeks {
			continue
		}
		if filter.MaxWeeks > 0 && p.DurationWeeks > filter.MaxWeeks {
			continue
		}
		out = append(out, *clonePlan(p))
	}
	return out, nil
}

func (r *fakePlanRepo) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.FitnessPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.UserID == userID && p.Status == domain.PlanActive {
			return clonePlan(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePlanRepo) Update(ctx context.Context, plan *domain.FitnessPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[plan.ID]; !ok {
		return repository.ErrNotFound
	}
	plan.UpdatedAt = time.Now().UTC()
	r.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (r *fakePlanRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.PlanStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	return nil
}

func (r *fakePlanRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *fakePlanRepo) Activate(ctx context.Context, userID, planID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.plans[planID]
	if !ok || target.UserID != userID {
		return repository.ErrNotFound
	}
	for _, p := range r.plans {
		if p.UserID == userID && p.Status == domain.PlanActive && p.ID != planID {
			p.Status = domain.PlanPaused
		}
	}
	target.Status = domain.PlanActive
	return nil
}

func (r *fakePlanRepo) ReplaceWeek(ctx context.Context, planID primitive.ObjectID, week domain.PlanWeek) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range p.Weeks {
		if p.Weeks[i].Number == week.Number {
			p.Weeks[i] = week
			return nil
		}
	}
	return repository.ErrUpdateFailed
}

func (r *fakePlanRepo) ListActiveUserIDs(ctx context.Context, now time.Time) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[primitive.ObjectID]bool{}
	var out []primitive.ObjectID
	for _, p := range r.plans {
		if p.Status == domain.PlanActive && !p.Expired(now) && !seen[p.UserID] {
			seen[p.UserID] = true
			out = append(out, p.UserID)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) CountByStatus(ctx context.Context, userID primitive.ObjectID) (map[domain.PlanStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[domain.PlanStatus]int64{}
	for _, p := range r.plans {
		if p.UserID == userID {
			out[p.Status]++
		}
	}
	return out, nil
}

func clonePlan(p *domain.FitnessPlan) *domain.FitnessPlan {
	copied := *p
	copied.Weeks = make([]domain.PlanWeek, len(p.Weeks))
	for i := range p.Weeks {
		w := p.Weeks[i]
		w.Workouts = append([]domain.PlanWorkout(nil), p.Weeks[i].Workouts...)
		for j := range w.Workouts {
			w.Workouts[j].Exercises = append([]domain.PlanExercise(nil), p.Weeks[i].Workouts[j].Exercises...)
		}
		copied.Weeks[i] = w
	}
	return &copied
}

type fakeActivityRepo struct {
	mu         sync.Mutex
	entries    []domain.ActivityLog
	failAppend bool
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{}
}

func (r *fakeActivityRepo) Append(ctx context.Context, entry *domain.ActivityLog) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAppend {
		return primitive.NilObjectID, repository.ErrUpdateFailed
	}
	entry.ID = primitive.NewObjectID()
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = time.Now().UTC()
	}
	r.entries = append(r.entries, *entry)
	return entry.ID, nil
}

func (r *fakeActivityRepo) GetByUserAndRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ActivityLog
	for _, e := range r.entries {
		if e.UserID == userID && !e.LoggedAt.Before(from) && e.LoggedAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []domain.AdaptationEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{}
}

func (r *fakeEventRepo) Create(ctx context.Context, event *domain.AdaptationEvent) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = primitive.NewObjectID()
	r.events = append(r.events, *event)
	return event.ID, nil
}

func (r *fakeEventRepo) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.AdaptationEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AdaptationEvent
	for i := len(r.events) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if r.events[i].UserID == userID {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

// seedCatalog inserts a workable bodyweight catalog covering every
// muscle group the split templates reference.
func seedCatalog(repo *fakeExerciseRepo) {
	exercises := []domain.Exercise{
		{Name: "Push-Up", Category: domain.CategoryStrength, Difficulty: domain.DifficultyBeginner, PrimaryMuscles: []string{domain.MuscleChest}, SecondaryMuscles: []string{domain.MuscleTriceps}, IsCompound: true, AverageRating: 4.5},
		{Name: "Pike Push-Up", Category: domain.CategoryStrength, Difficulty: domain.DifficultyIntermediate, PrimaryMuscles: []string{domain.MuscleShoulders}, IsCompound: true, AverageRating: 4.1},
		{Name: "Inverted Row", Category: domain.CategoryStrength, Difficulty: domain.DifficultyBeginner, PrimaryMuscles: []string{domain.MuscleBack}, SecondaryMuscles: []string{domain.MuscleBiceps}, IsCompound: true, AverageRating: 4.3},
		{Name: "Superman Hold", Category: domain.CategoryStrength, Difficulty: domain.DifficultyBeginner, PrimaryMuscles: []string{domain.MuscleBack}, AverageRating: 3.8},
		{Name: "Bodyweight Squat", Category: domain.CategoryStrength, Difficulty: domain.DifficultyBeginner, PrimaryMuscles: []string{domain.MuscleLegs}, SecondaryMuscles: []string{domain.MuscleGlutes}, IsCompound: true, AverageRating: 4.6},
		{Name: "Walking Lunge", Category: domain.CategoryStrength, Difficulty: domain.DifficultyBeginner, PrimaryMuscles: []string{domain.MuscleLegs}, SecondaryMuscles: []string{domain.MuscleGlutes}, IsCompound: true, AverageRating: 4.2},
		{Name: "Glute Bridge", Category: domain.CategoryStrength, Difficulty: domain.DifficultyBeginner, PrimaryMuscles: []string{domain.MuscleGlutes}, AverageRating: 4.0},
		{Name: "Plank", Category: domain.CategoryStrength, Difficulty: domain.DifficultyBeginner, PrimaryMuscles: []string{domain.MuscleCore}, DefaultDurationSec: 45, AverageRating: 4.4},
		{Name: "Mountain Climber", Category: domain.CategoryCardio, Difficulty: domain.DifficultyBeginner, PrimaryMuscles: []string{domain.MuscleCore}, SecondaryMuscles: []string{domain.MuscleShoulders}, AverageRating: 3.9},
		{Name: "Triceps Dip", Category: domain.CategoryStrength, Difficulty: domain.DifficultyBeginner, PrimaryMuscles: []string{domain.MuscleTriceps}, AverageRating: 3.7},
		{Name: "Chin-Up Negative", Category: domain.CategoryStrength, Difficulty: domain.DifficultyIntermediate, PrimaryMuscles: []string{domain.MuscleBiceps, domain.MuscleBack}, IsCompound: true, AverageRating: 4.0},
		{Name: "Burpee", Category: domain.CategoryCardio, Difficulty: domain.DifficultyIntermediate, PrimaryMuscles: []string{domain.MuscleFullBody}, IsCompound: true, AverageRating: 3.5},
	}
	for i := range exercises {
		_, _ = repo.Create(context.Background(), &exercises[i])
	}
}
