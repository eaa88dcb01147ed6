package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/repository"
	"forgefit/fitness-engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubPlanService lets each test pin down just the methods it exercises.
// Unset methods return zero values.
type stubPlanService struct {
	generateFn func(ctx context.Context, userID primitive.ObjectID, params service.GenerateParams) (*domain.FitnessPlan, error)
	getFn      func(ctx context.Context, userID, planID primitive.ObjectID) (*domain.FitnessPlan, error)
	activateFn func(ctx context.Context, userID, planID primitive.ObjectID) error
	pauseFn    func(ctx context.Context, userID, planID primitive.ObjectID) error
	deleteFn   func(ctx context.Context, userID, planID primitive.ObjectID) error
	recordFn   func(ctx context.Context, userID, planID primitive.ObjectID, entry service.ProgressEntry) (*domain.FitnessPlan, error)
	cloneFn    func(ctx context.Context, userID, sourcePlanID primitive.ObjectID, startDate time.Time) (*domain.FitnessPlan, error)
	statsFn    func(ctx context.Context, userID primitive.ObjectID) (*service.PlanStats, error)
}

func (s *stubPlanService) Generate(ctx context.Context, userID primitive.ObjectID, params service.GenerateParams) (*domain.FitnessPlan, error) {
	if s.generateFn != nil {
		return s.generateFn(ctx, userID, params)
	}
	return &domain.FitnessPlan{}, nil
}

func (s *stubPlanService) Get(ctx context.Context, userID, planID primitive.ObjectID) (*domain.FitnessPlan, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID, planID)
	}
	return &domain.FitnessPlan{}, nil
}

func (s *stubPlanService) List(ctx context.Context, userID primitive.ObjectID, filter repository.PlanFilter) ([]domain.FitnessPlan, error) {
	return nil, nil
}

func (s *stubPlanService) Update(ctx context.Context, userID primitive.ObjectID, plan *domain.FitnessPlan) error {
	return nil
}

func (s *stubPlanService) Delete(ctx context.Context, userID, planID primitive.ObjectID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID, planID)
	}
	return nil
}

func (s *stubPlanService) Activate(ctx context.Context, userID, planID primitive.ObjectID) error {
	if s.activateFn != nil {
		return s.activateFn(ctx, userID, planID)
	}
	return nil
}

func (s *stubPlanService) Pause(ctx context.Context, userID, planID primitive.ObjectID) error {
	if s.pauseFn != nil {
		return s.pauseFn(ctx, userID, planID)
	}
	return nil
}

func (s *stubPlanService) Resume(ctx context.Context, userID, planID primitive.ObjectID) error {
	return nil
}

func (s *stubPlanService) Complete(ctx context.Context, userID, planID primitive.ObjectID) error {
	return nil
}

func (s *stubPlanService) Cancel(ctx context.Context, userID, planID primitive.ObjectID) error {
	return nil
}

func (s *stubPlanService) RecordProgress(ctx context.Context, userID, planID primitive.ObjectID, entry service.ProgressEntry) (*domain.FitnessPlan, error) {
	if s.recordFn != nil {
		return s.recordFn(ctx, userID, planID, entry)
	}
	return &domain.FitnessPlan{}, nil
}

func (s *stubPlanService) ProgressSummary(ctx context.Context, userID, planID primitive.ObjectID) (*service.ProgressSummary, error) {
	return &service.ProgressSummary{}, nil
}

func (s *stubPlanService) Clone(ctx context.Context, userID, sourcePlanID primitive.ObjectID, startDate time.Time) (*domain.FitnessPlan, error) {
	if s.cloneFn != nil {
		return s.cloneFn(ctx, userID, sourcePlanID, startDate)
	}
	return &domain.FitnessPlan{}, nil
}

func (s *stubPlanService) ListTemplates(ctx context.Context, filter repository.PlanFilter) ([]domain.FitnessPlan, error) {
	return nil, nil
}

func (s *stubPlanService) Stats(ctx context.Context, userID primitive.ObjectID) (*service.PlanStats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx, userID)
	}
	return &service.PlanStats{}, nil
}

func (s *stubPlanService) ValidatePlanParameters(ctx context.Context, userID primitive.ObjectID, params service.PlanParameters) (*domain.ValidationResult, error) {
	return &domain.ValidationResult{Valid: true}, nil
}

func (s *stubPlanService) ValidateExercisePrescription(ctx context.Context, userID primitive.ObjectID, name string, sets, reps int, weightKg float64) (*domain.ValidationResult, error) {
	return &domain.ValidationResult{Valid: true}, nil
}

// planRouter mounts the plan routes behind a middleware that injects the
// given user id, sidestepping JWT handling.
func planRouter(svc service.PlanService, userID primitive.ObjectID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserIDKey, userID.Hex())
		c.Next()
	})

	h := NewPlanHandler(svc)
	plans := router.Group("/api/v1/plans")
	{
		plans.POST("/generate", h.GeneratePlan)
		plans.GET("/stats", h.GetStats)
		plans.GET("/:id", h.GetPlan)
		plans.DELETE("/:id", h.DeletePlan)
		plans.POST("/:id/activate", h.ActivatePlan)
		plans.POST("/:id/pause", h.PausePlan)
		plans.POST("/:id/progress", h.RecordProgress)
		plans.POST("/:id/clone", h.ClonePlan)
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validGenerateBody() map[string]any {
	return map[string]any{
		"name":               "Spring strength block",
		"type":               "strength_building",
		"durationWeeks":      8,
		"workoutsPerWeek":    3,
		"workoutDurationMin": 45,
		"equipment":          []string{"barbell", "bodyweight"},
		"startDate":          "2026-09-07T00:00:00Z",
	}
}

func TestGeneratePlanEndpoint(t *testing.T) {
	t.Parallel()
	userID := primitive.NewObjectID()

	t.Run("created", func(t *testing.T) {
		t.Parallel()
		planID := primitive.NewObjectID()
		svc := &stubPlanService{
			generateFn: func(_ context.Context, gotUser primitive.ObjectID, params service.GenerateParams) (*domain.FitnessPlan, error) {
				assert.Equal(t, userID, gotUser)
				assert.Equal(t, domain.PlanStrengthBuilding, params.Type)
				assert.Equal(t, 8, params.DurationWeeks)
				assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), params.StartDate)
				return &domain.FitnessPlan{ID: planID, UserID: gotUser, Status: domain.PlanDraft}, nil
			},
		}
		router := planRouter(svc, userID)

		w := doJSON(t, router, http.MethodPost, "/api/v1/plans/generate", validGenerateBody())

		require.Equal(t, http.StatusCreated, w.Code)
		var got domain.FitnessPlan
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, planID, got.ID)
		assert.Equal(t, domain.PlanDraft, got.Status)
	})

	t.Run("binding rejects unknown plan type", func(t *testing.T) {
		t.Parallel()
		router := planRouter(&stubPlanService{}, userID)
		body := validGenerateBody()
		body["type"] = "crossfit"

		w := doJSON(t, router, http.MethodPost, "/api/v1/plans/generate", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad start date", func(t *testing.T) {
		t.Parallel()
		router := planRouter(&stubPlanService{}, userID)
		body := validGenerateBody()
		body["startDate"] = "next monday"

		w := doJSON(t, router, http.MethodPost, "/api/v1/plans/generate", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service errors map to status codes", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			name string
			err  error
			want int
		}{
			{"invalid parameters", service.ErrInvalidPlanParameters, http.StatusBadRequest},
			{"insufficient catalog", service.ErrInsufficientCatalog, http.StatusUnprocessableEntity},
			{"user not found", service.ErrUserNotFound, http.StatusNotFound},
			{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()
				svc := &stubPlanService{
					generateFn: func(context.Context, primitive.ObjectID, service.GenerateParams) (*domain.FitnessPlan, error) {
						return nil, tc.err
					},
				}
				router := planRouter(svc, userID)

				w := doJSON(t, router, http.MethodPost, "/api/v1/plans/generate", validGenerateBody())
				assert.Equal(t, tc.want, w.Code)
			})
		}
	})
}

func TestPlanLifecycleEndpoints(t *testing.T) {
	t.Parallel()
	userID := primitive.NewObjectID()
	planID := primitive.NewObjectID()

	t.Run("activate returns no content", func(t *testing.T) {
		t.Parallel()
		var gotPlan primitive.ObjectID
		svc := &stubPlanService{
			activateFn: func(_ context.Context, _, id primitive.ObjectID) error {
				gotPlan = id
				return nil
			},
		}
		router := planRouter(svc, userID)

		w := doJSON(t, router, http.MethodPost, "/api/v1/plans/"+planID.Hex()+"/activate", nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, planID, gotPlan)
	})

	t.Run("invalid plan id is a bad request", func(t *testing.T) {
		t.Parallel()
		router := planRouter(&stubPlanService{}, userID)

		w := doJSON(t, router, http.MethodPost, "/api/v1/plans/not-hex/activate", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("errors map to status codes", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			name string
			err  error
			want int
		}{
			{"not found", service.ErrPlanNotFound, http.StatusNotFound},
			{"access denied", service.ErrPlanAccessDenied, http.StatusForbidden},
			{"invalid transition", service.ErrInvalidTransition, http.StatusConflict},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()
				svc := &stubPlanService{
					pauseFn: func(context.Context, primitive.ObjectID, primitive.ObjectID) error {
						return tc.err
					},
				}
				router := planRouter(svc, userID)

				w := doJSON(t, router, http.MethodPost, "/api/v1/plans/"+planID.Hex()+"/pause", nil)
				assert.Equal(t, tc.want, w.Code)
			})
		}
	})

	t.Run("delete of an active plan conflicts", func(t *testing.T) {
		t.Parallel()
		svc := &stubPlanService{
			deleteFn: func(context.Context, primitive.ObjectID, primitive.ObjectID) error {
				return service.ErrPlanLocked
			},
		}
		router := planRouter(svc, userID)

		w := doJSON(t, router, http.MethodDelete, "/api/v1/plans/"+planID.Hex(), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestRecordProgressEndpoint(t *testing.T) {
	t.Parallel()
	userID := primitive.NewObjectID()
	planID := primitive.NewObjectID()
	workoutID := primitive.NewObjectID()

	body := map[string]any{
		"workoutId":   workoutID.Hex(),
		"status":      "completed",
		"durationMin": 40,
		"intensity":   7.5,
		"setsDone":    9,
		"exercises": []map[string]any{
			{"order": 1, "status": "completed", "actualReps": []int{10, 9, 8}},
		},
	}

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		svc := &stubPlanService{
			recordFn: func(_ context.Context, _, _ primitive.ObjectID, entry service.ProgressEntry) (*domain.FitnessPlan, error) {
				assert.Equal(t, workoutID, entry.WorkoutID)
				assert.Equal(t, domain.WorkoutCompleted, entry.Status)
				require.Len(t, entry.Exercises, 1)
				assert.Equal(t, []int{10, 9, 8}, entry.Exercises[0].ActualReps)
				return &domain.FitnessPlan{ID: planID}, nil
			},
		}
		router := planRouter(svc, userID)

		w := doJSON(t, router, http.MethodPost, "/api/v1/plans/"+planID.Hex()+"/progress", body)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown workout is 404", func(t *testing.T) {
		t.Parallel()
		svc := &stubPlanService{
			recordFn: func(context.Context, primitive.ObjectID, primitive.ObjectID, service.ProgressEntry) (*domain.FitnessPlan, error) {
				return nil, service.ErrWorkoutNotFound
			},
		}
		router := planRouter(svc, userID)

		w := doJSON(t, router, http.MethodPost, "/api/v1/plans/"+planID.Hex()+"/progress", body)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("double completion conflicts", func(t *testing.T) {
		t.Parallel()
		svc := &stubPlanService{
			recordFn: func(context.Context, primitive.ObjectID, primitive.ObjectID, service.ProgressEntry) (*domain.FitnessPlan, error) {
				return nil, service.ErrInvalidTransition
			},
		}
		router := planRouter(svc, userID)

		w := doJSON(t, router, http.MethodPost, "/api/v1/plans/"+planID.Hex()+"/progress", body)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("bad status rejected by binding", func(t *testing.T) {
		t.Parallel()
		router := planRouter(&stubPlanService{}, userID)
		bad := map[string]any{"workoutId": workoutID.Hex(), "status": "done"}

		w := doJSON(t, router, http.MethodPost, "/api/v1/plans/"+planID.Hex()+"/progress", bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestClonePlanEndpoint(t *testing.T) {
	t.Parallel()
	userID := primitive.NewObjectID()
	planID := primitive.NewObjectID()

	t.Run("empty body starts today", func(t *testing.T) {
		t.Parallel()
		svc := &stubPlanService{
			cloneFn: func(_ context.Context, _, source primitive.ObjectID, startDate time.Time) (*domain.FitnessPlan, error) {
				assert.Equal(t, planID, source)
				assert.True(t, startDate.IsZero())
				return &domain.FitnessPlan{Status: domain.PlanDraft}, nil
			},
		}
		router := planRouter(svc, userID)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/"+planID.Hex()+"/clone", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("explicit start date is parsed", func(t *testing.T) {
		t.Parallel()
		want := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
		svc := &stubPlanService{
			cloneFn: func(_ context.Context, _, _ primitive.ObjectID, startDate time.Time) (*domain.FitnessPlan, error) {
				assert.Equal(t, want, startDate)
				return &domain.FitnessPlan{}, nil
			},
		}
		router := planRouter(svc, userID)

		w := doJSON(t, router, http.MethodPost, "/api/v1/plans/"+planID.Hex()+"/clone",
			map[string]any{"startDate": "2026-10-05T00:00:00Z"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("template owned by someone else is still denied when private", func(t *testing.T) {
		t.Parallel()
		svc := &stubPlanService{
			cloneFn: func(context.Context, primitive.ObjectID, primitive.ObjectID, time.Time) (*domain.FitnessPlan, error) {
				return nil, service.ErrPlanAccessDenied
			},
		}
		router := planRouter(svc, userID)

		w := doJSON(t, router, http.MethodPost, "/api/v1/plans/"+planID.Hex()+"/clone", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestGetStatsEndpoint(t *testing.T) {
	t.Parallel()
	userID := primitive.NewObjectID()
	svc := &stubPlanService{
		statsFn: func(_ context.Context, gotUser primitive.ObjectID) (*service.PlanStats, error) {
			assert.Equal(t, userID, gotUser)
			return &service.PlanStats{
				ByStatus: map[domain.PlanStatus]int64{domain.PlanActive: 1, domain.PlanDraft: 2},
				Total:    3,
			}, nil
		},
	}
	router := planRouter(svc, userID)

	w := doJSON(t, router, http.MethodGet, "/api/v1/plans/stats", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got service.PlanStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(3), got.Total)
	assert.Equal(t, int64(1), got.ByStatus[domain.PlanActive])
}

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewPlanHandler(&stubPlanService{})
	router.GET("/api/v1/plans/stats", h.GetStats)

	w := doJSON(t, router, http.MethodGet, "/api/v1/plans/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
