package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/repository"
	"forgefit/fitness-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler holds the plan management service dependency.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs ---

// GeneratePlanRequest defines the JSON body for plan generation.
type GeneratePlanRequest struct {
	Name               string   `json:"name"`
	Type               string   `json:"type" binding:"required,oneof=weight_loss muscle_building strength_building endurance general_fitness"`
	DurationWeeks      int      `json:"durationWeeks" binding:"required,min=1,max=52"`
	WorkoutsPerWeek    int      `json:"workoutsPerWeek" binding:"required,min=1,max=7"`
	WorkoutDurationMin int      `json:"workoutDurationMin" binding:"required,min=15,max=180"`
	Equipment          []string `json:"equipment" binding:"required,min=1"`
	Location           string   `json:"location"`
	StartDate          string   `json:"startDate"` // RFC3339 date; default today

	TargetWeightKg     float64 `json:"targetWeightKg"`
	WeeklyActiveMin    int     `json:"weeklyActiveMin"`
	TargetWorkoutsWeek int     `json:"targetWorkoutsWeek"`

	ProgressiveOverload bool    `json:"progressiveOverload"`
	ProgressionRate     float64 `json:"progressionRate" binding:"omitempty,gt=0,lte=0.5"`
	DeloadFrequency     int     `json:"deloadFrequency" binding:"omitempty,min=2,max=12"`
}

// RecordProgressRequest logs a workout outcome against a plan.
type RecordProgressRequest struct {
	WorkoutID   string  `json:"workoutId" binding:"required"`
	Status      string  `json:"status" binding:"required,oneof=completed skipped modified"`
	DurationMin int     `json:"durationMin" binding:"omitempty,min=0"`
	Intensity   float64 `json:"intensity" binding:"omitempty,min=1,max=10"`
	SetsDone    int     `json:"setsDone" binding:"omitempty,min=0"`

	Exercises []struct {
		Order         int       `json:"order"`
		Status        string    `json:"status" binding:"required,oneof=completed skipped modified"`
		ActualReps    []int     `json:"actualReps"`
		ActualWeights []float64 `json:"actualWeights"`
	} `json:"exercises"`
}

// ClonePlanRequest copies a plan or template into a fresh draft.
type ClonePlanRequest struct {
	StartDate string `json:"startDate"` // RFC3339 date; default today
}

// ValidatePlanRequest dry-runs plan parameter validation.
type ValidatePlanRequest struct {
	Type               string   `json:"type" binding:"required"`
	DurationWeeks      int      `json:"durationWeeks" binding:"required"`
	WorkoutsPerWeek    int      `json:"workoutsPerWeek" binding:"required"`
	WorkoutDurationMin int      `json:"workoutDurationMin"`
	Equipment          []string `json:"equipment"`
	ProgressionRate    float64  `json:"progressionRate"`
	DeloadFrequency    int      `json:"deloadFrequency"`
}

// ValidateExerciseParamsRequest dry-runs a set/rep/weight prescription.
type ValidateExerciseParamsRequest struct {
	Name     string  `json:"name" binding:"required"`
	Sets     int     `json:"sets" binding:"required"`
	Reps     int     `json:"reps" binding:"required"`
	WeightKg float64 `json:"weightKg"`
}

// --- Handler Methods ---

// GeneratePlan builds a full multi-week plan for the authenticated user.
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	var req GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	startDate := time.Now().UTC()
	if req.StartDate != "" {
		startDate, err = time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "startDate must be RFC3339")
			return
		}
	}

	params := service.GenerateParams{
		Name:               req.Name,
		Type:               domain.PlanType(req.Type),
		DurationWeeks:      req.DurationWeeks,
		WorkoutsPerWeek:    req.WorkoutsPerWeek,
		WorkoutDurationMin: req.WorkoutDurationMin,
		Equipment:          req.Equipment,
		Location:           req.Location,
		StartDate:          startDate,
		Targets: domain.TargetMetrics{
			TargetWeightKg:     req.TargetWeightKg,
			WeeklyActiveMin:    req.WeeklyActiveMin,
			TargetWorkoutsWeek: req.TargetWorkoutsWeek,
		},
		ProgressiveOverload: req.ProgressiveOverload,
		ProgressionRate:     req.ProgressionRate,
		DeloadFrequency:     req.DeloadFrequency,
	}

	plan, err := h.planService.Generate(c.Request.Context(), userID, params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlanParameters):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInsufficientCatalog):
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate plan")
		}
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// GetPlan returns one plan with its full week tree.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	userID, planID, ok := h.ids(c)
	if !ok {
		return
	}

	plan, err := h.planService.Get(c.Request.Context(), userID, planID)
	if err != nil {
		h.mapPlanError(c, err, "Failed to fetch plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ListPlans returns the user's plans, optionally filtered.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	filter := repository.PlanFilter{
		Type:            domain.PlanType(c.Query("type")),
		Status:          domain.PlanStatus(c.Query("status")),
		ExperienceLevel: domain.Difficulty(c.Query("experienceLevel")),
		Equipment:       c.Query("equipment"),
	}
	if minStr := c.Query("minWeeks"); minStr != "" {
		if n, err := strconv.Atoi(minStr); err == nil && n > 0 {
			filter.MinWeeks = n
		}
	}
	if maxStr := c.Query("maxWeeks"); maxStr != "" {
		if n, err := strconv.Atoi(maxStr); err == nil && n > 0 {
			filter.MaxWeeks = n
		}
	}
	if after := c.Query("startedAfter"); after != "" {
		if t, err := time.Parse(time.RFC3339, after); err == nil {
			filter.StartedAfter = &t
		}
	}
	if before := c.Query("startedBefore"); before != "" {
		if t, err := time.Parse(time.RFC3339, before); err == nil {
			filter.StartedBefore = &t
		}
	}

	plans, err := h.planService.List(c.Request.Context(), userID, filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list plans")
		return
	}
	c.JSON(http.StatusOK, plans)
}

// UpdatePlan persists plan edits. Rejected while the plan is active.
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	userID, planID, ok := h.ids(c)
	if !ok {
		return
	}

	var plan domain.FitnessPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	plan.ID = planID

	if err := h.planService.Update(c.Request.Context(), userID, &plan); err != nil {
		h.mapPlanError(c, err, "Failed to update plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// DeletePlan removes a plan and its whole week tree.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	userID, planID, ok := h.ids(c)
	if !ok {
		return
	}

	if err := h.planService.Delete(c.Request.Context(), userID, planID); err != nil {
		h.mapPlanError(c, err, "Failed to delete plan")
		return
	}
	c.Status(http.StatusNoContent)
}

// ActivatePlan makes this the user's single active plan.
func (h *PlanHandler) ActivatePlan(c *gin.Context) {
	h.lifecycle(c, h.planService.Activate)
}

// PausePlan suspends an active plan.
func (h *PlanHandler) PausePlan(c *gin.Context) {
	h.lifecycle(c, h.planService.Pause)
}

// ResumePlan reactivates a paused plan.
func (h *PlanHandler) ResumePlan(c *gin.Context) {
	h.lifecycle(c, h.planService.Resume)
}

// CompletePlan marks a plan finished.
func (h *PlanHandler) CompletePlan(c *gin.Context) {
	h.lifecycle(c, h.planService.Complete)
}

// CancelPlan abandons a plan.
func (h *PlanHandler) CancelPlan(c *gin.Context) {
	h.lifecycle(c, h.planService.Cancel)
}

func (h *PlanHandler) lifecycle(c *gin.Context, op func(ctx context.Context, userID, planID primitive.ObjectID) error) {
	userID, planID, ok := h.ids(c)
	if !ok {
		return
	}
	if err := op(c.Request.Context(), userID, planID); err != nil {
		h.mapPlanError(c, err, "Failed to change plan status")
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordProgress logs a workout outcome and updates plan counters.
func (h *PlanHandler) RecordProgress(c *gin.Context) {
	userID, planID, ok := h.ids(c)
	if !ok {
		return
	}

	var req RecordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	workoutID, err := primitive.ObjectIDFromHex(req.WorkoutID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format.")
		return
	}

	entry := service.ProgressEntry{
		WorkoutID:   workoutID,
		Status:      domain.WorkoutStatus(req.Status),
		DurationMin: req.DurationMin,
		Intensity:   req.Intensity,
		SetsDone:    req.SetsDone,
	}
	for _, ex := range req.Exercises {
		entry.Exercises = append(entry.Exercises, service.ExerciseProgress{
			Order:         ex.Order,
			Status:        domain.ExerciseStatus(ex.Status),
			ActualReps:    ex.ActualReps,
			ActualWeights: ex.ActualWeights,
		})
	}

	plan, err := h.planService.RecordProgress(c.Request.Context(), userID, planID, entry)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkoutNotFound), errors.Is(err, service.ErrExerciseNotInWorkout):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidTransition):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			h.mapPlanError(c, err, "Failed to record progress")
		}
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetProgress returns the plan's running counters and per-exercise
// progression suggestions for the current week.
func (h *PlanHandler) GetProgress(c *gin.Context) {
	userID, planID, ok := h.ids(c)
	if !ok {
		return
	}

	summary, err := h.planService.ProgressSummary(c.Request.Context(), userID, planID)
	if err != nil {
		h.mapPlanError(c, err, "Failed to fetch progress")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ClonePlan copies a plan or template into a fresh draft.
func (h *PlanHandler) ClonePlan(c *gin.Context) {
	userID, planID, ok := h.ids(c)
	if !ok {
		return
	}

	// An empty body means "start today".
	var req ClonePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	var startDate time.Time
	if req.StartDate != "" {
		var err error
		startDate, err = time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "startDate must be RFC3339")
			return
		}
	}

	clone, err := h.planService.Clone(c.Request.Context(), userID, planID, startDate)
	if err != nil {
		h.mapPlanError(c, err, "Failed to clone plan")
		return
	}
	c.JSON(http.StatusCreated, clone)
}

// ListTemplates returns browsable plan templates.
func (h *PlanHandler) ListTemplates(c *gin.Context) {
	filter := repository.PlanFilter{
		Type:            domain.PlanType(c.Query("type")),
		ExperienceLevel: domain.Difficulty(c.Query("experienceLevel")),
	}

	templates, err := h.planService.ListTemplates(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list templates")
		return
	}
	c.JSON(http.StatusOK, templates)
}

// GetStats aggregates the user's plans by lifecycle state.
func (h *PlanHandler) GetStats(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	stats, err := h.planService.Stats(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch plan stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ValidatePlan dry-runs the safety checks on plan parameters.
func (h *PlanHandler) ValidatePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req ValidatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.planService.ValidatePlanParameters(c.Request.Context(), userID, service.PlanParameters{
		Type:               domain.PlanType(req.Type),
		DurationWeeks:      req.DurationWeeks,
		WorkoutsPerWeek:    req.WorkoutsPerWeek,
		WorkoutDurationMin: req.WorkoutDurationMin,
		Equipment:          req.Equipment,
		ProgressionRate:    req.ProgressionRate,
		DeloadFrequency:    req.DeloadFrequency,
	})
	if err != nil {
		h.mapPlanError(c, err, "Failed to validate plan parameters")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ValidateExerciseParams dry-runs a set/rep/weight prescription.
func (h *PlanHandler) ValidateExerciseParams(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req ValidateExerciseParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.planService.ValidateExercisePrescription(c.Request.Context(), userID, req.Name, req.Sets, req.Reps, req.WeightKg)
	if err != nil {
		h.mapPlanError(c, err, "Failed to validate exercise parameters")
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- helpers ---

func (h *PlanHandler) ids(c *gin.Context) (userID, planID primitive.ObjectID, ok bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return userID, planID, false
	}
	planID, err = primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return userID, planID, false
	}
	return userID, planID, true
}

func (h *PlanHandler) mapPlanError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPlanLocked), errors.Is(err, service.ErrInvalidTransition):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
