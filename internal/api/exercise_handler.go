package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/repository"
	"forgefit/fitness-engine/internal/service"
	"forgefit/fitness-engine/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler holds the exercise library and media storage dependencies.
type ExerciseHandler struct {
	library service.ExerciseLibrary
	media   storage.MediaStorage
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(library service.ExerciseLibrary, media storage.MediaStorage) *ExerciseHandler {
	return &ExerciseHandler{library: library, media: media}
}

// --- DTOs for API (Data Transfer Objects) ---

// CreateExerciseRequest defines the expected JSON for creating a catalog entry.
type CreateExerciseRequest struct {
	Name             string   `json:"name" binding:"required"`
	Description      string   `json:"description"`
	Category         string   `json:"category" binding:"required,oneof=strength cardio flexibility balance plyometric"`
	Difficulty       string   `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced expert"`
	PrimaryMuscles   []string `json:"primaryMuscles" binding:"required,min=1"`
	SecondaryMuscles []string `json:"secondaryMuscles"`
	Equipment        []string `json:"equipment"`
	IsCompound       bool     `json:"isCompound"`

	Contraindications       []string `json:"contraindications"`
	HealthConditionsToAvoid []string `json:"healthConditionsToAvoid"`
	InjuryWarnings          []string `json:"injuryWarnings"`

	DefaultSets        int `json:"defaultSets" binding:"omitempty,min=1,max=10"`
	DefaultReps        int `json:"defaultReps" binding:"omitempty,min=1,max=100"`
	DefaultDurationSec int `json:"defaultDurationSec" binding:"omitempty,min=1"`
	DefaultRestSec     int `json:"defaultRestSec" binding:"omitempty,min=0"`

	Progressions []string `json:"progressions"`
	Regressions  []string `json:"regressions"`
	Alternatives []string `json:"alternatives"`
}

// ExerciseResponse is the DTO for returning catalog details.
type ExerciseResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
	PrimaryMuscles   []string `json:"primaryMuscles"`
	SecondaryMuscles []string `json:"secondaryMuscles,omitempty"`
	Equipment        []string `json:"equipment,omitempty"`
	IsCompound       bool     `json:"isCompound"`

	Contraindications       []string `json:"contraindications,omitempty"`
	HealthConditionsToAvoid []string `json:"healthConditionsToAvoid,omitempty"`
	InjuryWarnings          []string `json:"injuryWarnings,omitempty"`

	Progressions []string `json:"progressions,omitempty"`
	Regressions  []string `json:"regressions,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`

	UsageCount    int64   `json:"usageCount"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`

	// Presigned GET URL for the demo media, if any was uploaded.
	MediaURL string `json:"mediaUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
func MapExerciseToResponse(ex *domain.Exercise) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:                      ex.ID.Hex(),
		Name:                    ex.Name,
		Description:             ex.Description,
		Category:                string(ex.Category),
		Difficulty:              string(ex.Difficulty),
		PrimaryMuscles:          ex.PrimaryMuscles,
		SecondaryMuscles:        ex.SecondaryMuscles,
		Equipment:               ex.Equipment,
		IsCompound:              ex.IsCompound,
		Contraindications:       ex.Contraindications,
		HealthConditionsToAvoid: ex.HealthConditionsToAvoid,
		InjuryWarnings:          ex.InjuryWarnings,
		Progressions:            ex.Progressions,
		Regressions:             ex.Regressions,
		Alternatives:            ex.Alternatives,
		UsageCount:              ex.UsageCount,
		AverageRating:           ex.AverageRating,
		RatingCount:             ex.RatingCount,
		CreatedAt:               ex.CreatedAt,
		UpdatedAt:               ex.UpdatedAt,
	}
}

// MapExercisesToResponse converts a slice of domain.Exercise to DTOs.
func MapExercisesToResponse(exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	return responses
}

// --- Handler Methods ---

// CreateExercise adds a new catalog entry. Admin only.
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	exercise := &domain.Exercise{
		Name:                    req.Name,
		Description:             req.Description,
		Category:                domain.ExerciseCategory(req.Category),
		Difficulty:              domain.Difficulty(req.Difficulty),
		PrimaryMuscles:          req.PrimaryMuscles,
		SecondaryMuscles:        req.SecondaryMuscles,
		Equipment:               req.Equipment,
		IsCompound:              req.IsCompound,
		Contraindications:       req.Contraindications,
		HealthConditionsToAvoid: req.HealthConditionsToAvoid,
		InjuryWarnings:          req.InjuryWarnings,
		DefaultSets:             req.DefaultSets,
		DefaultReps:             req.DefaultReps,
		DefaultDurationSec:      req.DefaultDurationSec,
		DefaultRestSec:          req.DefaultRestSec,
		Progressions:            req.Progressions,
		Regressions:             req.Regressions,
		Alternatives:            req.Alternatives,
	}

	created, err := h.library.CreateExercise(c.Request.Context(), exercise)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create exercise")
		}
		return
	}

	c.JSON(http.StatusCreated, MapExerciseToResponse(created))
}

// ListExercises queries the catalog with optional filters.
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	filter := repository.ExerciseFilter{
		MuscleGroup:   c.Query("muscleGroup"),
		Category:      domain.ExerciseCategory(c.Query("category")),
		MaxDifficulty: domain.Difficulty(c.Query("maxDifficulty")),
		Search:        c.Query("search"),
	}
	if equipment := c.QueryArray("equipment"); len(equipment) > 0 {
		filter.Equipment = equipment
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.ParseInt(limitStr, 10, 64); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	exercises, err := h.library.ListExercises(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list exercises")
		return
	}

	c.JSON(http.StatusOK, MapExercisesToResponse(exercises))
}

// GetExercise returns a single catalog entry with a presigned media URL.
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	exercise, err := h.library.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to fetch exercise")
		}
		return
	}

	resp := MapExerciseToResponse(exercise)
	if exercise.MediaObjectKey != "" && h.media != nil {
		url, err := h.media.GeneratePresignedDownloadURL(c.Request.Context(), exercise.MediaObjectKey, storage.DefaultPresignedURLExpiry)
		if err == nil {
			resp.MediaURL = url
		}
		// Missing media is not worth failing the whole lookup over.
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateExercise modifies a catalog entry. Admin only.
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	current, err := h.library.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to fetch exercise")
		}
		return
	}

	current.Name = req.Name
	current.Description = req.Description
	current.Category = domain.ExerciseCategory(req.Category)
	current.Difficulty = domain.Difficulty(req.Difficulty)
	current.PrimaryMuscles = req.PrimaryMuscles
	current.SecondaryMuscles = req.SecondaryMuscles
	current.Equipment = req.Equipment
	current.IsCompound = req.IsCompound
	current.Contraindications = req.Contraindications
	current.HealthConditionsToAvoid = req.HealthConditionsToAvoid
	current.InjuryWarnings = req.InjuryWarnings
	current.DefaultSets = req.DefaultSets
	current.DefaultReps = req.DefaultReps
	current.DefaultDurationSec = req.DefaultDurationSec
	current.DefaultRestSec = req.DefaultRestSec
	current.Progressions = req.Progressions
	current.Regressions = req.Regressions
	current.Alternatives = req.Alternatives

	updated, err := h.library.UpdateExercise(c.Request.Context(), current)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to update exercise")
		return
	}

	c.JSON(http.StatusOK, MapExerciseToResponse(updated))
}

// DeleteExercise removes a catalog entry and its demo media. Admin only.
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	exercise, err := h.library.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to fetch exercise")
		}
		return
	}

	if err := h.library.DeleteExercise(c.Request.Context(), exerciseID); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete exercise")
		return
	}

	if exercise.MediaObjectKey != "" && h.media != nil {
		// Best effort; an orphaned object is cheaper than a failed delete.
		_ = h.media.DeleteObject(c.Request.Context(), exercise.MediaObjectKey)
	}

	c.Status(http.StatusNoContent)
}

// RateExercise folds a 1-5 rating into the running average.
func (h *ExerciseHandler) RateExercise(c *gin.Context) {
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	var req struct {
		Rating float64 `json:"rating" binding:"required,min=1,max=5"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.library.RateExercise(c.Request.Context(), exerciseID, req.Rating); err != nil {
		switch {
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrRatingOutOfRange):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to rate exercise")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// RequestMediaUpload issues a presigned PUT URL for demo media and pins
// the generated object key onto the exercise. Admin only.
func (h *ExerciseHandler) RequestMediaUpload(c *gin.Context) {
	if h.media == nil {
		abortWithError(c, http.StatusNotImplemented, "Media storage is not configured")
		return
	}

	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	var req struct {
		ContentType string `json:"contentType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	exercise, err := h.library.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to fetch exercise")
		}
		return
	}

	objectKey := fmt.Sprintf("exercises/%s/%s", exerciseID.Hex(), uuid.NewString())
	uploadURL, err := h.media.GeneratePresignedUploadURL(c.Request.Context(), objectKey, req.ContentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}

	exercise.MediaObjectKey = objectKey
	if _, err := h.library.UpdateExercise(c.Request.Context(), exercise); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to record media key")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploadUrl": uploadURL,
		"objectKey": objectKey,
		"expiresIn": storage.DefaultPresignedURLExpiry.String(),
	})
}
