package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     domain.Role `json:"role" binding:"required,oneof=admin user"`
}

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Email     string                 `json:"email"`
	Role      domain.Role            `json:"role"`
	Profile   *domain.FitnessProfile `json:"profile,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UpdateProfileRequest replaces the user's fitness profile wholesale.
type UpdateProfileRequest struct {
	ExperienceLevel     domain.Difficulty          `json:"experienceLevel" binding:"required,oneof=beginner intermediate advanced expert"`
	Age                 int                        `json:"age" binding:"omitempty,min=13,max=120"`
	BodyweightKg        float64                    `json:"bodyweightKg" binding:"omitempty,gt=0"`
	Goal                domain.FitnessGoal         `json:"goal"`
	IntensityPreference domain.IntensityPreference `json:"intensityPreference"`
	AvailableEquipment  []string                   `json:"availableEquipment"`
	HealthConditions    []string                   `json:"healthConditions"`
	PhysicalLimitations []string                   `json:"physicalLimitations"`
	InjuryHistory       []string                   `json:"injuryHistory"`
	DislikedExercises   []string                   `json:"dislikedExercises"`
}

// MapUserToResponse converts a domain.User to UserResponse DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	resp := UserResponse{
		ID:        user.ID.Hex(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
	if user.Profile.ExperienceLevel != "" {
		profile := user.Profile
		resp.Profile = &profile
	}
	return resp
}

// --- Handler Methods ---

// Register creates a new user account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrHashingFailed):
			abortWithError(c, http.StatusInternalServerError, "Could not process registration")
		default:
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during registration")
		}
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Login authenticates a user and returns a JWT token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during login")
		}
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// UpdateProfile replaces the authenticated user's fitness profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	profile := domain.FitnessProfile{
		ExperienceLevel:     req.ExperienceLevel,
		Age:                 req.Age,
		BodyweightKg:        req.BodyweightKg,
		Goal:                req.Goal,
		IntensityPreference: req.IntensityPreference,
		AvailableEquipment:  req.AvailableEquipment,
		HealthConditions:    req.HealthConditions,
		PhysicalLimitations: req.PhysicalLimitations,
		InjuryHistory:       req.InjuryHistory,
		DislikedExercises:   req.DislikedExercises,
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, profile)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(user))
}
