package api

import (
	"net/http"

	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/repository"
	"forgefit/fitness-engine/internal/service"
	"forgefit/fitness-engine/internal/storage"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	library service.ExerciseLibrary,
	planService service.PlanService,
	engine service.AdaptationEngine,
	activityRepo repository.ActivityRepository,
	eventRepo repository.AdaptationEventRepository,
	media storage.MediaStorage,
) {
	authHandler := NewAuthHandler(authService)
	exerciseHandler := NewExerciseHandler(library, media)
	planHandler := NewPlanHandler(planService)
	adaptationHandler := NewAdaptationHandler(engine, eventRepo)
	activityHandler := NewActivityHandler(activityRepo)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.PUT("/me/profile", authHandler.UpdateProfile)

		// --- Exercise Catalog ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
			exerciseGroup.POST("/:id/rating", exerciseHandler.RateExercise)

			// Catalog mutation is admin territory.
			exerciseGroup.POST("", RoleMiddleware(domain.RoleAdmin), exerciseHandler.CreateExercise)
			exerciseGroup.PUT("/:id", RoleMiddleware(domain.RoleAdmin), exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", RoleMiddleware(domain.RoleAdmin), exerciseHandler.DeleteExercise)
			exerciseGroup.POST("/:id/media", RoleMiddleware(domain.RoleAdmin), exerciseHandler.RequestMediaUpload)
		}

		// --- Plans ---
		planGroup := protected.Group("/plans")
		{
			planGroup.POST("/generate", planHandler.GeneratePlan)
			planGroup.GET("", planHandler.ListPlans)
			planGroup.GET("/templates", planHandler.ListTemplates)
			planGroup.GET("/stats", planHandler.GetStats)
			planGroup.POST("/validate", planHandler.ValidatePlan)
			planGroup.POST("/validate-exercise", planHandler.ValidateExerciseParams)

			planGroup.GET("/:id", planHandler.GetPlan)
			planGroup.PUT("/:id", planHandler.UpdatePlan)
			planGroup.DELETE("/:id", planHandler.DeletePlan)

			planGroup.POST("/:id/activate", planHandler.ActivatePlan)
			planGroup.POST("/:id/pause", planHandler.PausePlan)
			planGroup.POST("/:id/resume", planHandler.ResumePlan)
			planGroup.POST("/:id/complete", planHandler.CompletePlan)
			planGroup.POST("/:id/cancel", planHandler.CancelPlan)

			planGroup.POST("/:id/progress", planHandler.RecordProgress)
			planGroup.GET("/:id/progress", planHandler.GetProgress)
			planGroup.POST("/:id/clone", planHandler.ClonePlan)
		}

		// --- Adaptation ---
		adaptationGroup := protected.Group("/adaptations")
		{
			adaptationGroup.POST("/run", adaptationHandler.AdaptMe)
			adaptationGroup.GET("/history", adaptationHandler.History)
			adaptationGroup.POST("/run-batch", RoleMiddleware(domain.RoleAdmin), adaptationHandler.RunBatch)
		}

		// --- Activity Log ---
		protected.GET("/activity", activityHandler.ListActivity)
	}
}
