package api

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/metrics"
	"alcyxob/fitness-scheduler/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the services and instrumentation the routes are wired to.
type Dependencies struct {
	JWTSecret string

	AuthService       service.AuthService
	ExerciseService   service.ExerciseService
	CatalogService    service.CatalogService
	AssignmentService service.AssignmentService
	TrainerService    service.TrainerService
	ClientService     service.ClientService
	CalendarService   service.CalendarService

	Metrics *metrics.Manager
	// Registry is served on /metrics when set.
	Registry *prometheus.Registry
}

// NewRouter builds a gin engine with recovery, request logging and metrics
// middleware and all routes registered.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(deps.Metrics), RequestLogger(), RequestMetrics(deps.Metrics))
	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.AuthService)
	exerciseHandler := NewExerciseHandler(deps.ExerciseService)
	catalogHandler := NewCatalogHandler(deps.CatalogService)
	assignmentHandler := NewAssignmentHandler(deps.AssignmentService, deps.Metrics)
	trainerHandler := NewTrainerHandler(deps.TrainerService)
	clientHandler := NewClientHandler(deps.ClientService)
	calendarHandler := NewCalendarHandler(deps.CalendarService, deps.Metrics)

	authMiddleware := AuthMiddleware(deps.JWTSecret)
	staff := RoleMiddleware(domain.RoleTrainer, domain.RoleAdmin)
	adminOnly := RoleMiddleware(domain.RoleAdmin)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

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
		protected.GET("/me", authHandler.Me)

		// --- Exercise library ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
			exerciseGroup.POST("", staff, exerciseHandler.CreateExercise)
			exerciseGroup.PUT("/:id", staff, exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", staff, exerciseHandler.DeleteExercise)
			exerciseGroup.POST("/:id/media/upload-url", staff, exerciseHandler.RequestMediaUpload)
			exerciseGroup.POST("/:id/media", staff, exerciseHandler.ConfirmMedia)
		}

		// --- Templates ---
		workoutGroup := protected.Group("/workouts")
		workoutGroup.Use(staff)
		{
			workoutGroup.GET("", catalogHandler.ListWorkouts)
			workoutGroup.POST("", catalogHandler.CreateWorkout)
			workoutGroup.GET("/:id", catalogHandler.GetWorkout)
			workoutGroup.PUT("/:id", catalogHandler.UpdateWorkout)
			workoutGroup.DELETE("/:id", catalogHandler.DeleteWorkout)
		}

		programGroup := protected.Group("/programs")
		programGroup.Use(staff)
		{
			programGroup.GET("", catalogHandler.ListPrograms)
			programGroup.POST("", catalogHandler.CreateProgram)
			programGroup.GET("/:id", catalogHandler.GetProgram)
			programGroup.PUT("/:id", catalogHandler.UpdateProgram)
			programGroup.DELETE("/:id", catalogHandler.DeleteProgram)
		}

		// --- Assignments ---
		assignmentGroup := protected.Group("/assignments")
		{
			assignmentGroup.POST("/workouts", staff, assignmentHandler.AssignWorkout)
			// Clients update their own assignments; the service checks ownership.
			assignmentGroup.PATCH("/workouts/:id/status", assignmentHandler.UpdateAssignmentStatus)
			assignmentGroup.DELETE("/workouts/:id", staff, assignmentHandler.Unassign)

			assignmentGroup.POST("/programs", staff, assignmentHandler.AssignProgram)
			assignmentGroup.DELETE("/programs/:id", staff, assignmentHandler.UnassignProgram)
			assignmentGroup.PUT("/programs/:id/days/:day", staff, assignmentHandler.SetProgramDayOverride)
			assignmentGroup.DELETE("/programs/:id/days/:day", staff, assignmentHandler.ClearProgramDayOverride)
		}

		// --- Clients ---
		clientGroup := protected.Group("/clients")
		{
			clientGroup.GET("", staff, clientHandler.ListClients)
			clientGroup.GET("/unassigned", staff, clientHandler.ListUnassignedClients)
			clientGroup.GET("/:id", clientHandler.GetClient)
			clientGroup.GET("/:id/assignments", assignmentHandler.ListClientAssignments)
			clientGroup.GET("/:id/calendar", calendarHandler.GetCalendar)

			clientGroup.POST("/:id/trainer", staff, trainerHandler.AssignTrainer)
			clientGroup.DELETE("/:id/trainer", staff, trainerHandler.UnassignTrainer)
			clientGroup.PUT("/:id/trainer", adminOnly, trainerHandler.ReassignTrainer)
			clientGroup.PUT("/:id/subscription", adminOnly, clientHandler.UpdateSubscription)
		}
	}
}
