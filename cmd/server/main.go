package main

import (
	"alcyxob/fitness-scheduler/internal/api"
	"alcyxob/fitness-scheduler/internal/config"
	"alcyxob/fitness-scheduler/internal/logging"
	"alcyxob/fitness-scheduler/internal/metrics"
	"alcyxob/fitness-scheduler/internal/repository"
	"alcyxob/fitness-scheduler/internal/repository/memory"
	"alcyxob/fitness-scheduler/internal/repository/mongo"
	"alcyxob/fitness-scheduler/internal/service"
	"alcyxob/fitness-scheduler/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// repositories groups one storage backend's implementations.
type repositories struct {
	users          repository.UserRepository
	clients        repository.ClientRepository
	exercises      repository.ExerciseRepository
	workouts       repository.WorkoutRepository
	programs       repository.ProgramRepository
	clientWorkouts repository.ClientWorkoutRepository
	clientPrograms repository.ClientProgramRepository
	tx             repository.Transactor

	close func(ctx context.Context) error
}

func openMongo(cfg config.Config) (*repositories, error) {
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	appDB := dbClient.Database(cfg.Database.Name)
	log.WithField("database", cfg.Database.Name).Info("database connection established")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := mongo.EnsureIndexes(ctx, appDB, cfg.Assignments.UniquePerDay); err != nil {
		_ = mongo.DisconnectDB(dbClient)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return &repositories{
		users:          mongo.NewMongoUserRepository(appDB),
		clients:        mongo.NewMongoClientRepository(appDB),
		exercises:      mongo.NewMongoExerciseRepository(appDB),
		workouts:       mongo.NewMongoWorkoutRepository(appDB),
		programs:       mongo.NewMongoProgramRepository(appDB),
		clientWorkouts: mongo.NewMongoClientWorkoutRepository(appDB),
		clientPrograms: mongo.NewMongoClientProgramRepository(appDB),
		tx:             mongo.NewTransactor(dbClient, cfg.Database.Transactions),
		close: func(context.Context) error {
			log.Info("disconnecting MongoDB")
			return mongo.DisconnectDB(dbClient)
		},
	}, nil
}

func openMemory(cfg config.Config) *repositories {
	log.Warn("using the in-memory store; data is lost on exit")
	store := memory.NewStore(cfg.Assignments.UniquePerDay)
	return &repositories{
		users:          store.Users(),
		clients:        store.Clients(),
		exercises:      store.Exercises(),
		workouts:       store.Workouts(),
		programs:       store.Programs(),
		clientWorkouts: store.ClientWorkouts(),
		clientPrograms: store.ClientPrograms(),
		tx:             store.Transactor(),
		close:          func(context.Context) error { return nil },
	}
}

// @title Fitness Scheduler API
// @version 1.0
// @description Workout catalog, client assignments and calendar projection.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logging.Setup(logging.SetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	log.Info("starting fitness scheduler")

	// --- Storage backend ---
	var repos *repositories
	switch cfg.Database.Driver {
	case config.DriverMemory:
		repos = openMemory(cfg)
	default:
		if repos, err = openMongo(cfg); err != nil {
			log.Fatal(err)
		}
	}

	// --- Object storage ---
	fileStorage := storage.Unconfigured()
	if cfg.S3.Enabled() {
		s3Ctx, s3Cancel := context.WithTimeout(context.Background(), 10*time.Second)
		fileStorage, err = storage.NewS3Storage(s3Ctx, cfg.S3)
		s3Cancel()
		if err != nil {
			log.Fatalf("failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Warn("S3 not configured; exercise media is disabled")
	}

	// --- Services ---
	authService := service.NewAuthService(repos.users, repos.clients, repos.tx, cfg.JWT.Secret, cfg.JWT.Expiration)
	exerciseService := service.NewExerciseService(repos.exercises, repos.workouts, repos.programs, repos.tx, fileStorage)
	catalogService := service.NewCatalogService(repos.exercises, repos.workouts, repos.programs, repos.clientWorkouts, repos.clientPrograms, repos.tx)
	assignmentService := service.NewAssignmentService(repos.users, repos.clients, repos.workouts, repos.programs, repos.clientWorkouts, repos.clientPrograms, repos.tx)
	trainerService := service.NewTrainerService(repos.users, repos.clients, repos.tx)
	clientService := service.NewClientService(repos.users, repos.clients)
	calendarService := service.NewCalendarService(repos.users, repos.clients, repos.workouts, repos.programs, repos.clientWorkouts, repos.clientPrograms)

	if cfg.Admin.Enabled() {
		adminCtx, adminCancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := authService.EnsureAdmin(adminCtx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		adminCancel()
		if err != nil {
			log.Fatalf("failed to create bootstrap admin: %v", err)
		}
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager(cfg.Metrics.Namespace, cfg.Metrics.Subsystem, registry)
	var metricsRegistry *prometheus.Registry
	if cfg.Metrics.Enabled {
		metricsRegistry = registry
	}

	// --- HTTP ---
	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Dependencies{
		JWTSecret:         authService.GetJWTSecret(),
		AuthService:       authService,
		ExerciseService:   exerciseService,
		CatalogService:    catalogService,
		AssignmentService: assignmentService,
		TrainerService:    trainerService,
		ClientService:     clientService,
		CalendarService:   calendarService,
		Metrics:           metricsManager,
		Registry:          metricsRegistry,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("address", cfg.Server.Address).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	err = multierr.Combine(
		server.Shutdown(ctxShutdown),
		repos.close(ctxShutdown),
	)
	if err != nil {
		log.Errorf("shutdown: %v", err)
		os.Exit(1)
	}
	log.Info("server exited")
}
