package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	authservices "go-standings/internal/auth/services"
	entityservices "go-standings/internal/eveentity/services"
	warservices "go-standings/internal/evewars/services"
	notifservices "go-standings/internal/notifications/services"
	"go-standings/internal/scheduler"
	"go-standings/internal/standings"
	"go-standings/pkg/config"
	"go-standings/pkg/database"
	"go-standings/pkg/evegateway"
	"go-standings/pkg/permissions"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "go.uber.org/automaxprocs"
)

const serviceName = "standings"

// requestLogger logs requests but excludes health check endpoints
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/health") {
			next.ServeHTTP(w, r)
			return
		}
		middleware.Logger(next).ServeHTTP(w, r)
	})
}

func main() {
	config.Load()

	ctx := context.Background()

	mongodb, err := database.NewMongoDB(ctx, serviceName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	redis, err := database.NewRedis(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	eveClient := evegateway.NewClient(redis)

	permissionService, err := permissions.NewService(mongodb.Client, serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize permission service: %v", err)
	}

	// Domain services, leaf-first
	entityRepository := entityservices.NewRepository(mongodb)
	entityService := entityservices.NewService(entityRepository, eveClient.Universe)

	warRepository := warservices.NewRepository(mongodb)
	warService := warservices.NewService(warRepository, eveClient.Wars, entityService)

	authRepository := authservices.NewRepository(mongodb)
	tokenService := authservices.NewTokenService(authRepository)

	notificationRepository := notifservices.NewRepository(mongodb)
	notificationService := notifservices.NewService(notificationRepository)

	// Task engine and modules
	engine := scheduler.NewEngine(redis)
	schedulerModule := scheduler.NewModule(mongodb, redis, engine)

	standingsModule := standings.NewModule(
		mongodb,
		redis,
		eveClient,
		warService,
		entityService,
		authRepository,
		tokenService,
		permissionService,
		notificationService,
		engine,
	)

	scheduler.NewExecutors(
		engine,
		standingsModule.Service(),
		warService,
		entityService,
		eveClient.Status,
		notificationService,
		standingsModule.Service().Settings().AddWarTargets,
	)

	if err := schedulerModule.ScheduleRecurring(); err != nil {
		log.Fatalf("Failed to schedule recurring sync: %v", err)
	}

	createIndexes(ctx, map[string]interface{ CreateIndexes(context.Context) error }{
		"eve_entities":  entityRepository,
		"eve_wars":      warRepository,
		"auth":          authRepository,
		"notifications": notificationRepository,
		"standings":     standingsModule,
	})

	// HTTP surface
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/standings", standingsModule.Routes)
	r.Route("/scheduler", schedulerModule.Routes)

	humaConfig := huma.DefaultConfig("Standings Sync API", "1.0.0")
	humaConfig.Info.Description = "Synchronizes EVE Online contact standings between organizations and their member characters"
	api := humachi.New(r, humaConfig)

	standingsModule.RegisterUnifiedRoutes(api, "/standings")

	go schedulerModule.StartBackgroundTasks(ctx)

	srv := &http.Server{
		Addr:         config.GetEnv("HOST", "0.0.0.0") + ":" + config.GetEnv("PORT", "8080"),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting standings server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Received shutdown signal, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	schedulerModule.Stop()
	standingsModule.Stop()

	if err := mongodb.Close(shutdownCtx); err != nil {
		slog.Error("Failed to close MongoDB connection", "error", err)
	}
	if err := redis.Close(); err != nil {
		slog.Error("Failed to close Redis connection", "error", err)
	}

	slog.Info("Standings shutdown completed")
}

// createIndexes creates database indexes for every repository, logging
// failures instead of aborting startup
func createIndexes(ctx context.Context, repositories map[string]interface{ CreateIndexes(context.Context) error }) {
	for name, repository := range repositories {
		if err := repository.CreateIndexes(ctx); err != nil {
			slog.Warn("Failed to create indexes", "repository", name, "error", err)
		}
	}
}
