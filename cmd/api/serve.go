package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Tomlord1122/taskboard/internal/config"
	"github.com/Tomlord1122/taskboard/internal/database"
	"github.com/Tomlord1122/taskboard/internal/repository"
	"github.com/Tomlord1122/taskboard/internal/server"
	"github.com/Tomlord1122/taskboard/internal/service"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "listen port (overrides PORT)")
}

// gracefulShutdown waits for SIGINT, SIGTERM or the cancellation of parent,
// then drains the server and releases the database pool and Redis client.
func gracefulShutdown(parent context.Context, apiServer *http.Server, dbService database.Service, rc *redis.Client, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 5 seconds to finish the requests it is currently handling
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if rc != nil {
		if err := rc.Close(); err != nil {
			log.WithError(err).Warn("closing redis client")
		}
	}

	if dbService != nil {
		if err := dbService.Close(); err != nil {
			log.WithError(err).Error("closing database connection pool")
		} else {
			log.Info("Database connection pool closed.")
		}
	}

	log.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

// openTaskRepository picks the configured store and, when REDIS_URL is set,
// wraps it in the Redis cache.
func openTaskRepository(ctx context.Context, cfg *config.Config) (repository.TaskRepository, database.Service, *redis.Client, error) {
	var (
		repo      repository.TaskRepository
		dbService database.Service
	)

	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("Using the in-memory task store; tasks are lost on exit")
		repo = repository.NewMemoryTaskRepository()
	default:
		var err error
		dbService, err = database.New(cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.AutoMigrate {
			log.Info("Running database auto-migration...")
			if err := dbService.Migrate(ctx); err != nil {
				dbService.Close()
				return nil, nil, nil, err
			}
		}
		repo = repository.NewGormTaskRepository(dbService.GetDB())
	}

	if cfg.RedisURL == "" {
		return repo, dbService, nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		if dbService != nil {
			dbService.Close()
		}
		return nil, nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rc := redis.NewClient(opts)
	log.WithField("ttl", cfg.CacheTTL).Info("Caching task reads in Redis")
	return repository.NewCachedTaskRepository(repo, rc, cfg.CacheTTL), dbService, rc, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if portFlag != 0 {
		cfg.Port = portFlag
	}

	repo, dbService, rc, err := openTaskRepository(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	taskService := service.NewTaskService(repo)
	apiServer := server.NewServer(cfg, taskService, dbService, rc)
	return serve(cmd.Context(), apiServer, dbService, rc)
}

// serve runs apiServer until ctx ends or a shutdown signal arrives. The
// database pool and Redis client are closed on every return path.
func serve(ctx context.Context, apiServer *http.Server, dbService database.Service, rc *redis.Client) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)
	go gracefulShutdown(ctx, apiServer, dbService, rc, done)

	log.WithField("addr", apiServer.Addr).Info("Starting server")
	err := apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-done
		return fmt.Errorf("http server: %w", err)
	}

	<-done
	log.Info("Graceful shutdown complete.")
	return nil
}
