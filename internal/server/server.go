package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Tomlord1122/taskboard/internal/config"
	"github.com/Tomlord1122/taskboard/internal/database"
	"github.com/Tomlord1122/taskboard/internal/service"
)

type Server struct {
	port        int
	corsOrigins []string

	taskService service.TaskService
	db          database.Service
	redis       *redis.Client

	views    *views
	registry *prometheus.Registry
	metrics  *metrics
}

// New builds the application server. db and redis may be nil when the
// memory store or no cache is configured.
func New(cfg *config.Config, taskService service.TaskService, db database.Service, rc *redis.Client) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Server{
		port:        cfg.Port,
		corsOrigins: cfg.CORSAllowedOrigins,
		taskService: taskService,
		db:          db,
		redis:       rc,
		views:       mustLoadViews(),
		registry:    registry,
		metrics:     newMetrics(registry),
	}
}

// NewServer wraps the application routes in an *http.Server.
func NewServer(cfg *config.Config, taskService service.TaskService, db database.Service, rc *redis.Client) *http.Server {
	appServer := New(cfg, taskService, db, rc)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
