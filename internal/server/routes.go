package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/Tomlord1122/taskboard/internal/logger"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger(log.StandardLogger()))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)
	r.Use(methodOverride)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(s.notFoundHandler)

	r.Get("/", s.listTasksHandler)
	r.Get("/up", s.upHandler)
	r.Get("/health", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.listTasksHandler)
		r.Post("/", s.createTaskHandler)
		r.Get("/new", s.newTaskHandler)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.showTaskHandler)
			r.Get("/edit", s.editTaskHandler)
			r.Patch("/", s.updateTaskHandler)
			r.Put("/", s.updateTaskHandler)
			r.Delete("/", s.deleteTaskHandler)
			r.Patch("/toggle_completed", s.toggleTaskCompletedHandler)
		})
	})

	return r
}

// upHandler answers liveness probes without touching any dependency.
func (s *Server) upHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := map[string]string{"status": "up", "store": "memory"}
	if s.db != nil {
		healthStats = s.db.Health()
		healthStats["store"] = "postgres"
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			// Redis is optional; report it without failing the check.
			healthStats["redis"] = "down: " + err.Error()
		} else {
			healthStats["redis"] = "up"
		}
	}

	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("marshaling JSON response")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
