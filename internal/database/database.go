package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Tomlord1122/taskboard/internal/config"
	"github.com/Tomlord1122/taskboard/internal/domain"
	"github.com/Tomlord1122/taskboard/internal/logger"
)

// Service exposes the GORM handle plus health and lifecycle hooks.
type Service interface {
	Health() map[string]string
	Migrate(ctx context.Context) error
	Close() error
	GetDB() *gorm.DB
}

type service struct {
	db   *gorm.DB
	name string
}

// New opens a pooled PostgreSQL connection through GORM.
func New(cfg config.DatabaseConfig) (Service, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Gorm(log.StandardLogger()),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return newService(db, cfg.Database)
}

// Wrap adapts an already opened GORM handle, e.g. one pointed at a test container.
func Wrap(db *gorm.DB, name string) (Service, error) {
	return newService(db, name)
}

func newService(db *gorm.DB, name string) (Service, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &service{db: db, name: name}, nil
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// Migrate creates or alters the tasks table to match domain.Task.
func (s *service) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&domain.Task{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Health pings the database and reports the task count and pool usage.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	stats := map[string]string{"database": s.name}
	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("get underlying sql.DB: %v", err)
		log.WithError(err).Error("health check")
		return stats
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.WithError(err).Warn("db down")
		return stats
	}
	stats["status"] = "up"

	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.Task{}).Count(&count).Error; err != nil {
		// Reachable but not migrated yet.
		stats["tasks"] = "unavailable"
		log.WithError(err).Warn("counting tasks for health check")
	} else {
		stats["tasks"] = strconv.FormatInt(count, 10)
	}

	for k, v := range poolStats(sqlDB.Stats()) {
		stats[k] = v
	}
	return stats
}

// poolStats flattens the pool counters and flags a saturated pool.
func poolStats(st sql.DBStats) map[string]string {
	out := map[string]string{
		"open_connections": strconv.Itoa(st.OpenConnections),
		"in_use":           strconv.Itoa(st.InUse),
		"idle":             strconv.Itoa(st.Idle),
		"wait_count":       strconv.FormatInt(st.WaitCount, 10),
		"wait_duration":    st.WaitDuration.String(),
	}
	if st.MaxOpenConnections > 0 && st.InUse >= st.MaxOpenConnections {
		out["message"] = "connection pool exhausted; requests are queueing"
	}
	return out
}

// Close releases the connection pool.
func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get underlying sql.DB: %w", err)
	}
	log.WithField("database", s.name).Info("closing connection pool")
	return sqlDB.Close()
}
