package logger

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// Init configures the standard logrus logger.
func Init(level, format string) error {
	return Configure(log.StandardLogger(), os.Stdout, level, format)
}

// Configure applies level and format to l.
func Configure(l *log.Logger, out io.Writer, level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	l.SetLevel(lvl)
	l.SetOutput(out)

	switch format {
	case "json":
		l.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

// Gorm returns a gorm logger writing through logrus.
func Gorm(l *log.Logger) gormlogger.Interface {
	level := gormlogger.Warn
	if l.IsLevelEnabled(log.DebugLevel) {
		level = gormlogger.Info
	}
	return gormlogger.New(l, gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// RequestLogger is a chi middleware that logs one line per request.
func RequestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return middleware.RequestLogger(&requestFormatter{logger: l})
}

type requestFormatter struct {
	logger *log.Logger
}

func (f *requestFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	entry := f.logger.WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"remote": r.RemoteAddr,
	})
	if id := middleware.GetReqID(r.Context()); id != "" {
		entry = entry.WithField("request_id", id)
	}
	return &requestEntry{entry: entry}
}

type requestEntry struct {
	entry *log.Entry
}

func (e *requestEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	e.entry.WithFields(log.Fields{
		"status":   status,
		"bytes":    bytes,
		"duration": elapsed.String(),
	}).Info("request")
}

func (e *requestEntry) Panic(v interface{}, stack []byte) {
	e.entry.WithFields(log.Fields{
		"panic": fmt.Sprintf("%+v", v),
		"stack": string(stack),
	}).Error("request panicked")
}
