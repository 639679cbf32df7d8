package monitoring

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/scoring"
)

// Logger provides structured logging helpers for the service
type Logger struct {
	*slog.Logger
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler builds the JSON handler used by every logger in the process
func NewHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})
}

// NewLogger creates a JSON logger on stdout at the given level
func NewLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(NewHandler(os.Stdout, level))}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// PredictionLogger logs a completed scoring. Applicant details are not logged.
func (l *Logger) PredictionLogger(entryID string, result scoring.Prediction, recorded bool, duration time.Duration) {
	l.Info("Prediction Completed",
		"entry_id", entryID,
		"default_probability", result.DefaultProbability,
		"credit_score", result.CreditScore,
		"risk_level", result.RiskLevel,
		"recorded", recorded,
		"duration_ms", duration.Milliseconds(),
	)
}

// AnalyticsLogger logs an analytics computation
func (l *Logger) AnalyticsLogger(total int, cacheHit bool, duration time.Duration) {
	l.Info("Analytics Computed",
		"total_predictions", total,
		"cache_hit", cacheHit,
		"duration_ms", duration.Milliseconds(),
	)
}

// StorageLogger logs history store maintenance
func (l *Logger) StorageLogger(operation, backend string, affected int64, err error) {
	if err != nil {
		l.Warn("History Storage Operation Failed",
			"operation", operation,
			"backend", backend,
			"error", err,
		)
		return
	}

	l.Info("History Storage Operation",
		"operation", operation,
		"backend", backend,
		"affected", affected,
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}

// SecurityLogger logs security-related events
func (l *Logger) SecurityLogger(event, ip, userAgent string, details map[string]interface{}) {
	attrs := []any{
		"event", event,
		"ip", ip,
		"user_agent", userAgent,
	}

	for key, value := range details {
		attrs = append(attrs, key, value)
	}

	l.Warn("Security Event", attrs...)
}

// PerformanceLogger logs performance metrics
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Info("Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
	)
}
