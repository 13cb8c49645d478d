package security

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ActionScreenshotAttempt is the event name reported by the frontend when it
// detects a capture gesture (PrintScreen, devtools snipping, etc.).
const ActionScreenshotAttempt = "SCREENSHOT_ATTEMPT"

// Event is one security-relevant occurrence reported by a client or detected
// server-side.
type Event struct {
	UserID   uuid.UUID      `json:"user_id"`
	Action   string         `json:"action"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Sink persists security events
type Sink interface {
	LogEvent(ctx context.Context, event Event) error
}

// PostgresSink stores security events in the security_logs table
type PostgresSink struct {
	db *sqlx.DB
}

// NewPostgresSink creates a Postgres-backed event sink
func NewPostgresSink(db *sqlx.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// LogEvent inserts one event row
func (s *PostgresSink) LogEvent(ctx context.Context, event Event) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal event metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO security_logs (id, user_id, action, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), event.UserID, event.Action, metadata, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

// AuditLogger records security events without ever propagating sink
// failures: audit logging is advisory and must not break the user-facing
// flow that triggered it.
type AuditLogger struct {
	sink   Sink
	logger *zap.Logger
}

// NewAuditLogger creates an audit logger over the given sink
func NewAuditLogger(sink Sink, logger *zap.Logger) *AuditLogger {
	return &AuditLogger{sink: sink, logger: logger}
}

// Record persists the event, reporting success as a bool. A failing sink is
// logged and swallowed.
func (l *AuditLogger) Record(ctx context.Context, event Event) bool {
	if err := l.sink.LogEvent(ctx, event); err != nil {
		l.logger.Warn("Failed to record security event",
			zap.String("action", event.Action),
			zap.String("user_id", event.UserID.String()),
			zap.Error(err))
		return false
	}

	l.logger.Info("Security event recorded",
		zap.String("action", event.Action),
		zap.String("user_id", event.UserID.String()))
	return true
}
