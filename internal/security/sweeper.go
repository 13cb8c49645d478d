package security

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RetentionSweeper deletes security_logs rows older than the retention
// window on a daily schedule.
type RetentionSweeper struct {
	db        *sqlx.DB
	retention time.Duration
	cron      *cron.Cron
	logger    *zap.Logger
	mu        sync.Mutex
	running   bool
}

// NewRetentionSweeper creates a sweeper with the given retention window
func NewRetentionSweeper(db *sqlx.DB, retention time.Duration, logger *zap.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		db:        db,
		retention: retention,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start schedules the daily sweep and runs one immediately so a restart
// never leaves expired rows waiting a full day.
func (s *RetentionSweeper) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("retention sweeper already running")
	}
	s.running = true
	s.mu.Unlock()

	if _, err := s.cron.AddFunc("@daily", s.sweep); err != nil {
		return fmt.Errorf("schedule retention sweep: %w", err)
	}

	s.logger.Info("Starting security log retention sweeper",
		zap.Duration("retention", s.retention))
	s.cron.Start()

	go s.sweep()
	return nil
}

// Stop stops the sweeper and waits for a running sweep to finish
func (s *RetentionSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false

	s.logger.Info("Stopped security log retention sweeper")
}

func (s *RetentionSweeper) sweep() {
	cutoff := time.Now().UTC().Add(-s.retention)

	res, err := s.db.Exec(`DELETE FROM security_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		s.logger.Error("Security log sweep failed", zap.Error(err))
		return
	}

	deleted, _ := res.RowsAffected()
	s.logger.Info("Security log sweep completed",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff))
}
