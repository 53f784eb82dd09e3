// Package jobs contains the background maintenance jobs of the offer
// service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pricewise/offer-service/internal/compare"
)

// RetentionConfig configures the historical price retention sweep.
type RetentionConfig struct {
	RetentionDays int
	SweepInterval time.Duration
}

// DefaultRetentionConfig keeps two years of price history and sweeps daily.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		RetentionDays: 730,
		SweepInterval: 24 * time.Hour,
	}
}

// RetentionSweeper periodically deletes historical prices that fell out of
// the retention window.
type RetentionSweeper struct {
	history  compare.HistoricalPriceRepository
	config   RetentionConfig
	logger   zerolog.Logger
	stopChan chan struct{}
}

// NewRetentionSweeper creates a sweeper over the given history repository.
func NewRetentionSweeper(history compare.HistoricalPriceRepository, config RetentionConfig) *RetentionSweeper {
	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultRetentionConfig().RetentionDays
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultRetentionConfig().SweepInterval
	}
	return &RetentionSweeper{
		history:  history,
		config:   config,
		logger:   log.With().Str("component", "retention_sweeper").Logger(),
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic retention sweep and blocks until stopped.
func (s *RetentionSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Int("retention_days", s.config.RetentionDays).
		Dur("interval", s.config.SweepInterval).
		Msg("Starting historical price retention sweeper")

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Retention sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Retention sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Retention sweep failed")
			}
		}
	}
}

// Stop signals the sweeper to stop.
func (s *RetentionSweeper) Stop() {
	close(s.stopChan)
}

// SweepOnce runs a single retention pass and returns the number of deleted
// observations.
func (s *RetentionSweeper) SweepOnce(ctx context.Context) (int, error) {
	deleted, err := s.history.CleanupOldData(ctx, s.config.RetentionDays)
	if err != nil {
		return 0, fmt.Errorf("cleaning up historical prices older than %d days: %w", s.config.RetentionDays, err)
	}

	if deleted > 0 {
		s.logger.Info().
			Int("deleted", deleted).
			Int("retention_days", s.config.RetentionDays).
			Msg("Removed expired historical prices")
	}
	return deleted, nil
}
