package refresh

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically removes expired refresh tokens. It runs alongside
// live traffic; a token deleted by a concurrent request simply is not
// counted.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	logger   zerolog.Logger
}

func NewSweeper(manager *Manager, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		manager:  manager,
		interval: interval,
		logger:   logger.With().Str("component", "refresh_sweeper").Logger(),
	}
}

// Run sweeps once per interval until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("refresh token sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("refresh token sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep and logs the outcome
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.manager.SweepExpired(ctx, s.manager.Now())
	if err != nil {
		s.logger.Err(err).Msg("refresh token sweep failed")
		return 0
	}
	if n > 0 {
		s.logger.Info().Int64("deleted", n).Msg("expired refresh tokens swept")
	} else {
		s.logger.Debug().Msg("no expired refresh tokens")
	}
	return n
}
