package revision

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sweeper runs the revision scan on a fixed interval.
type Sweeper struct {
	scanner  *Scanner
	logger   zerolog.Logger
	interval time.Duration
	stopChan chan struct{}
}

// NewSweeper creates a sweeper for periodic revision scans.
func NewSweeper(scanner *Scanner, interval time.Duration) *Sweeper {
	return &Sweeper{
		scanner:  scanner,
		logger:   log.With().Str("component", "revision_sweeper").Logger(),
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start blocks, scanning on every tick until ctx is cancelled or Stop is
// called.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Starting price revision sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Price revision sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Price revision sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if _, err := s.scanner.Run(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Price revision scan failed")
			}
		}
	}
}

// Stop signals the sweeper to stop
func (s *Sweeper) Stop() {
	close(s.stopChan)
}
