package inventory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrCircuitOpen is returned while the source is being skipped after
// repeated failures.
var ErrCircuitOpen = errors.New("inventory source circuit open")

// BreakerState is the state of a BreakerSource.
type BreakerState int

const (
	// BreakerClosed passes every fetch through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects fetches until the reset timeout passes.
	BreakerOpen
	// BreakerHalfOpen lets one trial fetch through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds the circuit breaker thresholds.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening.
	MaxFailures int
	// ResetTimeout is how long the circuit stays open before a trial fetch.
	ResetTimeout time.Duration
}

// DefaultBreakerConfig returns the default breaker thresholds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxFailures: 3, ResetTimeout: 30 * time.Second}
}

// BreakerSource wraps a Source and stops calling it after MaxFailures
// consecutive errors. After ResetTimeout a single trial fetch decides whether
// the circuit closes again.
type BreakerSource struct {
	source Source
	config BreakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	trial       bool

	now     func() time.Time
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// NewBreakerSource wraps source with a circuit breaker.
func NewBreakerSource(source Source, config BreakerConfig) *BreakerSource {
	def := DefaultBreakerConfig()
	if config.MaxFailures <= 0 {
		config.MaxFailures = def.MaxFailures
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = def.ResetTimeout
	}
	return &BreakerSource{
		source:  source,
		config:  config,
		now:     time.Now,
		metrics: NewMetricsRecorder(),
		logger:  log.With().Str("component", "inventory_breaker").Logger(),
	}
}

// WithClock replaces the breaker's time source.
func (b *BreakerSource) WithClock(now func() time.Time) *BreakerSource {
	b.now = now
	return b
}

// Rows implements Source.
func (b *BreakerSource) Rows(ctx context.Context) ([][]string, error) {
	if !b.allow() {
		return nil, ErrCircuitOpen
	}
	rows, err := b.source.Rows(ctx)
	if err != nil {
		b.recordFailure(err)
		return nil, err
	}
	b.recordSuccess()
	return rows, nil
}

// State returns the current breaker state.
func (b *BreakerSource) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *BreakerSource) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.lastFailure) < b.config.ResetTimeout {
			return false
		}
		b.transition(BreakerHalfOpen)
		b.trial = true
		return true
	case BreakerHalfOpen:
		// one trial at a time
		if b.trial {
			return false
		}
		b.trial = true
		return true
	default:
		return true
	}
}

func (b *BreakerSource) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.trial = false
	if b.state != BreakerClosed {
		b.transition(BreakerClosed)
		b.logger.Info().Msg("Inventory source recovered, circuit closed")
	}
}

func (b *BreakerSource) recordFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	b.trial = false

	switch {
	case b.state == BreakerHalfOpen:
		b.transition(BreakerOpen)
		b.logger.Warn().Err(err).Msg("Inventory source trial fetch failed, circuit re-opened")
	case b.state == BreakerClosed && b.failures >= b.config.MaxFailures:
		b.transition(BreakerOpen)
		b.logger.Warn().
			Err(err).
			Int("failures", b.failures).
			Dur("reset_timeout", b.config.ResetTimeout).
			Msg("Inventory source failing, circuit opened")
	}
}

func (b *BreakerSource) transition(s BreakerState) {
	b.state = s
	b.metrics.RecordBreakerState(s)
}
