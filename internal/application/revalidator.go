package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const DefaultRevalidationTick = time.Hour

// Revalidator re-runs validation once the published status is older than
// the policy's revalidation interval.
type Revalidator struct {
	engine      *Engine
	broadcaster *Broadcaster
	clock       ports.Clock
	tick        time.Duration
	cron        *cron.Cron
	logger      zerolog.Logger
	mu          sync.Mutex
	running     bool
}

func NewRevalidator(engine *Engine, broadcaster *Broadcaster, tick time.Duration, clock ports.Clock, logger zerolog.Logger) *Revalidator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if tick <= 0 {
		tick = DefaultRevalidationTick
	}

	return &Revalidator{
		engine:      engine,
		broadcaster: broadcaster,
		clock:       clock,
		tick:        tick,
		cron:        cron.New(),
		logger:      logger.With().Str("component", "revalidator").Logger(),
	}
}

func (r *Revalidator) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("revalidator already running")
	}

	if _, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.tick), r.run); err != nil {
		return fmt.Errorf("schedule revalidation: %w", err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info().Dur("tick", r.tick).Msg("revalidator started")

	return nil
}

// Stop halts scheduling. The returned context is done once a running job
// has finished.
func (r *Revalidator) Stop() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	r.running = false
	r.logger.Info().Msg("stopping revalidator")
	return r.cron.Stop()
}

// RunOnce validates when the current status is stale and reports whether it
// did.
func (r *Revalidator) RunOnce(ctx context.Context) bool {
	interval := r.engine.Policy().RevalidationInterval
	if r.broadcaster.Current().Fresh(r.clock.Now(), interval) {
		return false
	}

	status := r.engine.Validate(ctx)
	r.logger.Debug().Bool("valid", status.Valid).Str("source", string(status.Source)).Msg("periodic revalidation")

	return true
}

func (r *Revalidator) run() {
	r.RunOnce(context.Background())
}
