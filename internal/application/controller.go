package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/metrics"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const providerEventBuffer = 8

type providerEvent struct {
	tx      *domain.Transaction
	failure *domain.PurchaseFailure
}

// PurchaseController drives one purchase at a time through the provider and
// commits the resulting entitlement.
type PurchaseController struct {
	provider ports.PurchaseProvider
	engine   *Engine
	catalog  *Catalog
	clock    ports.Clock
	logger   zerolog.Logger
	metrics  *metrics.Collector

	mu        sync.Mutex
	attempt   *domain.PurchaseAttempt
	lastState domain.PurchaseState
}

func NewPurchaseController(
	provider ports.PurchaseProvider,
	engine *Engine,
	catalog *Catalog,
	clock ports.Clock,
	logger zerolog.Logger,
	recorder *metrics.Collector,
) *PurchaseController {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &PurchaseController{
		provider:  provider,
		engine:    engine,
		catalog:   catalog,
		clock:     clock,
		logger:    logger.With().Str("component", "purchase_controller").Logger(),
		metrics:   recorder,
		lastState: domain.PurchaseIdle,
	}
}

// InFlight reports whether an attempt is between Requesting and a terminal
// state.
func (c *PurchaseController) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt != nil
}

// Claims reports whether a transaction for productID belongs to the in-flight
// attempt.
func (c *PurchaseController) Claims(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt != nil && c.attempt.ProductID != "" && c.attempt.ProductID == productID
}

// State returns the in-flight attempt's state, or the last terminal state.
func (c *PurchaseController) State() domain.PurchaseState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt != nil {
		return c.attempt.State
	}
	return c.lastState
}

// Purchase buys plan. The free plan succeeds without touching any provider.
// A user cancellation is not an error: the outcome reports Cancelled.
func (c *PurchaseController) Purchase(ctx context.Context, plan domain.PlanID) (domain.PurchaseOutcome, error) {
	if plan == domain.PlanFree {
		return domain.PurchaseOutcome{Plan: plan, Success: true, State: domain.PurchaseIdle}, nil
	}
	if c.provider == nil {
		return domain.PurchaseOutcome{Plan: plan, State: domain.PurchaseFailed}, fmt.Errorf("purchase %s: %w", plan, domain.ErrProviderUnavailable)
	}

	attempt, err := c.begin(plan)
	if err != nil {
		return domain.PurchaseOutcome{Plan: plan, State: c.State()}, err
	}
	defer c.end(attempt)

	pkg, err := c.catalog.Resolve(ctx, plan)
	if err != nil {
		return c.fail(attempt, err)
	}
	c.mu.Lock()
	attempt.ProductID = pkg.ProductID
	c.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	events := make(chan providerEvent, providerEventBuffer)
	deliver := func(event providerEvent) {
		select {
		case events <- event:
		case <-done:
		}
	}

	detachUpdated := c.provider.OnPurchaseUpdated(func(tx domain.Transaction) {
		deliver(providerEvent{tx: &tx})
	})
	defer detachUpdated()
	detachError := c.provider.OnPurchaseError(func(failure domain.PurchaseFailure) {
		deliver(providerEvent{failure: &failure})
	})
	defer detachError()

	if err := c.provider.BeginPurchase(ctx, pkg); err != nil {
		if errors.Is(err, domain.ErrUserCancelled) {
			return c.cancel(attempt)
		}
		return c.fail(attempt, fmt.Errorf("begin purchase of %s: %w", pkg.ProductID, err))
	}
	c.transition(attempt, domain.PurchaseAwaitingProviderEvent)

	for {
		select {
		case <-ctx.Done():
			return c.fail(attempt, fmt.Errorf("await purchase of %s: %w", pkg.ProductID, ctx.Err()))
		case event := <-events:
			if event.failure != nil {
				if event.failure.ProductID != "" && event.failure.ProductID != pkg.ProductID {
					c.logger.Debug().Str("product_id", event.failure.ProductID).Msg("ignoring purchase error for another product")
					continue
				}
				if event.failure.Cancelled() {
					return c.cancel(attempt)
				}
				return c.fail(attempt, fmt.Errorf("purchase of %s: %w", pkg.ProductID, *event.failure))
			}

			if event.tx.ProductID != pkg.ProductID {
				c.logger.Debug().Str("product_id", event.tx.ProductID).Msg("ignoring purchase update for another product")
				continue
			}
			return c.verify(ctx, attempt, *event.tx)
		}
	}
}

func (c *PurchaseController) verify(ctx context.Context, attempt *domain.PurchaseAttempt, tx domain.Transaction) (domain.PurchaseOutcome, error) {
	c.transition(attempt, domain.PurchaseVerifying)

	if err := c.provider.FinishTransaction(ctx, tx); err != nil {
		return c.fail(attempt, fmt.Errorf("%w: finish transaction %s: %w", domain.ErrTransactionFinalizationFailed, tx.ID, err))
	}

	status, err := c.engine.statusAfterPurchase(ctx, tx)
	if err != nil {
		return c.fail(attempt, fmt.Errorf("%w: %w", domain.ErrTransactionFinalizationFailed, err))
	}
	if err := c.engine.commit(ctx, status); err != nil {
		return c.fail(attempt, fmt.Errorf("%w: %w", domain.ErrTransactionFinalizationFailed, err))
	}

	c.transition(attempt, domain.PurchaseEntitled)
	c.logger.Info().Str("attempt_id", attempt.ID).Str("product_id", tx.ProductID).Msg("purchase entitled")

	return domain.PurchaseOutcome{Plan: attempt.Plan, Success: true, State: domain.PurchaseEntitled, Status: status}, nil
}

func (c *PurchaseController) begin(plan domain.PlanID) (*domain.PurchaseAttempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt != nil {
		return nil, fmt.Errorf("purchase %s: %w", plan, domain.ErrAlreadyInFlight)
	}

	c.attempt = &domain.PurchaseAttempt{
		ID:        uuid.NewString(),
		Plan:      plan,
		StartedAt: c.clock.Now(),
		State:     domain.PurchaseRequesting,
	}
	c.metrics.SetPurchaseInFlight(true)
	c.logger.Debug().Str("attempt_id", c.attempt.ID).Str("plan", string(plan)).Msg("purchase requesting")

	return c.attempt, nil
}

func (c *PurchaseController) end(attempt *domain.PurchaseAttempt) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt == attempt {
		c.lastState = attempt.State
		c.attempt = nil
	}
	c.metrics.SetPurchaseInFlight(false)
}

func (c *PurchaseController) transition(attempt *domain.PurchaseAttempt, state domain.PurchaseState) {
	c.mu.Lock()
	attempt.State = state
	c.mu.Unlock()

	if state.Terminal() {
		c.metrics.ObservePurchase(string(state))
	}
	c.logger.Debug().Str("attempt_id", attempt.ID).Str("state", string(state)).Msg("purchase state")
}

func (c *PurchaseController) cancel(attempt *domain.PurchaseAttempt) (domain.PurchaseOutcome, error) {
	c.transition(attempt, domain.PurchaseCancelled)
	c.logger.Info().Str("attempt_id", attempt.ID).Msg("purchase cancelled by user")

	return domain.PurchaseOutcome{Plan: attempt.Plan, Cancelled: true, State: domain.PurchaseCancelled}, nil
}

func (c *PurchaseController) fail(attempt *domain.PurchaseAttempt, err error) (domain.PurchaseOutcome, error) {
	c.transition(attempt, domain.PurchaseFailed)
	c.logger.Info().Err(err).Str("attempt_id", attempt.ID).Msg("purchase failed")

	return domain.PurchaseOutcome{Plan: attempt.Plan, State: domain.PurchaseFailed}, err
}
