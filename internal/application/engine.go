package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/metrics"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const DefaultRevalidationInterval = 24 * time.Hour

// AccessPolicy names the premium features and how long a published status
// is trusted before it is revalidated.
type AccessPolicy struct {
	premium              map[string]struct{}
	RevalidationInterval time.Duration
}

func NewAccessPolicy(premiumFeatures []string, revalidationInterval time.Duration) AccessPolicy {
	if revalidationInterval <= 0 {
		revalidationInterval = DefaultRevalidationInterval
	}

	premium := make(map[string]struct{}, len(premiumFeatures))
	for _, feature := range premiumFeatures {
		premium[feature] = struct{}{}
	}

	return AccessPolicy{premium: premium, RevalidationInterval: revalidationInterval}
}

func (p AccessPolicy) Premium(feature string) bool {
	_, ok := p.premium[feature]
	return ok
}

func (p AccessPolicy) Features() []string {
	features := make([]string, 0, len(p.premium))
	for feature := range p.premium {
		features = append(features, feature)
	}
	return features
}

// Engine reconciles remote, store and cached entitlements into one status.
type Engine struct {
	remote      ports.RemoteEntitlementProvider
	store       ports.StoreProvider
	cache       *EntitlementCache
	broadcaster *Broadcaster
	products    domain.Products
	clock       ports.Clock
	logger      zerolog.Logger
	metrics     *metrics.Collector

	policy   atomic.Pointer[AccessPolicy]
	group    singleflight.Group
	commitMu sync.Mutex
}

// NewEngine builds an engine. remote and store may each be nil when the
// platform does not offer them.
func NewEngine(
	remote ports.RemoteEntitlementProvider,
	store ports.StoreProvider,
	cache *EntitlementCache,
	broadcaster *Broadcaster,
	products domain.Products,
	policy AccessPolicy,
	clock ports.Clock,
	logger zerolog.Logger,
	recorder *metrics.Collector,
) *Engine {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	e := &Engine{
		remote:      remote,
		store:       store,
		cache:       cache,
		broadcaster: broadcaster,
		products:    products,
		clock:       clock,
		logger:      logger.With().Str("component", "engine").Logger(),
		metrics:     recorder,
	}
	e.SetPolicy(policy)

	return e
}

func (e *Engine) Policy() AccessPolicy {
	return *e.policy.Load()
}

// SetPolicy swaps the access policy. Safe to call while checks run.
func (e *Engine) SetPolicy(policy AccessPolicy) {
	if policy.RevalidationInterval <= 0 {
		policy.RevalidationInterval = DefaultRevalidationInterval
	}
	e.policy.Store(&policy)
}

// Validate resolves the entitlement from remote, then store, then cache, and
// publishes the result. Concurrent callers share one resolution, which runs
// detached from any single caller's cancellation. A caller whose context ends
// first gets the last published status.
func (e *Engine) Validate(ctx context.Context) domain.Status {
	shared := context.WithoutCancel(ctx)
	result := e.group.DoChan("validate", func() (any, error) {
		return e.validate(shared), nil
	})

	select {
	case res := <-result:
		return res.Val.(domain.Status)
	case <-ctx.Done():
		return e.broadcaster.Current()
	}
}

// CheckAccess grants free features unconditionally and premium features
// only on a valid entitlement. A denial signals the paywall.
func (e *Engine) CheckAccess(ctx context.Context, feature string) bool {
	policy := e.Policy()
	if !policy.Premium(feature) {
		return true
	}

	now := e.clock.Now()
	current := e.broadcaster.Current()
	if current.Valid && current.Fresh(now, policy.RevalidationInterval) {
		return true
	}

	status := e.Validate(ctx)
	if status.ActiveAt(e.clock.Now()) {
		return true
	}
	if ctx.Err() != nil {
		return false
	}

	e.logger.Debug().Str("feature", feature).Str("source", string(status.Source)).Msg("premium feature denied")
	e.broadcaster.SignalPaywall(feature)

	return false
}

func (e *Engine) validate(ctx context.Context) domain.Status {
	now := e.clock.Now()
	consulted, unexpected := 0, 0

	if e.remote != nil {
		consulted++
		status, err := e.statusFromRemote(now, func() (domain.RemoteEntitlement, error) {
			return e.remote.GetEntitlement(ctx)
		})
		switch {
		case err != nil:
			if e.recordProviderError(domain.ProviderRemote, err) {
				unexpected++
			}
		case status.Valid:
			return e.settle(ctx, status)
		}
	}

	if e.store != nil {
		consulted++
		status, err := e.statusFromStore(ctx, now)
		switch {
		case err != nil:
			if e.recordProviderError(domain.ProviderStore, err) {
				unexpected++
			}
		case status.Valid:
			return e.settle(ctx, status)
		}
	}

	cached, err := e.cache.Read(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("read cached entitlement")
	}
	if err == nil && cached.IsSubscribed {
		status := domain.NewStatus(domain.SourceCache, cached.Expiry, "", now)
		if status.Valid {
			e.publish(status)
			return status
		}
	}

	if consulted > 0 && unexpected == consulted {
		status := domain.InvalidStatus(domain.SourceError, now)
		e.publish(status)
		return status
	}

	return e.settle(ctx, domain.InvalidStatus(domain.SourceNone, now))
}

// settle writes the status through to the cache and publishes it. A cache
// failure leaves the previous publication in place.
func (e *Engine) settle(ctx context.Context, status domain.Status) domain.Status {
	if err := e.commit(ctx, status); err != nil {
		e.logger.Warn().Err(err).Str("source", string(status.Source)).Msg("entitlement not published")
	}

	return status
}

// commit persists status and then publishes it. Nothing is published when
// the write fails.
func (e *Engine) commit(ctx context.Context, status domain.Status) error {
	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	if err := e.cache.Write(ctx, status.Cached()); err != nil {
		return fmt.Errorf("write through entitlement: %w", err)
	}
	e.publishLocked(status)

	return nil
}

func (e *Engine) publish(status domain.Status) {
	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	e.publishLocked(status)
}

func (e *Engine) publishLocked(status domain.Status) {
	e.metrics.ObserveValidation(string(status.Source), status.Valid)
	e.broadcaster.Publish(status)
	e.logger.Debug().
		Bool("valid", status.Valid).
		Str("source", string(status.Source)).
		Str("product_id", status.ProductID).
		Msg("entitlement published")
}

// HandleRemoteChange applies an entitlement pushed by the remote provider.
func (e *Engine) HandleRemoteChange(entitlement domain.RemoteEntitlement) {
	ctx := context.Background()
	status, _ := e.statusFromRemote(e.clock.Now(), func() (domain.RemoteEntitlement, error) {
		return entitlement, nil
	})
	if status.Valid {
		e.settle(ctx, status)
		return
	}

	e.Validate(ctx)
}

// Restore asks the providers to rebuild ownership. A run where every
// provider failed returns an error and publishes nothing.
func (e *Engine) Restore(ctx context.Context) (domain.RestoreOutcome, error) {
	now := e.clock.Now()
	answered := false
	var errs []error

	if e.remote != nil {
		status, err := e.statusFromRemote(now, func() (domain.RemoteEntitlement, error) {
			return e.remote.Restore(ctx)
		})
		switch {
		case err != nil:
			e.recordProviderError(domain.ProviderRemote, err)
			errs = append(errs, fmt.Errorf("restore remote: %w", err))
		case status.Valid:
			return e.restored(ctx, status)
		default:
			answered = true
		}
	}

	if e.store != nil {
		status, err := e.statusFromStore(ctx, now)
		switch {
		case err != nil:
			e.recordProviderError(domain.ProviderStore, err)
			errs = append(errs, fmt.Errorf("restore store: %w", err))
		case status.Valid:
			return e.restored(ctx, status)
		default:
			answered = true
		}
	}

	if !answered {
		if len(errs) == 0 {
			return domain.RestoreOutcome{}, fmt.Errorf("restore purchases: %w", domain.ErrProviderUnavailable)
		}
		return domain.RestoreOutcome{}, fmt.Errorf("restore purchases: %w", errors.Join(errs...))
	}

	status := domain.InvalidStatus(domain.SourceNone, now)
	if err := e.commit(ctx, status); err != nil {
		return domain.RestoreOutcome{Status: status}, fmt.Errorf("restore purchases: %w", err)
	}

	return domain.RestoreOutcome{Status: status}, nil
}

func (e *Engine) restored(ctx context.Context, status domain.Status) (domain.RestoreOutcome, error) {
	if err := e.commit(ctx, status); err != nil {
		return domain.RestoreOutcome{Status: status}, fmt.Errorf("restore purchases: %w", err)
	}

	return domain.RestoreOutcome{Success: true, Status: status}, nil
}

// statusAfterPurchase derives the entitlement granted by a finished
// transaction: remote re-sync first, then the provider's own verification,
// then purchase time plus one period.
func (e *Engine) statusAfterPurchase(ctx context.Context, tx domain.Transaction) (domain.Status, error) {
	now := e.clock.Now()

	if e.remote != nil {
		entitlement, err := e.remote.GetEntitlement(ctx)
		if err != nil {
			return domain.Status{}, fmt.Errorf("re-sync remote entitlement: %w", err)
		}
		if status := remoteStatus(entitlement, tx.ProductID, now); status.Valid {
			return status, nil
		}
	}

	if tx.Entitlement != nil {
		if status := remoteStatus(*tx.Entitlement, tx.ProductID, now); status.Valid {
			return status, nil
		}
	}

	purchasedAt := tx.PurchasedAt
	if purchasedAt.IsZero() {
		purchasedAt = now
	}
	expiry, ok := domain.InferExpiry(tx.ProductID, purchasedAt)
	if !ok {
		return domain.Status{}, fmt.Errorf("derive expiry for %q: %w", tx.ProductID, domain.ErrNoValidEntitlement)
	}

	status := domain.NewStatus(domain.SourceStore, &expiry, tx.ProductID, now)
	if !status.Valid {
		return domain.Status{}, fmt.Errorf("purchase of %q already expired: %w", tx.ProductID, domain.ErrNoValidEntitlement)
	}

	return status, nil
}

func (e *Engine) statusFromRemote(now time.Time, fetch func() (domain.RemoteEntitlement, error)) (domain.Status, error) {
	entitlement, err := fetch()
	if err != nil {
		return domain.Status{}, err
	}

	return remoteStatus(entitlement, "", now), nil
}

func remoteStatus(entitlement domain.RemoteEntitlement, fallbackProductID string, now time.Time) domain.Status {
	if !entitlement.Active {
		return domain.InvalidStatus(domain.SourceRemote, now)
	}

	productID := entitlement.ProductID
	if productID == "" {
		productID = fallbackProductID
	}

	return domain.NewStatus(domain.SourceRemote, entitlement.Expiry, productID, now)
}

func (e *Engine) statusFromStore(ctx context.Context, now time.Time) (domain.Status, error) {
	purchases, err := e.store.ListOwnedPurchases(ctx)
	if err != nil {
		return domain.Status{}, err
	}

	var (
		best      domain.OwnedPurchase
		bestUntil time.Time
		found     bool
	)
	for _, purchase := range purchases {
		if !e.products.Known(purchase.ProductID) {
			continue
		}
		expiry, ok := domain.InferExpiry(purchase.ProductID, purchase.PurchasedAt)
		if !ok {
			e.logger.Debug().Str("product_id", purchase.ProductID).Msg("owned purchase without derivable expiry")
			continue
		}
		if !expiry.After(now) {
			continue
		}
		if !found || purchase.PurchasedAt.After(best.PurchasedAt) {
			best, bestUntil, found = purchase, expiry, true
		}
	}

	if !found {
		return domain.InvalidStatus(domain.SourceStore, now), nil
	}

	return domain.NewStatus(domain.SourceStore, &bestUntil, best.ProductID, now), nil
}

// recordProviderError logs a provider failure and reports whether it was
// unexpected. Unavailability is an expected fall-through.
func (e *Engine) recordProviderError(provider domain.ProviderKind, err error) bool {
	if isUnavailable(err) {
		e.metrics.ObserveProviderError(string(provider), "unavailable")
		e.logger.Debug().Err(err).Str("provider", string(provider)).Msg("provider unavailable")
		return false
	}

	e.metrics.ObserveProviderError(string(provider), "unexpected")
	e.logger.Warn().Err(err).Str("provider", string(provider)).Msg("provider failed")
	return true
}

func isUnavailable(err error) bool {
	if errors.Is(err, domain.ErrProviderUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
