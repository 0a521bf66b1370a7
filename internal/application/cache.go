package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/metrics"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const (
	CacheKeySubscribed = "isSubscribed"
	CacheKeyExpiry     = "subscriptionExpiry"
)

// lifetimeExpiry encodes an entitlement without an end date. The persisted
// layout only has room for a timestamp.
var lifetimeExpiry = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// EntitlementCache persists the last known entitlement as two keys that are
// always written together.
type EntitlementCache struct {
	store   ports.KeyValueStore
	clock   ports.Clock
	logger  zerolog.Logger
	metrics *metrics.Collector
}

func NewEntitlementCache(store ports.KeyValueStore, clock ports.Clock, logger zerolog.Logger, recorder *metrics.Collector) *EntitlementCache {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &EntitlementCache{
		store:   store,
		clock:   clock,
		logger:  logger.With().Str("component", "entitlement_cache").Logger(),
		metrics: recorder,
	}
}

// Read returns the cached entitlement. An expired or half-written entry is
// rewritten as not subscribed before returning.
func (c *EntitlementCache) Read(ctx context.Context) (domain.CachedEntitlement, error) {
	values, err := c.store.Load(ctx, CacheKeySubscribed, CacheKeyExpiry)
	if err != nil {
		return domain.CachedEntitlement{}, fmt.Errorf("%w: load: %w", domain.ErrCacheUnavailable, err)
	}

	cached, consistent := decodeCachedEntitlement(values)
	if !cached.IsSubscribed {
		return domain.CachedEntitlement{}, nil
	}
	if consistent && !cached.Expired(c.clock.Now()) {
		return cached, nil
	}

	c.metrics.ObserveCacheSelfHeal()
	if err := c.Write(ctx, domain.CachedEntitlement{}); err != nil {
		c.logger.Warn().Err(err).Msg("clear stale cached entitlement")
	}

	return domain.CachedEntitlement{}, nil
}

func (c *EntitlementCache) Write(ctx context.Context, entitlement domain.CachedEntitlement) error {
	if err := c.store.Save(ctx, encodeCachedEntitlement(entitlement)); err != nil {
		return fmt.Errorf("%w: save: %w", domain.ErrCacheUnavailable, err)
	}

	return nil
}

func (c *EntitlementCache) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, CacheKeySubscribed, CacheKeyExpiry); err != nil {
		return fmt.Errorf("%w: delete: %w", domain.ErrCacheUnavailable, err)
	}

	return nil
}

func encodeCachedEntitlement(entitlement domain.CachedEntitlement) map[string]string {
	values := map[string]string{
		CacheKeySubscribed: strconv.FormatBool(entitlement.IsSubscribed),
		CacheKeyExpiry:     "",
	}
	if !entitlement.IsSubscribed {
		return values
	}

	expiry := lifetimeExpiry
	if entitlement.Expiry != nil {
		expiry = entitlement.Expiry.UTC()
	}
	values[CacheKeyExpiry] = expiry.Format(time.RFC3339Nano)

	return values
}

// decodeCachedEntitlement reports consistent=false when the flag is set but
// the expiry is missing or unparseable.
func decodeCachedEntitlement(values map[string]string) (domain.CachedEntitlement, bool) {
	subscribed, err := strconv.ParseBool(values[CacheKeySubscribed])
	if err != nil || !subscribed {
		return domain.CachedEntitlement{}, true
	}

	raw := values[CacheKeyExpiry]
	if raw == "" {
		return domain.CachedEntitlement{IsSubscribed: true}, false
	}
	expiry, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return domain.CachedEntitlement{IsSubscribed: true}, false
	}
	if expiry.Equal(lifetimeExpiry) {
		return domain.CachedEntitlement{IsSubscribed: true}, true
	}

	return domain.CachedEntitlement{IsSubscribed: true, Expiry: &expiry}, true
}
