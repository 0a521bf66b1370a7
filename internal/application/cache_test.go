package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/syntrafit-entitlements/internal/adapters/cache/memory"
	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/ports/mocks"
)

func TestEntitlementCacheWriteThenRead(t *testing.T) {
	t.Parallel()

	kv := memory.NewStore()
	cache := NewEntitlementCache(kv, newFixedClock(testNow), zerolog.Nop(), nil)
	expiry := testNow.Add(72 * time.Hour)

	require.NoError(t, cache.Write(context.Background(), domain.CachedEntitlement{IsSubscribed: true, Expiry: &expiry}))

	values, err := kv.Load(context.Background(), CacheKeySubscribed, CacheKeyExpiry)
	require.NoError(t, err)
	assert.Equal(t, "true", values[CacheKeySubscribed])
	assert.Equal(t, expiry.Format(time.RFC3339Nano), values[CacheKeyExpiry])

	got, err := cache.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, got.IsSubscribed)
	require.NotNil(t, got.Expiry)
	assert.True(t, expiry.Equal(*got.Expiry))
}

func TestEntitlementCacheReadSelfHealsExpiredEntry(t *testing.T) {
	t.Parallel()

	kv := memory.NewStore()
	require.NoError(t, kv.Save(context.Background(), map[string]string{
		CacheKeySubscribed: "true",
		CacheKeyExpiry:     testNow.Add(-24 * time.Hour).Format(time.RFC3339),
	}))
	cache := NewEntitlementCache(kv, newFixedClock(testNow), zerolog.Nop(), nil)

	got, err := cache.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, got.IsSubscribed)

	values, err := kv.Load(context.Background(), CacheKeySubscribed, CacheKeyExpiry)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{CacheKeySubscribed: "false", CacheKeyExpiry: ""}, values)
}

func TestEntitlementCacheReadTreatsMissingExpiryAsNotSubscribed(t *testing.T) {
	t.Parallel()

	for name, expiry := range map[string]string{"missing": "", "garbage": "tomorrow"} {
		t.Run(name, func(t *testing.T) {
			kv := memory.NewStore()
			require.NoError(t, kv.Save(context.Background(), map[string]string{
				CacheKeySubscribed: "true",
				CacheKeyExpiry:     expiry,
			}))
			cache := NewEntitlementCache(kv, newFixedClock(testNow), zerolog.Nop(), nil)

			got, err := cache.Read(context.Background())
			require.NoError(t, err)
			assert.False(t, got.IsSubscribed)

			values, err := kv.Load(context.Background(), CacheKeySubscribed)
			require.NoError(t, err)
			assert.Equal(t, "false", values[CacheKeySubscribed])
		})
	}
}

func TestEntitlementCacheLifetimeRoundTrip(t *testing.T) {
	t.Parallel()

	kv := memory.NewStore()
	cache := NewEntitlementCache(kv, newFixedClock(testNow), zerolog.Nop(), nil)

	require.NoError(t, cache.Write(context.Background(), domain.CachedEntitlement{IsSubscribed: true}))

	got, err := cache.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, got.IsSubscribed)
	assert.Nil(t, got.Expiry)
}

func TestEntitlementCacheWriteNotSubscribedClearsExpiry(t *testing.T) {
	t.Parallel()

	kv := mocks.NewMockKeyValueStore(t)
	cache := NewEntitlementCache(kv, newFixedClock(testNow), zerolog.Nop(), nil)
	expiry := testNow.Add(time.Hour)

	kv.EXPECT().Save(mockAnyContext(), map[string]string{
		CacheKeySubscribed: "false",
		CacheKeyExpiry:     "",
	}).Return(nil).Once()

	require.NoError(t, cache.Write(context.Background(), domain.CachedEntitlement{IsSubscribed: false, Expiry: &expiry}))
}

func TestEntitlementCacheLoadErrorIsCacheUnavailable(t *testing.T) {
	t.Parallel()

	kv := mocks.NewMockKeyValueStore(t)
	cache := NewEntitlementCache(kv, newFixedClock(testNow), zerolog.Nop(), nil)

	kv.EXPECT().Load(mockAnyContext(), CacheKeySubscribed, CacheKeyExpiry).Return(nil, errors.New("disk gone")).Once()

	_, err := cache.Read(context.Background())
	require.ErrorIs(t, err, domain.ErrCacheUnavailable)
	assert.ErrorContains(t, err, "disk gone")
}

func TestEntitlementCacheClearDeletesBothKeys(t *testing.T) {
	t.Parallel()

	kv := mocks.NewMockKeyValueStore(t)
	cache := NewEntitlementCache(kv, newFixedClock(testNow), zerolog.Nop(), nil)

	kv.EXPECT().Delete(mockAnyContext(), CacheKeySubscribed, CacheKeyExpiry).Return(nil).Once()

	require.NoError(t, cache.Clear(context.Background()))
}
