package chain

import (
	"bytes"
	"context"
	"errors"
	"testing"

	portmocks "github.com/bnema/syntrafit-entitlements/internal/ports/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var entitlementValues = map[string]string{
	"isSubscribed":       "true",
	"subscriptionExpiry": "2099-01-01T00:00:00Z",
}

func TestStoreLoadUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockKeyValueStore(t)
	fallback := portmocks.NewMockKeyValueStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Load(mock.Anything, "isSubscribed", "subscriptionExpiry").Return(entitlementValues, nil).Once()

	values, err := store.Load(context.Background(), "isSubscribed", "subscriptionExpiry")
	require.NoError(t, err)
	assert.Equal(t, entitlementValues, values)
}

func TestStoreLoadFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockKeyValueStore(t)
	fallback := portmocks.NewMockKeyValueStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Load(mock.Anything, "isSubscribed").Return(nil, errors.New("redis down")).Once()
	fallback.EXPECT().Load(mock.Anything, "isSubscribed").Return(map[string]string{"isSubscribed": "false"}, nil).Once()

	values, err := store.Load(context.Background(), "isSubscribed")
	require.NoError(t, err)
	assert.Equal(t, "false", values["isSubscribed"])
}

func TestStoreLoadReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockKeyValueStore(t)
	fallback := portmocks.NewMockKeyValueStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Load(mock.Anything, "isSubscribed").Return(nil, errors.New("redis failed")).Once()
	fallback.EXPECT().Load(mock.Anything, "isSubscribed").Return(nil, errors.New("file failed")).Once()

	_, err := store.Load(context.Background(), "isSubscribed")
	require.Error(t, err)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
	assert.ErrorContains(t, err, "redis failed")
	assert.ErrorContains(t, err, "file failed")
}

func TestStoreSaveMirrorsToFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockKeyValueStore(t)
	fallback := portmocks.NewMockKeyValueStore(t)
	var logs bytes.Buffer
	store := NewStore(primary, fallback).WithLogger(zerolog.New(&logs))

	primary.EXPECT().Save(mock.Anything, entitlementValues).Return(nil).Once()
	fallback.EXPECT().Save(mock.Anything, entitlementValues).Return(errors.New("disk full")).Once()

	require.NoError(t, store.Save(context.Background(), entitlementValues))
	assert.Contains(t, logs.String(), "mirror save to fallback cache")
	assert.Contains(t, logs.String(), "disk full")
}

func TestStoreSaveFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockKeyValueStore(t)
	fallback := portmocks.NewMockKeyValueStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Save(mock.Anything, entitlementValues).Return(errors.New("redis down")).Once()
	fallback.EXPECT().Save(mock.Anything, entitlementValues).Return(nil).Once()

	require.NoError(t, store.Save(context.Background(), entitlementValues))
}

func TestStoreDeleteDoesNotFallBackOnContextCancellation(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockKeyValueStore(t)
	fallback := portmocks.NewMockKeyValueStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, "isSubscribed", "subscriptionExpiry").Return(context.Canceled).Once()

	err := store.Delete(context.Background(), "isSubscribed", "subscriptionExpiry")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreCheckedRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStoreChecked(nil, portmocks.NewMockKeyValueStore(t))
	assert.ErrorIs(t, err, errNilPrimaryStore)

	_, err = NewStoreChecked(portmocks.NewMockKeyValueStore(t), nil)
	assert.ErrorIs(t, err, errNilFallbackStore)

	assert.Panics(t, func() { NewStore(nil, nil) })
}
