package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoadDelete(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, map[string]string{"isSubscribed": "true", "subscriptionExpiry": ""}))

	values, err := store.Load(ctx, "isSubscribed", "subscriptionExpiry", "missing")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"isSubscribed": "true", "subscriptionExpiry": ""}, values)

	require.NoError(t, store.Delete(ctx, "isSubscribed"))
	values, err = store.Load(ctx, "isSubscribed")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestStoreCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewStore()
	assert.ErrorIs(t, store.Save(ctx, map[string]string{"k": "v"}), context.Canceled)
	_, err := store.Load(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Delete(ctx, "k"), context.Canceled)
}
