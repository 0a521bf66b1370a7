package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()

	config := viper.New()
	config.Set("cache.path", path)

	store, err := NewStore(config, nil)
	require.NoError(t, err)
	return store
}

func TestStoreSaveLoadDelete(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, filepath.Join(t.TempDir(), "entitlement.toml"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, map[string]string{
		"isSubscribed":       "true",
		"subscriptionExpiry": "2099-01-01T00:00:00Z",
	}))

	values, err := store.Load(ctx, "isSubscribed", "subscriptionExpiry", "missing")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"isSubscribed":       "true",
		"subscriptionExpiry": "2099-01-01T00:00:00Z",
	}, values)

	require.NoError(t, store.Delete(ctx, "isSubscribed", "subscriptionExpiry"))
	values, err = store.Load(ctx, "isSubscribed", "subscriptionExpiry")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestStoreMissingFileLoadsEmpty(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, filepath.Join(t.TempDir(), "missing", "entitlement.toml"))

	values, err := store.Load(context.Background(), "isSubscribed")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestStoreSaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	store, err := NewStore(viper.New(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), map[string]string{"isSubscribed": "false"}))

	info, err := os.Stat(filepath.Join(homeDir, ".syntrafit", "entitlement.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStoreSerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "entitlement.toml")
	store := newTestStore(t, path)
	require.NoError(t, store.Save(context.Background(), map[string]string{"isSubscribed": "false"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "[entries]")
}

func TestStoreFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "entitlement.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"version = 999",
		"",
		"[entries]",
		"",
	}, "\n")), 0o600))

	_, err := newTestStore(t, path).Load(context.Background(), "isSubscribed")
	assert.ErrorContains(t, err, "unsupported cache schema version")
}

func TestStoreMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "entitlement.toml")
	require.NoError(t, os.WriteFile(path, []byte("entries = ["), 0o600))

	_, err := newTestStore(t, path).Load(context.Background(), "isSubscribed")
	assert.ErrorContains(t, err, "decode entitlement.toml")
}

func TestStoreCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, filepath.Join(t.TempDir(), "entitlement.toml"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Save(ctx, map[string]string{"isSubscribed": "true"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStoreConcurrentSavesAcrossInstancesKeepAllKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "entitlement.toml")
	storeA := newTestStore(t, path)
	storeB := newTestStore(t, path)

	const perStoreWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perStoreWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	write := func(store *Store, prefix string) {
		defer wg.Done()
		<-start
		for i := 0; i < perStoreWrites; i++ {
			errCh <- store.Save(context.Background(), map[string]string{prefix + strconv.Itoa(i): "v"})
		}
	}
	go write(storeA, "a-")
	go write(storeB, "b-")

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	keys := make([]string, 0, perStoreWrites*2)
	for i := 0; i < perStoreWrites; i++ {
		keys = append(keys, "a-"+strconv.Itoa(i), "b-"+strconv.Itoa(i))
	}
	values, err := storeA.Load(context.Background(), keys...)
	require.NoError(t, err)
	assert.Len(t, values, perStoreWrites*2)
}
