package ports

import "context"

// KeyValueStore is the durable store behind the entitlement cache. Save and
// Delete apply to all given keys as one unit: either every key changes or
// none does.
type KeyValueStore interface {
	Load(ctx context.Context, keys ...string) (map[string]string, error)
	Save(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}
