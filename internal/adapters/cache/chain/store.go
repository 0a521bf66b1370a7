package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

// Store reads and writes the primary backend and falls back to the secondary
// when the primary fails. Successful primary writes are mirrored to the
// fallback so it stays warm for the next outage.
type Store struct {
	primary  ports.KeyValueStore
	fallback ports.KeyValueStore
	logger   zerolog.Logger
}

var _ ports.KeyValueStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary cache store is nil")
	errNilFallbackStore = errors.New("fallback cache store is nil")
)

func NewStore(primary ports.KeyValueStore, fallback ports.KeyValueStore) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.KeyValueStore, fallback ports.KeyValueStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback, logger: zerolog.Nop()}, nil
}

// WithLogger reports failed mirror writes to logger.
func (s *Store) WithLogger(logger zerolog.Logger) *Store {
	s.logger = logger.With().Str("component", "cache_chain").Logger()
	return s
}

func (s *Store) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	values, err := s.primary.Load(ctx, keys...)
	if err == nil {
		return values, nil
	}
	if shouldSkipFallback(err) {
		return nil, err
	}

	fallbackValues, fallbackErr := s.fallback.Load(ctx, keys...)
	if fallbackErr == nil {
		return fallbackValues, nil
	}

	return nil, fmt.Errorf("primary backend load failed: %w; fallback backend load failed: %w", err, fallbackErr)
}

func (s *Store) Save(ctx context.Context, values map[string]string) error {
	err := s.primary.Save(ctx, values)
	if err == nil {
		if mirrorErr := s.fallback.Save(ctx, values); mirrorErr != nil {
			s.logger.Warn().Err(mirrorErr).Msg("mirror save to fallback cache")
		}
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Save(ctx, values)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend save failed: %w; fallback backend save failed: %w", err, fallbackErr)
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	err := s.primary.Delete(ctx, keys...)
	if err == nil {
		if mirrorErr := s.fallback.Delete(ctx, keys...); mirrorErr != nil {
			s.logger.Warn().Err(mirrorErr).Msg("mirror delete to fallback cache")
		}
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, keys...)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
