package toml

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/bnema/syntrafit-entitlements/internal/adapters/tomlfile"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const (
	cachePathKey  = "cache.path"
	cacheFileName = "entitlement.toml"
)

// Store keeps cache entries in one TOML file. Every Save or Delete rewrites
// the whole file, so multi-key updates land together.
type Store struct {
	path  string
	mu    *sync.RWMutex
	clock ports.Clock
}

var _ ports.KeyValueStore = (*Store)(nil)

func NewStore(cfg *viper.Viper, clock ports.Clock) (*Store, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	path := cfg.GetString(cachePathKey)
	if path == "" {
		defaultPath, err := tomlfile.DefaultPath(cacheFileName)
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	path, err := tomlfile.NormalizePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve cache path: %w", err)
	}

	return &Store{path: path, mu: tomlfile.LockFor(path), clock: clock}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := file.Entries[key]; ok {
			values[key] = value
		}
	}

	return values, nil
}

func (s *Store) Save(ctx context.Context, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}
	for key, value := range values {
		file.Entries[key] = value
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.writeSchema(file)
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(file.Entries, key)
	}

	return s.writeSchema(file)
}

func (s *Store) readSchema() (fileSchema, error) {
	var file fileSchema
	if _, err := tomlfile.Read(s.path, &file); err != nil {
		return fileSchema{}, fmt.Errorf("read cache file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (s *Store) writeSchema(file fileSchema) error {
	file.applyDefaults()
	file.UpdatedAt = s.clock.Now().UTC().Format(time.RFC3339)

	if err := tomlfile.Write(s.path, file); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	return nil
}
