// Package config loads subs settings from ~/.syntrafit/config.toml, SUBS_*
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bnema/syntrafit-entitlements/internal/adapters/tomlfile"
	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

const (
	EnvPrefix      = "SUBS"
	configFileName = "config.toml"
)

const (
	CacheTOML      = "toml"
	CacheRedis     = "redis"
	CacheSQLite    = "sqlite"
	CacheMemory    = "memory"
	CacheRedisTOML = "redis+toml"
)

var DefaultPremiumFeatures = []string{
	"ai_agent",
	"workout_plans",
	"nutrition_plans",
	"exercise_library",
	"meal_tracking",
	"progress_tracking",
}

type Config struct {
	Entitlement Entitlement
	Products    domain.Products
	Prices      map[domain.PlanID]string
	Platform    Platform
	Cache       Cache
	Remote      Remote
	Store       Store
	LogLevel    string
	ServeAddr   string
}

type Entitlement struct {
	ID                   string
	PremiumFeatures      []string
	RevalidationInterval time.Duration
	RevalidationTick     time.Duration
}

type Platform struct {
	OS      string
	Package string
}

type Cache struct {
	Backend     string
	Path        string
	SQLitePath  string
	RedisURL    string
	RedisPrefix string
}

type Remote struct {
	BaseURL   string
	APIKey    string
	AppUserID string
	EventsURL string
}

// Enabled reports whether a remote entitlement backend is configured.
func (r Remote) Enabled() bool {
	return strings.TrimSpace(r.BaseURL) != ""
}

type Store struct {
	Backend        string
	LedgerPath     string
	SandboxOutcome string
	// SandboxDelay holds back sandbox store events, like a real purchase sheet.
	SandboxDelay time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("entitlement.id", "Pro")
	v.SetDefault("entitlement.premium_features", DefaultPremiumFeatures)
	v.SetDefault("entitlement.revalidation_interval", "24h")
	v.SetDefault("entitlement.revalidation_tick", "1h")
	v.SetDefault("products.monthly", "syntrafit_sub_monthly_2")
	v.SetDefault("products.yearly", "syntrafit_sub_yearly_2")
	v.SetDefault("prices.monthly", "€8.99")
	v.SetDefault("prices.yearly", "€69.99")
	v.SetDefault("platform.os", "ios")
	v.SetDefault("platform.package", "com.spartain")
	v.SetDefault("cache.backend", CacheTOML)
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.sqlite_path", "")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.redis_prefix", "subs:entitlement:")
	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.api_key", "")
	v.SetDefault("remote.app_user_id", "")
	v.SetDefault("remote.events_url", "")
	v.SetDefault("store.backend", "sandbox")
	v.SetDefault("store.ledger_path", "")
	v.SetDefault("store.sandbox_outcome", "approve")
	v.SetDefault("store.sandbox_delay", "0s")
	v.SetDefault("log.level", "warn")
	v.SetDefault("serve.addr", "127.0.0.1:8787")
}

// New builds a viper instance over configFile (~/.syntrafit/config.toml when
// empty). A missing file is not an error.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		defaultPath, err := tomlfile.DefaultPath(configFileName)
		if err != nil {
			return nil, err
		}
		configFile = defaultPath
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	return v, nil
}

// LoadDotEnv exports the variables of each existing file into the process
// environment. Variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	return nil
}

func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Entitlement: Entitlement{
			ID:              strings.TrimSpace(v.GetString("entitlement.id")),
			PremiumFeatures: stringList(v, "entitlement.premium_features"),
		},
		Products: domain.Products{
			Monthly: strings.TrimSpace(v.GetString("products.monthly")),
			Yearly:  strings.TrimSpace(v.GetString("products.yearly")),
		},
		Prices: map[domain.PlanID]string{
			domain.PlanMonthly: v.GetString("prices.monthly"),
			domain.PlanYearly:  v.GetString("prices.yearly"),
		},
		Platform: Platform{
			OS:      strings.ToLower(strings.TrimSpace(v.GetString("platform.os"))),
			Package: strings.TrimSpace(v.GetString("platform.package")),
		},
		Cache: Cache{
			Backend:     strings.ToLower(strings.TrimSpace(v.GetString("cache.backend"))),
			Path:        v.GetString("cache.path"),
			SQLitePath:  v.GetString("cache.sqlite_path"),
			RedisURL:    v.GetString("cache.redis_url"),
			RedisPrefix: v.GetString("cache.redis_prefix"),
		},
		Remote: Remote{
			BaseURL:   v.GetString("remote.base_url"),
			APIKey:    v.GetString("remote.api_key"),
			AppUserID: v.GetString("remote.app_user_id"),
			EventsURL: v.GetString("remote.events_url"),
		},
		Store: Store{
			Backend:        strings.ToLower(strings.TrimSpace(v.GetString("store.backend"))),
			LedgerPath:     v.GetString("store.ledger_path"),
			SandboxOutcome: v.GetString("store.sandbox_outcome"),
		},
		LogLevel:  v.GetString("log.level"),
		ServeAddr: v.GetString("serve.addr"),
	}

	var err error
	if cfg.Entitlement.RevalidationInterval, err = duration(v, "entitlement.revalidation_interval"); err != nil {
		return Config{}, err
	}
	if cfg.Entitlement.RevalidationTick, err = duration(v, "entitlement.revalidation_tick"); err != nil {
		return Config{}, err
	}
	if cfg.Store.SandboxDelay, err = duration(v, "store.sandbox_delay"); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case CacheTOML, CacheRedis, CacheSQLite, CacheMemory, CacheRedisTOML:
	default:
		return fmt.Errorf("unsupported cache backend %q", c.Cache.Backend)
	}
	if (c.Cache.Backend == CacheRedis || c.Cache.Backend == CacheRedisTOML) && strings.TrimSpace(c.Cache.RedisURL) == "" {
		return fmt.Errorf("cache backend %q requires cache.redis_url", c.Cache.Backend)
	}

	switch c.Store.Backend {
	case "sandbox", "none":
	default:
		return fmt.Errorf("unsupported store backend %q", c.Store.Backend)
	}

	if c.Remote.Enabled() && strings.TrimSpace(c.Remote.AppUserID) == "" {
		return errors.New("remote.base_url requires remote.app_user_id")
	}
	if c.Entitlement.ID == "" {
		return errors.New("entitlement.id is empty")
	}

	return nil
}

// stringList accepts both a TOML array and a comma separated string, the
// form environment variables arrive in.
func stringList(v *viper.Viper, key string) []string {
	var raw []string
	switch value := v.Get(key).(type) {
	case string:
		raw = strings.Split(value, ",")
	default:
		raw = v.GetStringSlice(key)
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}

	return d, nil
}
