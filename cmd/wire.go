package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	chainstore "github.com/bnema/syntrafit-entitlements/internal/adapters/cache/chain"
	memorystore "github.com/bnema/syntrafit-entitlements/internal/adapters/cache/memory"
	redisstore "github.com/bnema/syntrafit-entitlements/internal/adapters/cache/redis"
	sqlitestore "github.com/bnema/syntrafit-entitlements/internal/adapters/cache/sqlite"
	tomlstore "github.com/bnema/syntrafit-entitlements/internal/adapters/cache/toml"
	"github.com/bnema/syntrafit-entitlements/internal/adapters/credentials"
	"github.com/bnema/syntrafit-entitlements/internal/adapters/opener"
	"github.com/bnema/syntrafit-entitlements/internal/adapters/purchase"
	"github.com/bnema/syntrafit-entitlements/internal/adapters/remote/httpapi"
	statusadapter "github.com/bnema/syntrafit-entitlements/internal/adapters/render/status"
	"github.com/bnema/syntrafit-entitlements/internal/adapters/store/sandbox"
	"github.com/bnema/syntrafit-entitlements/internal/adapters/tomlfile"
	"github.com/bnema/syntrafit-entitlements/internal/application"
	"github.com/bnema/syntrafit-entitlements/internal/config"
	"github.com/bnema/syntrafit-entitlements/internal/metrics"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const sqliteCacheFileName = "entitlement.db"

type app struct {
	cfg            config.Config
	viper          *viper.Viper
	service        *application.Service
	remote         *httpapi.Client
	sandbox        *sandbox.Store
	registry       *prometheus.Registry
	logger         zerolog.Logger
	statusRenderer func(statusadapter.Report, statusadapter.RenderOptions) (string, error)
	clock          ports.Clock
	closers        []func() error
}

// appLoader wires the application once persistent flags are parsed.
type appLoader struct {
	configFile string
	logLevel   string
}

// run wires a fresh app for cmd, hands it to fn and tears it down afterwards.
func (l *appLoader) run(cmd *cobra.Command, fn func(*app) error) error {
	a, err := wireApp(cmd.Context(), l.configFile, l.logLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.close(); closeErr != nil {
			a.logger.Warn().Err(closeErr).Msg("shutdown")
		}
	}()

	return fn(a)
}

func wireApp(ctx context.Context, configFile string, logLevel string, logOutput io.Writer) (*app, error) {
	dotEnvPath, err := tomlfile.DefaultPath(".env")
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(".env", dotEnvPath); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	v, err := config.New(configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := newLogger(logOutput, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &app{
		cfg:            cfg,
		viper:          v,
		registry:       registry,
		logger:         logger,
		statusRenderer: statusadapter.Render,
		clock:          ports.SystemClock{},
	}

	deps := application.Dependencies{
		Opener:  opener.New(),
		Clock:   a.clock,
		Logger:  logger,
		Metrics: metrics.New(registry),
	}

	if deps.Cache, err = a.wireCache(); err != nil {
		_ = a.close()
		return nil, fmt.Errorf("wire entitlement cache: %w", err)
	}

	if cfg.Remote.Enabled() {
		apiKey, err := resolveAPIKey(ctx, cfg.Remote.APIKey)
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("resolve remote.api_key: %w", err)
		}

		a.remote, err = httpapi.NewClient(httpapi.Config{
			BaseURL:       cfg.Remote.BaseURL,
			APIKey:        apiKey,
			AppUserID:     cfg.Remote.AppUserID,
			EntitlementID: cfg.Entitlement.ID,
			EventsURL:     cfg.Remote.EventsURL,
		}, a.clock, logger)
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("wire remote entitlement client: %w", err)
		}
		deps.Remote = a.remote
		deps.Purchase = purchase.NewRemotePurchaser(a.remote, a.clock)
	}

	if cfg.Store.Backend == "sandbox" {
		if a.sandbox, err = a.wireSandbox(); err != nil {
			_ = a.close()
			return nil, fmt.Errorf("wire sandbox store: %w", err)
		}
		deps.Store = a.sandbox
		if deps.Purchase == nil {
			deps.Purchase = purchase.NewStorePurchaser(a.sandbox, cfg.Products)
		}
	}

	a.service = application.NewService(deps, application.Config{
		Products:             cfg.Products,
		PremiumFeatures:      cfg.Entitlement.PremiumFeatures,
		RevalidationInterval: cfg.Entitlement.RevalidationInterval,
		RevalidationTick:     cfg.Entitlement.RevalidationTick,
		FallbackPrices:       cfg.Prices,
		Platform:             cfg.Platform.OS,
		PackageName:          cfg.Platform.Package,
	})

	return a, nil
}

func resolveAPIKey(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}

	resolver, err := credentials.NewDefaultResolver()
	if err != nil {
		return "", err
	}

	return resolver.Resolve(ctx, ref)
}

func (a *app) wireCache() (ports.KeyValueStore, error) {
	switch a.cfg.Cache.Backend {
	case config.CacheMemory:
		return memorystore.NewStore(), nil
	case config.CacheSQLite:
		path := a.cfg.Cache.SQLitePath
		if path == "" {
			defaultPath, err := tomlfile.DefaultPath(sqliteCacheFileName)
			if err != nil {
				return nil, err
			}
			path = defaultPath
		}
		store, err := sqlitestore.NewStore(path, a.clock)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case config.CacheRedis, config.CacheRedisTOML:
		rdb, err := redisstore.NewClient(a.cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		store := redisstore.NewStore(rdb, a.cfg.Cache.RedisPrefix, 0)
		a.closers = append(a.closers, store.Close)
		if a.cfg.Cache.Backend == config.CacheRedis {
			return store, nil
		}

		fallback, err := tomlstore.NewStore(a.viper, a.clock)
		if err != nil {
			return nil, err
		}
		return chainstore.NewStore(store, fallback).WithLogger(a.logger), nil
	default:
		return tomlstore.NewStore(a.viper, a.clock)
	}
}

func (a *app) wireSandbox() (*sandbox.Store, error) {
	outcome, err := sandbox.ParseOutcome(a.cfg.Store.SandboxOutcome)
	if err != nil {
		return nil, err
	}

	prices := map[string]string{}
	for _, plan := range paidPlans {
		productID, ok := a.cfg.Products.ProductFor(plan)
		if ok && a.cfg.Prices[plan] != "" {
			prices[productID] = a.cfg.Prices[plan]
		}
	}

	return sandbox.NewStore(sandbox.Config{
		LedgerPath: a.cfg.Store.LedgerPath,
		Platform:   a.cfg.Platform.OS,
		Outcome:    outcome,
		Products:   a.cfg.Products,
		Prices:     prices,
		Delay:      a.cfg.Store.SandboxDelay,
	}, a.clock)
}

func (a *app) close() error {
	if a.sandbox != nil {
		a.sandbox.Wait()
	}
	if a.service != nil {
		a.service.Close()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}

	return errors.Join(errs...)
}

func (a *app) now() time.Time {
	return a.clock.Now()
}

func newLogger(output io.Writer, level string) (zerolog.Logger, error) {
	parsed := zerolog.WarnLevel
	if level != "" {
		var err error
		if parsed, err = zerolog.ParseLevel(level); err != nil {
			return zerolog.Nop(), fmt.Errorf("parse log level: %w", err)
		}
	}

	writer := zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger(), nil
}
