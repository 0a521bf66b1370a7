package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/syntrafit-entitlements/internal/adapters/httpserver"
	"github.com/bnema/syntrafit-entitlements/internal/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(loader *appLoader) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the entitlement API over HTTP",
		Long:  "Serve status, access checks, purchases, restores, prices, health and Prometheus metrics over HTTP. The config file is watched and premium features and the revalidation interval are applied without a restart.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return loader.run(cmd, func(a *app) error {
				if addr == "" {
					addr = a.cfg.ServeAddr
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				logger := a.logger.With().Str("component", "serve").Logger()

				unsubscribe := a.service.OnPaywall(func(feature string) {
					logger.Info().Str("feature", feature).Msg("premium feature denied")
				})
				defer unsubscribe()

				if path := a.viper.ConfigFileUsed(); path != "" {
					if _, err := os.Stat(path); err == nil {
						config.Watch(a.viper, a.logger, func(cfg config.Config) {
							a.service.UpdatePolicy(cfg.Entitlement.PremiumFeatures, cfg.Entitlement.RevalidationInterval)
						})
					}
				}

				status := a.service.Start(ctx)
				logger.Info().Bool("valid", status.Valid).Str("source", string(status.Source)).Msg("entitlement validated")
				if err := a.service.StartRevalidation(); err != nil {
					return fmt.Errorf("start revalidation: %w", err)
				}

				listener, err := net.Listen("tcp", addr)
				if err != nil {
					return fmt.Errorf("listen on %s: %w", addr, err)
				}

				server := &http.Server{
					Handler: httpserver.NewRouter(a.service, httpserver.Options{
						Gatherer: a.registry,
						Clock:    a.clock,
						Logger:   a.logger,
					}),
					ReadHeaderTimeout: 10 * time.Second,
					BaseContext:       func(net.Listener) context.Context { return ctx },
				}

				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					logger.Info().Str("addr", listener.Addr().String()).Msg("serving entitlement api")
					if _, err := fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s\n", listener.Addr()); err != nil {
						return err
					}
					if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("serve http: %w", err)
					}
					return nil
				})
				g.Go(func() error {
					<-gctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					return server.Shutdown(shutdownCtx)
				})
				if a.remote != nil {
					g.Go(func() error {
						if err := a.remote.Listen(gctx); err != nil && !errors.Is(err, context.Canceled) {
							return fmt.Errorf("entitlement event stream: %w", err)
						}
						return nil
					})
				}

				return g.Wait()
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default serve.addr from config)")

	return cmd
}
