package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/syntrafit-entitlements/internal/adapters/render/status"
	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

func newWatchCmd(loader *appLoader) *cobra.Command {
	var (
		asJSON bool
		window time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow entitlement changes",
		Long:  "Validate the entitlement, then keep revalidating and print every status change until interrupted. Remote entitlement events and pending store transactions are processed while watching.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return loader.run(cmd, func(a *app) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				if window > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, window)
					defer cancel()
				}

				var mu sync.Mutex
				emit := func(status domain.Status) {
					mu.Lock()
					defer mu.Unlock()
					if err := writeWatchLine(cmd, a, status, asJSON); err != nil {
						a.logger.Warn().Err(err).Msg("write status change")
					}
				}

				unsubscribe := a.service.OnStatusChanged(emit)
				defer unsubscribe()

				a.service.Start(ctx)
				if err := a.service.StartRevalidation(); err != nil {
					return fmt.Errorf("start revalidation: %w", err)
				}

				var wg sync.WaitGroup
				if a.remote != nil {
					wg.Add(1)
					go func() {
						defer wg.Done()
						if err := a.remote.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
							a.logger.Warn().Err(err).Msg("entitlement event stream stopped")
						}
					}()
				}

				if a.sandbox != nil {
					replayed, err := a.sandbox.Replay(ctx)
					if err != nil {
						a.logger.Warn().Err(err).Msg("replay pending store transactions")
					} else if replayed > 0 {
						a.logger.Info().Int("transactions", replayed).Msg("replayed pending store transactions")
					}
				}

				<-ctx.Done()
				wg.Wait()
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per status change")
	cmd.Flags().DurationVar(&window, "for", 0, "stop watching after this long (default: until interrupted)")

	return cmd
}

func writeWatchLine(cmd *cobra.Command, a *app, status domain.Status, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(statusadapter.NewStatusJSON(status, a.now(), a.service.Policy().RevalidationInterval))
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", a.now().Local().Format(time.TimeOnly), describeStatus(status))
	return err
}
