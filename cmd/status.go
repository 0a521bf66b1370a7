package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/syntrafit-entitlements/internal/adapters/render/status"
	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

func newStatusCmd(loader *appLoader) *cobra.Command {
	var (
		asJSON  bool
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current subscription status",
		Long:  "Validate the entitlement against the configured providers and show the result. With --offline only the local cache is read.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return loader.run(cmd, func(a *app) error {
				var status domain.Status
				if offline {
					cached, err := a.service.Cached(cmd.Context())
					if err != nil {
						return fmt.Errorf("read cached entitlement: %w", err)
					}
					status = cached
				} else {
					status = a.service.Start(cmd.Context())
				}

				report := statusadapter.Report{
					Status:        status,
					PurchaseState: a.service.PurchaseState(),
				}
				if !offline && !status.ActiveAt(a.now()) {
					report.Prices = planPrices(cmd, a, paidPlans)
				}

				return writeStatusOutput(cmd, a, report, asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "read the local cache only")

	return cmd
}

func writeStatusOutput(cmd *cobra.Command, a *app, report statusadapter.Report, asJSON bool) error {
	staleAfter := a.service.Policy().RevalidationInterval

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(statusadapter.NewStatusJSON(report.Status, a.now(), staleAfter))
	}

	rendered, err := a.statusRenderer(report, statusadapter.RenderOptions{
		Now:        a.now(),
		StaleAfter: staleAfter,
	})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
