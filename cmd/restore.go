package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/syntrafit-entitlements/internal/adapters/render/status"
)

type restoreJSON struct {
	Success bool                     `json:"success"`
	Status  statusadapter.StatusJSON `json:"status"`
}

func newRestoreCmd(loader *appLoader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore previous purchases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return loader.run(cmd, func(a *app) error {
				outcome, err := a.service.Restore(cmd.Context())
				if err != nil {
					return fmt.Errorf("restore purchases: %w", err)
				}

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(restoreJSON{
						Success: outcome.Success,
						Status:  statusadapter.NewStatusJSON(outcome.Status, a.now(), a.service.Policy().RevalidationInterval),
					})
				}

				if !outcome.Success {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "No active subscription found to restore.")
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Subscription restored: %s\n", describeStatus(outcome.Status))
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON")

	return cmd
}
