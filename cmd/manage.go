package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

func newManageCmd(loader *appLoader) *cobra.Command {
	var (
		rawPlan   string
		printOnly bool
	)

	cmd := &cobra.Command{
		Use:   "manage",
		Short: "Open the platform subscription management page",
		Long:  "Open the App Store or Google Play subscription management page for the current (or given) plan. The plain web page is used when the native link cannot be opened.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var plan domain.PlanID
			if rawPlan != "" {
				parsed, err := domain.ParsePlan(rawPlan)
				if err != nil {
					return err
				}
				plan = parsed
			}

			return loader.run(cmd, func(a *app) error {
				if plan == "" {
					a.service.Start(cmd.Context())
				}

				if printOnly {
					primary, fallback, err := a.service.ManagementURLs(plan)
					if err != nil {
						return err
					}
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), primary); err != nil {
						return err
					}
					if fallback != primary {
						_, err = fmt.Fprintln(cmd.OutOrStdout(), fallback)
					}
					return err
				}

				opened, err := a.service.OpenManagement(cmd.Context(), plan)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", opened)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&rawPlan, "plan", "", "plan to manage (default: the current subscription)")
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the management links instead of opening them")

	return cmd
}
