package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var errFeatureLocked = errors.New("premium subscription required")

type accessJSON struct {
	Feature string `json:"feature"`
	Premium bool   `json:"premium"`
	Allowed bool   `json:"allowed"`
}

func newCheckCmd(loader *appLoader) *cobra.Command {
	var (
		asJSON   bool
		exitCode bool
	)

	cmd := &cobra.Command{
		Use:   "check <feature>",
		Short: "Check whether a feature is accessible",
		Long:  "Check whether the current entitlement grants access to a feature. Features outside the premium set are always allowed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feature := strings.TrimSpace(args[0])
			if feature == "" {
				return errors.New("feature is empty")
			}

			return loader.run(cmd, func(a *app) error {
				a.service.Start(cmd.Context())

				result := accessJSON{
					Feature: feature,
					Premium: a.service.Policy().Premium(feature),
					Allowed: a.service.CheckAccess(cmd.Context(), feature),
				}

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if err := enc.Encode(result); err != nil {
						return err
					}
				} else if err := writeAccess(cmd, a, result); err != nil {
					return err
				}

				if exitCode && !result.Allowed {
					return fmt.Errorf("%s: %w", feature, errFeatureLocked)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "fail when the feature is locked")

	return cmd
}

func writeAccess(cmd *cobra.Command, a *app, result accessJSON) error {
	out := cmd.OutOrStdout()

	switch {
	case result.Allowed && !result.Premium:
		_, err := fmt.Fprintf(out, "%s: allowed (free feature)\n", result.Feature)
		return err
	case result.Allowed:
		_, err := fmt.Fprintf(out, "%s: allowed\n", result.Feature)
		return err
	}

	if _, err := fmt.Fprintf(out, "%s: locked, premium required\n", result.Feature); err != nil {
		return err
	}
	for _, price := range planPrices(cmd, a, paidPlans) {
		if _, err := fmt.Fprintf(out, "  subs purchase %s  (%s)\n", price.Plan, price.Price); err != nil {
			return err
		}
	}

	return nil
}
