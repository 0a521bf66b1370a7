package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/syntrafit-entitlements/internal/adapters/render/status"
	"github.com/bnema/syntrafit-entitlements/internal/adapters/store/sandbox"
	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

const defaultPurchaseTimeout = 5 * time.Minute

type purchaseJSON struct {
	Plan      domain.PlanID            `json:"plan"`
	Success   bool                     `json:"success"`
	Cancelled bool                     `json:"cancelled"`
	State     domain.PurchaseState     `json:"state"`
	Status    statusadapter.StatusJSON `json:"status"`
}

func newPurchaseCmd(loader *appLoader) *cobra.Command {
	var (
		asJSON  bool
		outcome string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "purchase <plan>",
		Short: "Purchase a plan (monthly, yearly or free)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := domain.ParsePlan(args[0])
			if err != nil {
				return err
			}

			return loader.run(cmd, func(a *app) error {
				if outcome != "" {
					if a.sandbox == nil {
						return errors.New("--outcome requires the sandbox store")
					}
					parsed, err := sandbox.ParseOutcome(outcome)
					if err != nil {
						return err
					}
					a.sandbox.SetOutcome(parsed)
				}

				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				defer cancel()

				a.service.Start(ctx)

				var result domain.PurchaseOutcome
				buy := func(ctx context.Context) error {
					var err error
					result, err = a.service.Purchase(ctx, plan)
					return err
				}

				if asJSON || plan == domain.PlanFree {
					err = buy(ctx)
				} else {
					label := fmt.Sprintf("Purchasing %s plan (%s)...", plan, a.service.Price(ctx, plan))
					err = runPurchaseProgress(ctx, cmd.ErrOrStderr(), label, a.service.PurchaseState, buy)
				}
				if err != nil {
					return fmt.Errorf("purchase %s: %w", plan, err)
				}

				return writePurchaseOutput(cmd, a, result, asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON")
	cmd.Flags().StringVar(&outcome, "outcome", "", "sandbox store outcome for this purchase: approve, cancel, fail")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultPurchaseTimeout, "give up waiting for the store after this long")

	return cmd
}

func writePurchaseOutput(cmd *cobra.Command, a *app, result domain.PurchaseOutcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(purchaseJSON{
			Plan:      result.Plan,
			Success:   result.Success,
			Cancelled: result.Cancelled,
			State:     result.State,
			Status:    statusadapter.NewStatusJSON(result.Status, a.now(), a.service.Policy().RevalidationInterval),
		})
	}

	var err error
	switch {
	case result.Plan == domain.PlanFree:
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "Free plan selected, premium features stay locked.")
	case result.Cancelled:
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "Purchase cancelled.")
	case result.Success:
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Purchase complete: %s\n", describeStatus(result.Status))
	default:
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Purchase not completed (%s).\n", result.State)
	}

	return err
}
