package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/syntrafit-entitlements/internal/adapters/render/status"
	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

var paidPlans = []domain.PlanID{domain.PlanMonthly, domain.PlanYearly}

type planPriceJSON struct {
	Plan  domain.PlanID `json:"plan"`
	Price string        `json:"price"`
}

func newPriceCmd(loader *appLoader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "price [plan]",
		Short: "Show plan prices",
		Long:  "Show the display price of a plan (free, monthly or yearly), or of every paid plan when none is given. Store prices win over the configured fallbacks.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plans := paidPlans
			if len(args) == 1 {
				plan, err := domain.ParsePlan(args[0])
				if err != nil {
					return err
				}
				plans = []domain.PlanID{plan}
			}

			return loader.run(cmd, func(a *app) error {
				prices := planPrices(cmd, a, plans)

				if asJSON {
					out := make([]planPriceJSON, 0, len(prices))
					for _, price := range prices {
						out = append(out, planPriceJSON{Plan: price.Plan, Price: price.Price})
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(out)
				}

				for _, price := range prices {
					if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", price.Plan, price.Price); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print prices as JSON")

	return cmd
}

func planPrices(cmd *cobra.Command, a *app, plans []domain.PlanID) []statusadapter.PlanPrice {
	prices := make([]statusadapter.PlanPrice, 0, len(plans))
	for _, plan := range plans {
		prices = append(prices, statusadapter.PlanPrice{Plan: plan, Price: a.service.Price(cmd.Context(), plan)})
	}

	return prices
}
