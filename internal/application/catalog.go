package application

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const FreePlanPrice = "Free"

// Catalog keeps the last package list offered by the purchase provider.
type Catalog struct {
	provider       ports.PurchaseProvider
	fallbackPrices map[domain.PlanID]string
	logger         zerolog.Logger

	packages atomic.Pointer[map[domain.PlanID]domain.Package]
}

func NewCatalog(provider ports.PurchaseProvider, fallbackPrices map[domain.PlanID]string, logger zerolog.Logger) *Catalog {
	prices := make(map[domain.PlanID]string, len(fallbackPrices))
	for plan, price := range fallbackPrices {
		prices[plan] = price
	}

	return &Catalog{
		provider:       provider,
		fallbackPrices: prices,
		logger:         logger.With().Str("component", "catalog").Logger(),
	}
}

func (c *Catalog) Refresh(ctx context.Context) error {
	if c.provider == nil {
		return fmt.Errorf("refresh catalog: %w", domain.ErrProviderUnavailable)
	}

	packages, err := c.provider.Packages(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}

	byPlan := make(map[domain.PlanID]domain.Package, len(packages))
	for _, pkg := range packages {
		if pkg.Plan == "" || pkg.Plan == domain.PlanFree {
			continue
		}
		if _, seen := byPlan[pkg.Plan]; seen {
			continue
		}
		byPlan[pkg.Plan] = pkg
	}
	c.packages.Store(&byPlan)
	c.logger.Debug().Int("packages", len(byPlan)).Msg("catalog refreshed")

	return nil
}

func (c *Catalog) Loaded() bool {
	return c.packages.Load() != nil
}

func (c *Catalog) Package(plan domain.PlanID) (domain.Package, bool) {
	packages := c.packages.Load()
	if packages == nil {
		return domain.Package{}, false
	}

	pkg, ok := (*packages)[plan]
	return pkg, ok
}

// Price returns the provider's localized price, or the configured fallback
// when the provider has none.
func (c *Catalog) Price(plan domain.PlanID) string {
	if plan == domain.PlanFree {
		return FreePlanPrice
	}
	if pkg, ok := c.Package(plan); ok && pkg.PriceString != "" {
		return pkg.PriceString
	}

	return c.fallbackPrices[plan]
}

// Resolve looks up the package for plan, refreshing once on a miss.
func (c *Catalog) Resolve(ctx context.Context, plan domain.PlanID) (domain.Package, error) {
	if pkg, ok := c.Package(plan); ok {
		return pkg, nil
	}
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn().Err(err).Str("plan", string(plan)).Msg("catalog refresh before purchase")
	}
	if pkg, ok := c.Package(plan); ok {
		return pkg, nil
	}

	return domain.Package{}, fmt.Errorf("%w: %s", domain.ErrPackageUnavailable, plan)
}
