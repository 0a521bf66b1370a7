package httpapi

import (
	"strings"
	"time"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

type subscriberEnvelope struct {
	Subscriber subscriberPayload `json:"subscriber"`
}

type subscriberPayload struct {
	OriginalAppUserID string                        `json:"original_app_user_id"`
	Entitlements      map[string]entitlementPayload `json:"entitlements"`
}

type entitlementPayload struct {
	ExpiresDate       *string `json:"expires_date"`
	ProductIdentifier string  `json:"product_identifier"`
	PurchaseDate      string  `json:"purchase_date"`
}

type offeringsPayload struct {
	CurrentOfferingID string            `json:"current_offering_id"`
	Offerings         []offeringPayload `json:"offerings"`
}

type offeringPayload struct {
	Identifier string           `json:"identifier"`
	Packages   []packagePayload `json:"packages"`
}

type packagePayload struct {
	Identifier                string `json:"identifier"`
	PlatformProductIdentifier string `json:"platform_product_identifier"`
	PriceString               string `json:"price_string"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type purchaseRequest struct {
	PackageID string `json:"package_id"`
}

type eventPayload struct {
	Type       string             `json:"type"`
	Subscriber *subscriberPayload `json:"subscriber"`
}

const (
	errorCodeUserCancelled = "purchase_cancelled"
	eventCustomerInfo      = "customer_info_updated"
)

// entitlement reduces the subscriber to the one configured entitlement. A
// null expires_date is a non-expiring grant.
func (s subscriberPayload) entitlement(id string, now time.Time) (domain.RemoteEntitlement, error) {
	payload, ok := s.Entitlements[id]
	if !ok {
		return domain.RemoteEntitlement{}, nil
	}

	out := domain.RemoteEntitlement{ProductID: payload.ProductIdentifier}
	if payload.ExpiresDate == nil || strings.TrimSpace(*payload.ExpiresDate) == "" {
		out.Active = true
		return out, nil
	}

	expiry, err := time.Parse(time.RFC3339, *payload.ExpiresDate)
	if err != nil {
		return domain.RemoteEntitlement{}, err
	}
	expiry = expiry.UTC()
	out.Expiry = &expiry
	out.Active = expiry.After(now)

	return out, nil
}

// packages flattens the current offering. Standard package identifiers name
// the plan; anything else falls back to the product's period tag.
func (o offeringsPayload) packages() []domain.Package {
	var current *offeringPayload
	for i := range o.Offerings {
		if o.Offerings[i].Identifier == o.CurrentOfferingID {
			current = &o.Offerings[i]
			break
		}
	}
	if current == nil && len(o.Offerings) > 0 {
		current = &o.Offerings[0]
	}
	if current == nil {
		return nil
	}

	packages := make([]domain.Package, 0, len(current.Packages))
	for _, pkg := range current.Packages {
		packages = append(packages, domain.Package{
			ID:          pkg.Identifier,
			Plan:        planForPackage(pkg),
			ProductID:   pkg.PlatformProductIdentifier,
			PriceString: pkg.PriceString,
		})
	}

	return packages
}

func planForPackage(pkg packagePayload) domain.PlanID {
	switch pkg.Identifier {
	case "$rc_monthly":
		return domain.PlanMonthly
	case "$rc_annual":
		return domain.PlanYearly
	}

	period, ok := domain.PeriodForProduct(pkg.PlatformProductIdentifier)
	if !ok {
		return ""
	}
	if period == domain.PeriodYear {
		return domain.PlanYearly
	}

	return domain.PlanMonthly
}
