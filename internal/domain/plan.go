package domain

import (
	"fmt"
	"strings"
	"time"
)

type PlanID string

const (
	PlanFree    PlanID = "free"
	PlanMonthly PlanID = "monthly"
	PlanYearly  PlanID = "yearly"
)

func ParsePlan(raw string) (PlanID, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "free":
		return PlanFree, nil
	case "monthly", "month":
		return PlanMonthly, nil
	case "yearly", "annual", "year":
		return PlanYearly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, raw)
	}
}

type Period string

const (
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// PeriodForProduct derives the billing period from the plan tag embedded in
// a store product identifier.
func PeriodForProduct(productID string) (Period, bool) {
	id := strings.ToLower(productID)
	switch {
	case strings.Contains(id, "yearly"), strings.Contains(id, "annual"):
		return PeriodYear, true
	case strings.Contains(id, "monthly"):
		return PeriodMonth, true
	default:
		return "", false
	}
}

func (p Period) AddTo(t time.Time) time.Time {
	switch p {
	case PeriodYear:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// InferExpiry computes purchase time plus one billing period. It refuses
// when either the purchase time or the period cannot be derived.
func InferExpiry(productID string, purchasedAt time.Time) (time.Time, bool) {
	if purchasedAt.IsZero() {
		return time.Time{}, false
	}

	period, ok := PeriodForProduct(productID)
	if !ok {
		return time.Time{}, false
	}

	return period.AddTo(purchasedAt), true
}

// Products maps paid plans to store product identifiers.
type Products struct {
	Monthly string
	Yearly  string
}

func (p Products) ProductFor(plan PlanID) (string, bool) {
	switch plan {
	case PlanMonthly:
		return p.Monthly, p.Monthly != ""
	case PlanYearly:
		return p.Yearly, p.Yearly != ""
	default:
		return "", false
	}
}

func (p Products) Known(productID string) bool {
	return productID != "" && (productID == p.Monthly || productID == p.Yearly)
}

// Package is a provider-supplied purchasable descriptor for a plan.
type Package struct {
	ID          string
	Plan        PlanID
	ProductID   string
	PriceString string
}
