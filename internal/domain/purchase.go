package domain

import "time"

type PurchaseState string

const (
	PurchaseIdle                  PurchaseState = "idle"
	PurchaseRequesting            PurchaseState = "requesting"
	PurchaseAwaitingProviderEvent PurchaseState = "awaiting_provider_event"
	PurchaseVerifying             PurchaseState = "verifying"
	PurchaseEntitled              PurchaseState = "entitled"
	PurchaseCancelled             PurchaseState = "cancelled"
	PurchaseFailed                PurchaseState = "failed"
)

func (s PurchaseState) Terminal() bool {
	switch s {
	case PurchaseEntitled, PurchaseCancelled, PurchaseFailed:
		return true
	default:
		return false
	}
}

// PurchaseAttempt tracks one in-flight purchase. It is never persisted.
type PurchaseAttempt struct {
	ID        string
	Plan      PlanID
	ProductID string
	StartedAt time.Time
	State     PurchaseState
}

// OwnedPurchase is one entry of the store ledger with its timestamp already
// normalized across platforms. A zero PurchasedAt means the store could not
// supply one.
type OwnedPurchase struct {
	ProductID     string
	TransactionID string
	PurchasedAt   time.Time
}

// Transaction is delivered by a provider's purchase-updated event.
type Transaction struct {
	ID          string
	ProductID   string
	PurchasedAt time.Time
	Receipt     string
	// Entitlement is set when the provider already verified the purchase.
	Entitlement *RemoteEntitlement
}

type FailureCode string

const (
	FailureUserCancelled FailureCode = "user_cancelled"
	FailureNetwork       FailureCode = "network"
	FailureProvider      FailureCode = "provider"
)

// PurchaseFailure is delivered by a provider's purchase-error event.
type PurchaseFailure struct {
	Code      FailureCode
	ProductID string
	Message   string
}

func (f PurchaseFailure) Cancelled() bool {
	return f.Code == FailureUserCancelled
}

func (f PurchaseFailure) Error() string {
	if f.Message == "" {
		return string(f.Code)
	}

	return f.Message
}

type PurchaseOutcome struct {
	Plan      PlanID
	Success   bool
	Cancelled bool
	State     PurchaseState
	Status    Status
}

type RestoreOutcome struct {
	Success bool
	Status  Status
}

type ProviderKind string

const (
	ProviderRemote ProviderKind = "remote"
	ProviderStore  ProviderKind = "store"
)
