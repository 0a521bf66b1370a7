package ports

import (
	"context"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

// RemoteEntitlementProvider is a backend-verified entitlement service.
// Transport failures are reported wrapped in domain.ErrProviderUnavailable
// and a user-cancelled purchase in domain.ErrUserCancelled.
type RemoteEntitlementProvider interface {
	GetEntitlement(ctx context.Context) (domain.RemoteEntitlement, error)
	Purchase(ctx context.Context, packageID string) (domain.RemoteEntitlement, error)
	Restore(ctx context.Context) (domain.RemoteEntitlement, error)
	Offerings(ctx context.Context) ([]domain.Package, error)
	// OnEntitlementChanged replaces the single subscribed listener.
	OnEntitlementChanged(fn func(domain.RemoteEntitlement)) (detach func())
}

// StoreProvider is the on-device app store purchase ledger.
type StoreProvider interface {
	ListOwnedPurchases(ctx context.Context) ([]domain.OwnedPurchase, error)
	Products(ctx context.Context, productIDs []string) ([]domain.Package, error)
	RequestPurchase(ctx context.Context, productID string) error
	FinishTransaction(ctx context.Context, tx domain.Transaction) error
	OnPurchaseUpdated(fn func(domain.Transaction)) (detach func())
	OnPurchaseError(fn func(domain.PurchaseFailure)) (detach func())
}

// PurchaseProvider is the capability the purchase controller drives. Both
// the store and the remote service can play this role.
type PurchaseProvider interface {
	Kind() domain.ProviderKind
	Packages(ctx context.Context) ([]domain.Package, error)
	BeginPurchase(ctx context.Context, pkg domain.Package) error
	FinishTransaction(ctx context.Context, tx domain.Transaction) error
	OnPurchaseUpdated(fn func(domain.Transaction)) (detach func())
	OnPurchaseError(fn func(domain.PurchaseFailure)) (detach func())
}

type URLOpener interface {
	CanOpen(ctx context.Context, rawURL string) bool
	Open(ctx context.Context, rawURL string) error
}
