// Package purchase adapts the store and the remote entitlement service to
// the single purchase capability the purchase controller drives.
package purchase

import (
	"context"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

// StorePurchaser buys directly from the platform store.
type StorePurchaser struct {
	store    ports.StoreProvider
	products domain.Products
}

var _ ports.PurchaseProvider = (*StorePurchaser)(nil)

func NewStorePurchaser(store ports.StoreProvider, products domain.Products) *StorePurchaser {
	return &StorePurchaser{store: store, products: products}
}

func (p *StorePurchaser) Kind() domain.ProviderKind {
	return domain.ProviderStore
}

func (p *StorePurchaser) Packages(ctx context.Context) ([]domain.Package, error) {
	ids := make([]string, 0, 2)
	for _, id := range []string{p.products.Monthly, p.products.Yearly} {
		if id != "" {
			ids = append(ids, id)
		}
	}

	return p.store.Products(ctx, ids)
}

func (p *StorePurchaser) BeginPurchase(ctx context.Context, pkg domain.Package) error {
	return p.store.RequestPurchase(ctx, pkg.ProductID)
}

func (p *StorePurchaser) FinishTransaction(ctx context.Context, tx domain.Transaction) error {
	return p.store.FinishTransaction(ctx, tx)
}

func (p *StorePurchaser) OnPurchaseUpdated(fn func(domain.Transaction)) func() {
	return p.store.OnPurchaseUpdated(fn)
}

func (p *StorePurchaser) OnPurchaseError(fn func(domain.PurchaseFailure)) func() {
	return p.store.OnPurchaseError(fn)
}
