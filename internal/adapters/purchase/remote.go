package purchase

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/notify"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

// RemotePurchaser buys through the remote entitlement service. The service
// answers synchronously; the answer is re-delivered as a purchase event so
// the controller handles both providers the same way.
type RemotePurchaser struct {
	remote ports.RemoteEntitlementProvider
	clock  ports.Clock

	updated notify.Feed[domain.Transaction]
	failed  notify.Feed[domain.PurchaseFailure]
	pending sync.WaitGroup
}

var _ ports.PurchaseProvider = (*RemotePurchaser)(nil)

func NewRemotePurchaser(remote ports.RemoteEntitlementProvider, clock ports.Clock) *RemotePurchaser {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &RemotePurchaser{remote: remote, clock: clock}
}

func (p *RemotePurchaser) Kind() domain.ProviderKind {
	return domain.ProviderRemote
}

func (p *RemotePurchaser) Packages(ctx context.Context) ([]domain.Package, error) {
	return p.remote.Offerings(ctx)
}

func (p *RemotePurchaser) BeginPurchase(ctx context.Context, pkg domain.Package) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		p.complete(ctx, pkg)
	}()

	return nil
}

// FinishTransaction is a no-op: the remote service acknowledges the store
// transaction itself.
func (p *RemotePurchaser) FinishTransaction(context.Context, domain.Transaction) error {
	return nil
}

func (p *RemotePurchaser) OnPurchaseUpdated(fn func(domain.Transaction)) func() {
	return p.updated.Subscribe(fn)
}

func (p *RemotePurchaser) OnPurchaseError(fn func(domain.PurchaseFailure)) func() {
	return p.failed.Subscribe(fn)
}

// Wait blocks until every in-flight remote purchase has reported.
func (p *RemotePurchaser) Wait() {
	p.pending.Wait()
}

func (p *RemotePurchaser) complete(ctx context.Context, pkg domain.Package) {
	entitlement, err := p.remote.Purchase(ctx, pkg.ID)
	switch {
	case errors.Is(err, domain.ErrUserCancelled):
		p.failed.Emit(domain.PurchaseFailure{Code: domain.FailureUserCancelled, ProductID: pkg.ProductID})
		return
	case errors.Is(err, domain.ErrProviderUnavailable):
		p.failed.Emit(domain.PurchaseFailure{Code: domain.FailureNetwork, ProductID: pkg.ProductID, Message: err.Error()})
		return
	case err != nil:
		p.failed.Emit(domain.PurchaseFailure{Code: domain.FailureProvider, ProductID: pkg.ProductID, Message: err.Error()})
		return
	case !entitlement.Active:
		p.failed.Emit(domain.PurchaseFailure{Code: domain.FailureProvider, ProductID: pkg.ProductID, Message: "entitlement not active after purchase"})
		return
	}

	productID := pkg.ProductID
	if entitlement.ProductID == "" {
		entitlement.ProductID = productID
	}

	p.updated.Emit(domain.Transaction{
		ID:          uuid.NewString(),
		ProductID:   productID,
		PurchasedAt: p.clock.Now(),
		Entitlement: &entitlement,
	})
}
