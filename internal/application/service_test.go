package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/syntrafit-entitlements/internal/adapters/cache/memory"
	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/ports/mocks"
)

func newTestService(t *testing.T, deps Dependencies) (*Service, *memory.Store, *fixedClock) {
	t.Helper()

	kv := memory.NewStore()
	clock := newFixedClock(testNow)
	deps.Cache = kv
	deps.Clock = clock
	deps.Logger = zerolog.Nop()

	service := NewService(deps, Config{
		Products:             testProducts,
		PremiumFeatures:      testFeatures,
		RevalidationInterval: 24 * time.Hour,
		RevalidationTick:     time.Hour,
		FallbackPrices:       fallbackPrices,
		Platform:             PlatformIOS,
		PackageName:          "com.spartain",
	})
	t.Cleanup(service.Close)

	return service, kv, clock
}

func TestServiceStartPublishesWarmCacheThenValidates(t *testing.T) {
	t.Parallel()

	remote := mocks.NewMockRemoteEntitlementProvider(t)
	service, kv, _ := newTestService(t, Dependencies{Remote: remote})

	expiry := testNow.Add(72 * time.Hour)
	require.NoError(t, kv.Save(context.Background(), map[string]string{
		CacheKeySubscribed: "true",
		CacheKeyExpiry:     expiry.Format(time.RFC3339),
	}))

	var warm domain.Status
	remote.EXPECT().OnEntitlementChanged(mock.Anything).Return(func() {}).Once()
	remote.EXPECT().GetEntitlement(mockAnyContext()).RunAndReturn(func(context.Context) (domain.RemoteEntitlement, error) {
		warm = service.Status()
		return domain.RemoteEntitlement{}, errNetwork
	}).Once()

	status := service.Start(context.Background())

	assert.True(t, warm.Valid)
	assert.Equal(t, domain.SourceCache, warm.Source)
	assert.True(t, warm.LastChecked.IsZero())

	assert.True(t, status.Valid)
	assert.Equal(t, domain.SourceCache, status.Source)
	assert.Equal(t, testNow, status.LastChecked)
}

func TestServiceStartAttachesListenersOnce(t *testing.T) {
	t.Parallel()

	remote := mocks.NewMockRemoteEntitlementProvider(t)
	store := mocks.NewMockStoreProvider(t)
	service, _, _ := newTestService(t, Dependencies{Remote: remote, Store: store})

	detached := 0
	remote.EXPECT().OnEntitlementChanged(mock.Anything).Return(func() { detached++ }).Once()
	store.EXPECT().OnPurchaseUpdated(mock.Anything).Return(func() { detached++ }).Once()
	remote.EXPECT().GetEntitlement(mockAnyContext()).Return(domain.RemoteEntitlement{}, nil).Twice()
	store.EXPECT().ListOwnedPurchases(mockAnyContext()).Return(nil, nil).Twice()

	service.Start(context.Background())
	service.Start(context.Background())
	service.Close()

	assert.Equal(t, 2, detached)
}

func TestServiceRemotePushUpdatesStatus(t *testing.T) {
	t.Parallel()

	remote := mocks.NewMockRemoteEntitlementProvider(t)
	service, _, _ := newTestService(t, Dependencies{Remote: remote})

	var push func(domain.RemoteEntitlement)
	remote.EXPECT().OnEntitlementChanged(mock.Anything).RunAndReturn(func(fn func(domain.RemoteEntitlement)) func() {
		push = fn
		return func() {}
	}).Once()
	remote.EXPECT().GetEntitlement(mockAnyContext()).Return(domain.RemoteEntitlement{}, nil).Once()

	service.Start(context.Background())
	require.NotNil(t, push)
	assert.False(t, service.Status().Valid)

	expiry := testNow.AddDate(0, 1, 0)
	push(domain.RemoteEntitlement{Active: true, Expiry: &expiry, ProductID: "monthly"})

	assert.True(t, service.Status().Valid)
	assert.Equal(t, "monthly", service.Status().ProductID)
}

func TestServiceUnsolicitedStoreTransactionIsFinishedAndRevalidated(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockStoreProvider(t)
	service, _, _ := newTestService(t, Dependencies{Store: store})

	var update func(domain.Transaction)
	store.EXPECT().OnPurchaseUpdated(mock.Anything).RunAndReturn(func(fn func(domain.Transaction)) func() {
		update = fn
		return func() {}
	}).Once()
	store.EXPECT().ListOwnedPurchases(mockAnyContext()).Return(nil, nil).Once()
	service.Start(context.Background())

	tx := domain.Transaction{ID: "renewal-1", ProductID: "yearly", PurchasedAt: testNow}
	store.EXPECT().FinishTransaction(mockAnyContext(), tx).Return(nil).Once()
	store.EXPECT().ListOwnedPurchases(mockAnyContext()).Return([]domain.OwnedPurchase{
		{ProductID: "yearly", TransactionID: "renewal-1", PurchasedAt: testNow},
	}, nil).Once()

	update(tx)

	assert.True(t, service.Status().Valid)
	assert.Equal(t, domain.SourceStore, service.Status().Source)
}

func TestServiceStoreRenewalDuringPurchaseOfAnotherProduct(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockStoreProvider(t)
	provider := newFakePurchaseProvider()
	began := make(chan struct{})
	release := make(chan struct{})
	provider.onBegin = func(p *fakePurchaseProvider, _ domain.Package) {
		close(began)
		<-release
		p.updated.Emit(domain.Transaction{ID: "tx-monthly", ProductID: "monthly", PurchasedAt: testNow})
	}
	service, _, _ := newTestService(t, Dependencies{Store: store, Purchase: provider})

	var update func(domain.Transaction)
	store.EXPECT().OnPurchaseUpdated(mock.Anything).RunAndReturn(func(fn func(domain.Transaction)) func() {
		update = fn
		return func() {}
	}).Once()
	store.EXPECT().ListOwnedPurchases(mockAnyContext()).Return(nil, nil).Once()
	service.Start(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := service.Purchase(context.Background(), domain.PlanMonthly)
		done <- err
	}()
	<-began

	renewal := domain.Transaction{ID: "renewal-1", ProductID: "yearly", PurchasedAt: testNow}
	store.EXPECT().FinishTransaction(mockAnyContext(), renewal).Return(nil).Once()
	store.EXPECT().ListOwnedPurchases(mockAnyContext()).Return([]domain.OwnedPurchase{
		{ProductID: "yearly", TransactionID: "renewal-1", PurchasedAt: testNow},
	}, nil).Once()
	update(renewal)

	// Left to the controller: the store mock would fail on an unexpected finish.
	update(domain.Transaction{ID: "tx-monthly", ProductID: "monthly", PurchasedAt: testNow})

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, provider.finishedTransactions(), 1)
}

func TestServiceCheckAccessAndPaywall(t *testing.T) {
	t.Parallel()

	remote := mocks.NewMockRemoteEntitlementProvider(t)
	service, _, _ := newTestService(t, Dependencies{Remote: remote})
	paywall := make(chan string, 1)
	service.OnPaywall(func(feature string) { paywall <- feature })

	remote.EXPECT().GetEntitlement(mockAnyContext()).Return(domain.RemoteEntitlement{}, nil).Once()

	assert.True(t, service.CheckAccess(context.Background(), "settings"))
	assert.False(t, service.CheckAccess(context.Background(), "nutrition_plans"))

	select {
	case feature := <-paywall:
		assert.Equal(t, "nutrition_plans", feature)
	case <-time.After(2 * time.Second):
		t.Fatal("paywall not signalled")
	}
}

func TestServicePriceLoadsCatalogOnce(t *testing.T) {
	t.Parallel()

	provider := newFakePurchaseProvider()
	provider.packages[0].PriceString = "9,99 €"
	service, _, _ := newTestService(t, Dependencies{Purchase: provider})

	assert.Equal(t, "9,99 €", service.Price(context.Background(), domain.PlanMonthly))
	assert.Equal(t, FreePlanPrice, service.Price(context.Background(), domain.PlanFree))
}

func TestServicePriceFallsBackWhenCatalogUnavailable(t *testing.T) {
	t.Parallel()

	provider := newFakePurchaseProvider()
	provider.packagesErr = errors.New("offline")
	service, _, _ := newTestService(t, Dependencies{Purchase: provider})

	assert.Equal(t, "€69.99", service.Price(context.Background(), domain.PlanYearly))
	require.Error(t, service.RefreshCatalog(context.Background()))
}

func TestServicePurchaseNotifiesSubscribers(t *testing.T) {
	t.Parallel()

	provider := newFakePurchaseProvider()
	provider.onBegin = emitTransaction(domain.Transaction{ID: "tx-9", ProductID: "yearly", PurchasedAt: testNow})
	service, _, _ := newTestService(t, Dependencies{Purchase: provider})

	changes := make(chan domain.Status, 1)
	unsubscribe := service.OnStatusChanged(func(status domain.Status) { changes <- status })
	defer unsubscribe()

	outcome, err := service.Purchase(context.Background(), domain.PlanYearly)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, domain.PurchaseEntitled, service.PurchaseState())
	assert.True(t, receiveStatus(t, changes).Valid)
}

func TestServiceCachedReadsWithoutProviders(t *testing.T) {
	t.Parallel()

	remote := mocks.NewMockRemoteEntitlementProvider(t)
	service, kv, _ := newTestService(t, Dependencies{Remote: remote})
	require.NoError(t, kv.Save(context.Background(), map[string]string{
		CacheKeySubscribed: "true",
		CacheKeyExpiry:     testNow.Add(time.Hour).Format(time.RFC3339),
	}))

	status, err := service.Cached(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Valid)
	assert.Equal(t, domain.SourceCache, status.Source)
}

func TestServiceUpdatePolicy(t *testing.T) {
	t.Parallel()

	service, _, _ := newTestService(t, Dependencies{})
	service.UpdatePolicy([]string{"meal_tracking"}, 6*time.Hour)

	assert.True(t, service.Policy().Premium("meal_tracking"))
	assert.False(t, service.Policy().Premium("ai_agent"))
	assert.Equal(t, 6*time.Hour, service.Policy().RevalidationInterval)
}

func TestServiceOpenManagementPrefersDeepLink(t *testing.T) {
	t.Parallel()

	opener := mocks.NewMockURLOpener(t)
	service, _, _ := newTestService(t, Dependencies{Opener: opener})

	opener.EXPECT().CanOpen(mockAnyContext(), "itms-apps://apps.apple.com/account/subscriptions").Return(true).Once()
	opener.EXPECT().Open(mockAnyContext(), "itms-apps://apps.apple.com/account/subscriptions").Return(nil).Once()

	opened, err := service.OpenManagement(context.Background(), domain.PlanMonthly)
	require.NoError(t, err)
	assert.Equal(t, "itms-apps://apps.apple.com/account/subscriptions", opened)
}

func TestServiceOpenManagementFallsBackToWeb(t *testing.T) {
	t.Parallel()

	opener := mocks.NewMockURLOpener(t)
	service, _, _ := newTestService(t, Dependencies{Opener: opener})

	opener.EXPECT().CanOpen(mockAnyContext(), "itms-apps://apps.apple.com/account/subscriptions").Return(true).Once()
	opener.EXPECT().Open(mockAnyContext(), "itms-apps://apps.apple.com/account/subscriptions").Return(errors.New("no handler")).Once()
	opener.EXPECT().Open(mockAnyContext(), "https://apps.apple.com/account/subscriptions").Return(nil).Once()

	opened, err := service.OpenManagement(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "https://apps.apple.com/account/subscriptions", opened)
}

func TestServiceOpenManagementWithoutOpener(t *testing.T) {
	t.Parallel()

	service, _, _ := newTestService(t, Dependencies{})

	_, err := service.OpenManagement(context.Background(), domain.PlanMonthly)
	require.ErrorIs(t, err, ErrOpenerUnavailable)
}
