package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
	"github.com/bnema/syntrafit-entitlements/internal/ports/mocks"
)

type controllerFixture struct {
	*engineFixture
	provider   *fakePurchaseProvider
	controller *PurchaseController
}

func newControllerFixture(t *testing.T, remote ports.RemoteEntitlementProvider, kv ports.KeyValueStore) *controllerFixture {
	t.Helper()

	var fx *engineFixture
	if kv == nil {
		fx = newEngineFixture(t, remote, nil)
	} else {
		fx = newEngineFixtureWithKV(t, remote, nil, kv)
	}

	provider := newFakePurchaseProvider()
	catalog := NewCatalog(provider, nil, zerolog.Nop())
	controller := NewPurchaseController(provider, fx.engine, catalog, fx.clock, zerolog.Nop(), nil)

	return &controllerFixture{engineFixture: fx, provider: provider, controller: controller}
}

func emitTransaction(tx domain.Transaction) func(*fakePurchaseProvider, domain.Package) {
	return func(p *fakePurchaseProvider, _ domain.Package) {
		p.updated.Emit(tx)
	}
}

func TestPurchaseControllerEntitlesFromStoreTransaction(t *testing.T) {
	t.Parallel()

	fx := newControllerFixture(t, nil, nil)
	published := statusRecorder(fx.broadcaster)
	purchasedAt := testNow.Add(-time.Minute)
	fx.provider.onBegin = emitTransaction(domain.Transaction{ID: "tx-1", ProductID: "monthly", PurchasedAt: purchasedAt})

	outcome, err := fx.controller.Purchase(context.Background(), domain.PlanMonthly)
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, domain.PurchaseEntitled, outcome.State)
	assert.Equal(t, domain.SourceStore, outcome.Status.Source)
	require.NotNil(t, outcome.Status.Expiry)
	assert.Equal(t, purchasedAt.AddDate(0, 1, 0), *outcome.Status.Expiry)

	assert.Len(t, fx.provider.finishedTransactions(), 1)
	assert.Equal(t, "true", fx.cached(t)[CacheKeySubscribed])
	assert.True(t, receiveStatus(t, published).Valid)
	assert.Equal(t, domain.PurchaseEntitled, fx.controller.State())
	assert.False(t, fx.controller.InFlight())
}

func TestPurchaseControllerZeroPurchaseTimeUsesNow(t *testing.T) {
	t.Parallel()

	fx := newControllerFixture(t, nil, nil)
	fx.provider.onBegin = emitTransaction(domain.Transaction{ID: "tx-1", ProductID: "yearly"})

	outcome, err := fx.controller.Purchase(context.Background(), domain.PlanYearly)
	require.NoError(t, err)
	require.NotNil(t, outcome.Status.Expiry)
	assert.Equal(t, testNow.AddDate(1, 0, 0), *outcome.Status.Expiry)
}

func TestPurchaseControllerPrefersRemoteResync(t *testing.T) {
	t.Parallel()

	remote := mocks.NewMockRemoteEntitlementProvider(t)
	fx := newControllerFixture(t, remote, nil)
	expiry := testNow.AddDate(0, 1, 3)
	remote.EXPECT().GetEntitlement(mockAnyContext()).Return(domain.RemoteEntitlement{Active: true, Expiry: &expiry, ProductID: "monthly"}, nil).Once()
	fx.provider.onBegin = emitTransaction(domain.Transaction{ID: "tx-1", ProductID: "monthly", PurchasedAt: testNow})

	outcome, err := fx.controller.Purchase(context.Background(), domain.PlanMonthly)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRemote, outcome.Status.Source)
	assert.Equal(t, expiry, *outcome.Status.Expiry)
}

func TestPurchaseControllerIgnoresMismatchedProduct(t *testing.T) {
	t.Parallel()

	fx := newControllerFixture(t, nil, nil)
	published := statusRecorder(fx.broadcaster)
	fx.provider.onBegin = emitTransaction(domain.Transaction{ID: "tx-other", ProductID: "yearly", PurchasedAt: testNow})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	outcome, err := fx.controller.Purchase(ctx, domain.PlanMonthly)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, outcome.Success)
	assert.Equal(t, domain.PurchaseFailed, outcome.State)
	assert.Empty(t, fx.provider.finishedTransactions())
	assert.False(t, fx.broadcaster.Published())
	assertNoStatus(t, published)
}

func TestPurchaseControllerRejectsConcurrentAttempt(t *testing.T) {
	t.Parallel()

	fx := newControllerFixture(t, nil, nil)
	release := make(chan struct{})
	began := make(chan struct{})
	fx.provider.onBegin = func(p *fakePurchaseProvider, _ domain.Package) {
		close(began)
		<-release
		p.updated.Emit(domain.Transaction{ID: "tx-1", ProductID: "monthly", PurchasedAt: testNow})
	}

	done := make(chan error, 1)
	go func() {
		_, err := fx.controller.Purchase(context.Background(), domain.PlanMonthly)
		done <- err
	}()
	<-began
	assert.True(t, fx.controller.InFlight())
	assert.True(t, fx.controller.Claims("monthly"))
	assert.False(t, fx.controller.Claims("yearly"))

	_, err := fx.controller.Purchase(context.Background(), domain.PlanYearly)
	require.ErrorIs(t, err, domain.ErrAlreadyInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, fx.provider.beginCount())
	assert.False(t, fx.controller.Claims("monthly"))
}

func TestPurchaseControllerUserCancelIsSilent(t *testing.T) {
	t.Parallel()

	fx := newControllerFixture(t, nil, nil)
	published := statusRecorder(fx.broadcaster)
	fx.provider.onBegin = func(p *fakePurchaseProvider, pkg domain.Package) {
		p.failed.Emit(domain.PurchaseFailure{Code: domain.FailureUserCancelled, ProductID: pkg.ProductID})
	}

	outcome, err := fx.controller.Purchase(context.Background(), domain.PlanMonthly)
	require.NoError(t, err)
	assert.True(t, outcome.Cancelled)
	assert.False(t, outcome.Success)
	assert.Equal(t, domain.PurchaseCancelled, outcome.State)
	assertNoStatus(t, published)
}

func TestPurchaseControllerBeginCancelled(t *testing.T) {
	t.Parallel()

	fx := newControllerFixture(t, nil, nil)
	fx.provider.beginErr = fmt.Errorf("sheet dismissed: %w", domain.ErrUserCancelled)

	outcome, err := fx.controller.Purchase(context.Background(), domain.PlanYearly)
	require.NoError(t, err)
	assert.True(t, outcome.Cancelled)
}

func TestPurchaseControllerProviderErrorFails(t *testing.T) {
	t.Parallel()

	fx := newControllerFixture(t, nil, nil)
	fx.provider.onBegin = func(p *fakePurchaseProvider, pkg domain.Package) {
		p.failed.Emit(domain.PurchaseFailure{Code: domain.FailureProvider, ProductID: pkg.ProductID, Message: "card declined"})
	}

	outcome, err := fx.controller.Purchase(context.Background(), domain.PlanMonthly)
	require.Error(t, err)
	assert.ErrorContains(t, err, "card declined")
	var failure domain.PurchaseFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, domain.FailureProvider, failure.Code)
	assert.Equal(t, domain.PurchaseFailed, outcome.State)
}

func TestPurchaseControllerFinishFailureDoesNotEntitle(t *testing.T) {
	t.Parallel()

	fx := newControllerFixture(t, nil, nil)
	published := statusRecorder(fx.broadcaster)
	fx.provider.finishErr = errors.New("acknowledge rejected")
	fx.provider.onBegin = emitTransaction(domain.Transaction{ID: "tx-1", ProductID: "monthly", PurchasedAt: testNow})

	outcome, err := fx.controller.Purchase(context.Background(), domain.PlanMonthly)

	require.ErrorIs(t, err, domain.ErrTransactionFinalizationFailed)
	assert.False(t, outcome.Success)
	assert.Empty(t, fx.cached(t))
	assertNoStatus(t, published)
}

func TestPurchaseControllerWriteThroughFailureDoesNotEntitle(t *testing.T) {
	t.Parallel()

	kv := mocks.NewMockKeyValueStore(t)
	fx := newControllerFixture(t, nil, kv)
	kv.EXPECT().Save(mockAnyContext(), map[string]string{
		CacheKeySubscribed: "true",
		CacheKeyExpiry:     testNow.AddDate(0, 1, 0).Format(time.RFC3339Nano),
	}).Return(errors.New("disk full")).Once()
	fx.provider.onBegin = emitTransaction(domain.Transaction{ID: "tx-1", ProductID: "monthly", PurchasedAt: testNow})

	outcome, err := fx.controller.Purchase(context.Background(), domain.PlanMonthly)

	require.ErrorIs(t, err, domain.ErrTransactionFinalizationFailed)
	assert.Equal(t, domain.PurchaseFailed, outcome.State)
	assert.False(t, fx.broadcaster.Published())
}

func TestPurchaseControllerPackageUnavailable(t *testing.T) {
	t.Parallel()

	fx := newControllerFixture(t, nil, nil)
	fx.provider.packages = nil

	_, err := fx.controller.Purchase(context.Background(), domain.PlanYearly)
	require.ErrorIs(t, err, domain.ErrPackageUnavailable)
	assert.Zero(t, fx.provider.beginCount())
	assert.False(t, fx.controller.InFlight())
}

func TestPurchaseControllerFreePlanSkipsProvider(t *testing.T) {
	t.Parallel()

	fx := newControllerFixture(t, nil, nil)

	outcome, err := fx.controller.Purchase(context.Background(), domain.PlanFree)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Zero(t, fx.provider.beginCount())
}

func TestPurchaseControllerWithoutProvider(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t, nil, nil)
	controller := NewPurchaseController(nil, fx.engine, NewCatalog(nil, nil, zerolog.Nop()), fx.clock, zerolog.Nop(), nil)

	_, err := controller.Purchase(context.Background(), domain.PlanMonthly)
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestPurchaseControllerDetachesAttemptListeners(t *testing.T) {
	t.Parallel()

	fx := newControllerFixture(t, nil, nil)
	fx.provider.onBegin = emitTransaction(domain.Transaction{ID: "tx-1", ProductID: "monthly", PurchasedAt: testNow})

	_, err := fx.controller.Purchase(context.Background(), domain.PlanMonthly)
	require.NoError(t, err)

	assert.Zero(t, fx.provider.updated.Len())
	assert.Zero(t, fx.provider.failed.Len())
}
