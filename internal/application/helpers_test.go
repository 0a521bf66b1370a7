package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/syntrafit-entitlements/internal/adapters/cache/memory"
	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/notify"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

var (
	testNow      = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	testProducts = domain.Products{Monthly: "monthly", Yearly: "yearly"}
	testFeatures = []string{"ai_agent", "workout_plans", "nutrition_plans"}
)

func mockAnyContext() interface{} {
	return mock.Anything
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock {
	return &fixedClock{now: now}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type engineFixture struct {
	clock       *fixedClock
	kv          *memory.Store
	cache       *EntitlementCache
	broadcaster *Broadcaster
	engine      *Engine
}

func newEngineFixture(t *testing.T, remote ports.RemoteEntitlementProvider, store ports.StoreProvider) *engineFixture {
	t.Helper()
	return newEngineFixtureWithKV(t, remote, store, memory.NewStore())
}

func newEngineFixtureWithKV(t *testing.T, remote ports.RemoteEntitlementProvider, store ports.StoreProvider, kv ports.KeyValueStore) *engineFixture {
	t.Helper()

	clock := newFixedClock(testNow)
	logger := zerolog.Nop()
	cache := NewEntitlementCache(kv, clock, logger, nil)
	broadcaster := NewBroadcaster(clock, logger, nil)
	t.Cleanup(broadcaster.Close)

	engine := NewEngine(remote, store, cache, broadcaster, testProducts, NewAccessPolicy(testFeatures, 24*time.Hour), clock, logger, nil)

	fixture := &engineFixture{clock: clock, cache: cache, broadcaster: broadcaster, engine: engine}
	if memKV, ok := kv.(*memory.Store); ok {
		fixture.kv = memKV
	}
	return fixture
}

func (f *engineFixture) cached(t *testing.T) map[string]string {
	t.Helper()

	values, err := f.kv.Load(context.Background(), CacheKeySubscribed, CacheKeyExpiry)
	require.NoError(t, err)
	return values
}

// statusRecorder collects every status a broadcaster delivers.
func statusRecorder(b *Broadcaster) <-chan domain.Status {
	ch := make(chan domain.Status, 32)
	b.Subscribe(func(status domain.Status) { ch <- status })
	return ch
}

func receiveStatus(t *testing.T, ch <-chan domain.Status) domain.Status {
	t.Helper()

	select {
	case status := <-ch:
		return status
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
		return domain.Status{}
	}
}

func assertNoStatus(t *testing.T, ch <-chan domain.Status) {
	t.Helper()

	select {
	case status := <-ch:
		t.Fatalf("unexpected broadcast: %+v", status)
	case <-time.After(50 * time.Millisecond):
	}
}

// fakePurchaseProvider emits provider events from onBegin on its own
// goroutine, the way a real store delivers them.
type fakePurchaseProvider struct {
	kind        domain.ProviderKind
	packages    []domain.Package
	packagesErr error
	beginErr    error
	finishErr   error
	onBegin     func(p *fakePurchaseProvider, pkg domain.Package)

	updated notify.Feed[domain.Transaction]
	failed  notify.Feed[domain.PurchaseFailure]

	mu       sync.Mutex
	begun    []domain.Package
	finished []domain.Transaction
}

var _ ports.PurchaseProvider = (*fakePurchaseProvider)(nil)

func newFakePurchaseProvider() *fakePurchaseProvider {
	return &fakePurchaseProvider{
		kind: domain.ProviderStore,
		packages: []domain.Package{
			{ID: "pkg-monthly", Plan: domain.PlanMonthly, ProductID: "monthly", PriceString: "€8.99"},
			{ID: "pkg-yearly", Plan: domain.PlanYearly, ProductID: "yearly", PriceString: "€69.99"},
		},
	}
}

func (p *fakePurchaseProvider) Kind() domain.ProviderKind { return p.kind }

func (p *fakePurchaseProvider) Packages(context.Context) ([]domain.Package, error) {
	return p.packages, p.packagesErr
}

func (p *fakePurchaseProvider) BeginPurchase(_ context.Context, pkg domain.Package) error {
	p.mu.Lock()
	p.begun = append(p.begun, pkg)
	p.mu.Unlock()

	if p.beginErr != nil {
		return p.beginErr
	}
	if p.onBegin != nil {
		go p.onBegin(p, pkg)
	}
	return nil
}

func (p *fakePurchaseProvider) FinishTransaction(_ context.Context, tx domain.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.finished = append(p.finished, tx)
	return p.finishErr
}

func (p *fakePurchaseProvider) OnPurchaseUpdated(fn func(domain.Transaction)) func() {
	return p.updated.Subscribe(fn)
}

func (p *fakePurchaseProvider) OnPurchaseError(fn func(domain.PurchaseFailure)) func() {
	return p.failed.Subscribe(fn)
}

func (p *fakePurchaseProvider) beginCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.begun)
}

func (p *fakePurchaseProvider) finishedTransactions() []domain.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Transaction(nil), p.finished...)
}
