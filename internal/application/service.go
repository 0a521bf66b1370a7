package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/metrics"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const (
	listenerRemoteEntitlement = "remote.entitlement_changed"
	listenerStorePurchase     = "store.purchase_updated"
)

var ErrOpenerUnavailable = errors.New("no url opener configured")

type Config struct {
	Products             domain.Products
	PremiumFeatures      []string
	RevalidationInterval time.Duration
	RevalidationTick     time.Duration
	FallbackPrices       map[domain.PlanID]string
	Platform             string
	PackageName          string
}

// Dependencies are the adapters the service runs on. Remote, Store, Purchase
// and Opener may be nil.
type Dependencies struct {
	Remote   ports.RemoteEntitlementProvider
	Store    ports.StoreProvider
	Purchase ports.PurchaseProvider
	Cache    ports.KeyValueStore
	Opener   ports.URLOpener
	Clock    ports.Clock
	Logger   zerolog.Logger
	Metrics  *metrics.Collector
}

// Service is the entitlement surface the rest of the application talks to.
type Service struct {
	cfg         Config
	remote      ports.RemoteEntitlementProvider
	store       ports.StoreProvider
	opener      ports.URLOpener
	clock       ports.Clock
	logger      zerolog.Logger
	cache       *EntitlementCache
	broadcaster *Broadcaster
	engine      *Engine
	catalog     *Catalog
	controller  *PurchaseController
	revalidator *Revalidator
}

func NewService(deps Dependencies, cfg Config) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}

	cache := NewEntitlementCache(deps.Cache, clock, deps.Logger, deps.Metrics)
	broadcaster := NewBroadcaster(clock, deps.Logger, deps.Metrics)
	engine := NewEngine(
		deps.Remote,
		deps.Store,
		cache,
		broadcaster,
		cfg.Products,
		NewAccessPolicy(cfg.PremiumFeatures, cfg.RevalidationInterval),
		clock,
		deps.Logger,
		deps.Metrics,
	)
	catalog := NewCatalog(deps.Purchase, cfg.FallbackPrices, deps.Logger)

	return &Service{
		cfg:         cfg,
		remote:      deps.Remote,
		store:       deps.Store,
		opener:      deps.Opener,
		clock:       clock,
		logger:      deps.Logger.With().Str("component", "service").Logger(),
		cache:       cache,
		broadcaster: broadcaster,
		engine:      engine,
		catalog:     catalog,
		controller:  NewPurchaseController(deps.Purchase, engine, catalog, clock, deps.Logger, deps.Metrics),
		revalidator: NewRevalidator(engine, broadcaster, cfg.RevalidationTick, clock, deps.Logger),
	}
}

// Start publishes the cached entitlement, attaches provider listeners and
// runs a first validation.
func (s *Service) Start(ctx context.Context) domain.Status {
	if !s.broadcaster.Published() {
		s.publishWarm(ctx)
	}

	if s.remote != nil {
		s.broadcaster.AttachOnce(listenerRemoteEntitlement, func() func() {
			return s.remote.OnEntitlementChanged(s.engine.HandleRemoteChange)
		})
	}
	if s.store != nil {
		s.broadcaster.AttachOnce(listenerStorePurchase, func() func() {
			return s.store.OnPurchaseUpdated(s.handleStoreUpdate)
		})
	}

	return s.engine.Validate(ctx)
}

// StartRevalidation schedules periodic validation until Close.
func (s *Service) StartRevalidation() error {
	return s.revalidator.Start()
}

func (s *Service) Close() {
	<-s.revalidator.Stop().Done()
	s.broadcaster.DetachAll()
	s.broadcaster.Close()
}

func (s *Service) Status() domain.Status {
	return s.broadcaster.Current()
}

// Cached reads the persisted entitlement without consulting any provider.
func (s *Service) Cached(ctx context.Context) (domain.Status, error) {
	now := s.clock.Now()
	cached, err := s.cache.Read(ctx)
	if err != nil {
		return domain.InvalidStatus(domain.SourceError, now), err
	}
	if !cached.IsSubscribed {
		return domain.InvalidStatus(domain.SourceNone, now), nil
	}

	return domain.NewStatus(domain.SourceCache, cached.Expiry, "", now), nil
}

func (s *Service) Validate(ctx context.Context) domain.Status {
	return s.engine.Validate(ctx)
}

func (s *Service) CheckAccess(ctx context.Context, feature string) bool {
	return s.engine.CheckAccess(ctx, feature)
}

func (s *Service) Purchase(ctx context.Context, plan domain.PlanID) (domain.PurchaseOutcome, error) {
	return s.controller.Purchase(ctx, plan)
}

func (s *Service) PurchaseState() domain.PurchaseState {
	return s.controller.State()
}

func (s *Service) Restore(ctx context.Context) (domain.RestoreOutcome, error) {
	return s.engine.Restore(ctx)
}

// Price returns the display price for plan, loading the catalog on first
// use.
func (s *Service) Price(ctx context.Context, plan domain.PlanID) string {
	if plan != domain.PlanFree && !s.catalog.Loaded() {
		if err := s.catalog.Refresh(ctx); err != nil {
			s.logger.Debug().Err(err).Msg("catalog unavailable, using fallback price")
		}
	}

	return s.catalog.Price(plan)
}

func (s *Service) RefreshCatalog(ctx context.Context) error {
	return s.catalog.Refresh(ctx)
}

func (s *Service) OnStatusChanged(fn func(domain.Status)) func() {
	return s.broadcaster.Subscribe(fn)
}

func (s *Service) OnPaywall(fn func(feature string)) func() {
	return s.broadcaster.OnPaywall(fn)
}

// Policy returns the active access policy.
func (s *Service) Policy() AccessPolicy {
	return s.engine.Policy()
}

// UpdatePolicy replaces the premium feature set and revalidation interval.
func (s *Service) UpdatePolicy(premiumFeatures []string, revalidationInterval time.Duration) {
	s.engine.SetPolicy(NewAccessPolicy(premiumFeatures, revalidationInterval))
}

// ManagementURLs resolves the management links for plan. An empty plan uses
// the product of the current entitlement.
func (s *Service) ManagementURLs(plan domain.PlanID) (string, string, error) {
	productID := s.Status().ProductID
	if plan != "" {
		if id, ok := s.cfg.Products.ProductFor(plan); ok {
			productID = id
		}
	}

	return ManagementURLs(s.cfg.Platform, s.cfg.PackageName, productID)
}

// OpenManagement opens the native subscription management page, falling
// back to the web page. It returns the URL that was opened.
func (s *Service) OpenManagement(ctx context.Context, plan domain.PlanID) (string, error) {
	if s.opener == nil {
		return "", ErrOpenerUnavailable
	}

	primary, fallback, err := s.ManagementURLs(plan)
	if err != nil {
		return "", fmt.Errorf("resolve management url: %w", err)
	}

	if primary != fallback && s.opener.CanOpen(ctx, primary) {
		err := s.opener.Open(ctx, primary)
		if err == nil {
			return primary, nil
		}
		s.logger.Debug().Err(err).Str("url", primary).Msg("open management deep link")
	}

	if err := s.opener.Open(ctx, fallback); err != nil {
		return "", fmt.Errorf("open management url: %w", err)
	}

	return fallback, nil
}

func (s *Service) publishWarm(ctx context.Context) {
	cached, err := s.cache.Read(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("read cached entitlement on start")
		return
	}
	if !cached.IsSubscribed {
		return
	}

	// Zero LastChecked: a warm status is never fresh.
	s.broadcaster.Publish(domain.NewStatus(domain.SourceCache, cached.Expiry, "", time.Time{}))
}

// handleStoreUpdate processes store transactions that arrive outside a
// purchase attempt, such as renewals and deferred approvals. Transactions for
// the product being purchased are left to the controller.
func (s *Service) handleStoreUpdate(tx domain.Transaction) {
	if s.controller.Claims(tx.ProductID) {
		return
	}

	ctx := context.Background()
	if err := s.store.FinishTransaction(ctx, tx); err != nil {
		s.logger.Warn().Err(err).Str("transaction_id", tx.ID).Msg("finish unsolicited transaction")
	}
	s.engine.Validate(ctx)
}
