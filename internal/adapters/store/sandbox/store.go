// Package sandbox is a file-backed stand-in for a platform app store. It
// keeps an owned-purchase ledger in TOML and answers purchase requests with
// a configured outcome, delivering events asynchronously like a real store.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/syntrafit-entitlements/internal/adapters/tomlfile"
	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/notify"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const ledgerFileName = "store-ledger.toml"

type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeCancel  Outcome = "cancel"
	OutcomeFail    Outcome = "fail"
)

func ParseOutcome(raw string) (Outcome, error) {
	switch Outcome(strings.ToLower(strings.TrimSpace(raw))) {
	case "", OutcomeApprove:
		return OutcomeApprove, nil
	case OutcomeCancel:
		return OutcomeCancel, nil
	case OutcomeFail:
		return OutcomeFail, nil
	default:
		return "", fmt.Errorf("unknown sandbox outcome %q", raw)
	}
}

type Config struct {
	LedgerPath string
	Platform   string
	Outcome    Outcome
	Products   domain.Products
	// Prices maps product identifiers to display prices.
	Prices map[string]string
	// Delay holds back every purchase event.
	Delay time.Duration
}

type Store struct {
	path     string
	mu       *sync.RWMutex
	clock    ports.Clock
	platform string
	products domain.Products
	prices   map[string]string
	delay    time.Duration

	outcomeMu sync.RWMutex
	outcome   Outcome

	updated notify.Feed[domain.Transaction]
	failed  notify.Feed[domain.PurchaseFailure]
	pending sync.WaitGroup
}

var _ ports.StoreProvider = (*Store)(nil)

func NewStore(cfg Config, clock ports.Clock) (*Store, error) {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	path := cfg.LedgerPath
	if path == "" {
		defaultPath, err := tomlfile.DefaultPath(ledgerFileName)
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	path, err := tomlfile.NormalizePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve ledger path: %w", err)
	}

	outcome := cfg.Outcome
	if outcome == "" {
		outcome = OutcomeApprove
	}

	return &Store{
		path:     path,
		mu:       tomlfile.LockFor(path),
		clock:    clock,
		platform: cfg.Platform,
		products: cfg.Products,
		prices:   cfg.Prices,
		delay:    cfg.Delay,
		outcome:  outcome,
	}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) SetOutcome(outcome Outcome) {
	s.outcomeMu.Lock()
	defer s.outcomeMu.Unlock()
	s.outcome = outcome
}

func (s *Store) ListOwnedPurchases(ctx context.Context) ([]domain.OwnedPurchase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger, err := s.readLedger()
	if err != nil {
		return nil, err
	}

	owned := make([]domain.OwnedPurchase, 0, len(ledger.Purchases))
	for _, record := range ledger.Purchases {
		owned = append(owned, domain.OwnedPurchase{
			ProductID:     record.ProductID,
			TransactionID: record.TransactionID,
			PurchasedAt:   record.purchasedAt(),
		})
	}

	return owned, nil
}

func (s *Store) Products(ctx context.Context, productIDs []string) ([]domain.Package, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	packages := make([]domain.Package, 0, len(productIDs))
	for _, productID := range productIDs {
		plan, ok := s.planFor(productID)
		if !ok {
			continue
		}
		packages = append(packages, domain.Package{
			ID:          productID,
			Plan:        plan,
			ProductID:   productID,
			PriceString: s.prices[productID],
		})
	}

	return packages, nil
}

// RequestPurchase resolves the purchase sheet with the configured outcome.
// The result arrives later through OnPurchaseUpdated or OnPurchaseError.
func (s *Store) RequestPurchase(ctx context.Context, productID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := s.planFor(productID); !ok {
		return fmt.Errorf("request purchase %q: %w", productID, domain.ErrPackageUnavailable)
	}

	s.outcomeMu.RLock()
	outcome := s.outcome
	s.outcomeMu.RUnlock()

	switch outcome {
	case OutcomeCancel:
		s.emitFailure(domain.PurchaseFailure{Code: domain.FailureUserCancelled, ProductID: productID})
		return nil
	case OutcomeFail:
		s.emitFailure(domain.PurchaseFailure{Code: domain.FailureProvider, ProductID: productID, Message: "sandbox purchase declined"})
		return nil
	}

	record := s.newRecord(productID)

	s.mu.Lock()
	ledger, err := s.readLedger()
	if err == nil {
		ledger.Purchases = append(ledger.Purchases, record)
		err = s.writeLedger(ledger)
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("record purchase: %w", err)
	}

	s.emitTransaction(transactionFrom(record))
	return nil
}

func (s *Store) FinishTransaction(ctx context.Context, tx domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.readLedger()
	if err != nil {
		return err
	}

	idx := ledger.find(tx.ID)
	if idx < 0 {
		return fmt.Errorf("finish transaction %q: not found in ledger", tx.ID)
	}
	if ledger.Purchases[idx].Finished {
		return nil
	}
	ledger.Purchases[idx].Finished = true

	return s.writeLedger(ledger)
}

// Replay re-delivers every unfinished transaction, the way a store does on
// launch for purchases approved while the app was not running.
func (s *Store) Replay(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	ledger, err := s.readLedger()
	s.mu.RUnlock()
	if err != nil {
		return 0, err
	}

	replayed := 0
	for _, record := range ledger.Purchases {
		if record.Finished {
			continue
		}
		s.emitTransaction(transactionFrom(record))
		replayed++
	}

	return replayed, nil
}

func (s *Store) OnPurchaseUpdated(fn func(domain.Transaction)) func() {
	return s.updated.Subscribe(fn)
}

func (s *Store) OnPurchaseError(fn func(domain.PurchaseFailure)) func() {
	return s.failed.Subscribe(fn)
}

// Wait blocks until every event emitted so far has been delivered.
func (s *Store) Wait() {
	s.pending.Wait()
}

func (s *Store) planFor(productID string) (domain.PlanID, bool) {
	switch {
	case productID == "":
		return "", false
	case productID == s.products.Monthly:
		return domain.PlanMonthly, true
	case productID == s.products.Yearly:
		return domain.PlanYearly, true
	default:
		return "", false
	}
}

func (s *Store) newRecord(productID string) purchaseRecord {
	now := s.clock.Now().UTC()
	record := purchaseRecord{
		TransactionID: uuid.NewString(),
		ProductID:     productID,
		Platform:      s.platform,
		Receipt:       uuid.NewString(),
	}

	if strings.EqualFold(s.platform, "android") {
		record.PurchaseTimeMillis = now.UnixMilli()
	} else {
		record.TransactionDate = now.Format(time.RFC3339Nano)
	}

	return record
}

func (s *Store) emitTransaction(tx domain.Transaction) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		time.Sleep(s.delay)
		s.updated.Emit(tx)
	}()
}

func (s *Store) emitFailure(failure domain.PurchaseFailure) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		time.Sleep(s.delay)
		s.failed.Emit(failure)
	}()
}

func (s *Store) readLedger() (ledgerSchema, error) {
	var ledger ledgerSchema
	if _, err := tomlfile.Read(s.path, &ledger); err != nil {
		return ledgerSchema{}, fmt.Errorf("read ledger: %w", err)
	}
	if err := ledger.validateVersion(); err != nil {
		return ledgerSchema{}, err
	}
	ledger.applyDefaults()

	return ledger, nil
}

func (s *Store) writeLedger(ledger ledgerSchema) error {
	ledger.applyDefaults()
	ledger.UpdatedAt = s.clock.Now().UTC().Format(time.RFC3339)

	if err := tomlfile.Write(s.path, ledger); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}

	return nil
}

func transactionFrom(record purchaseRecord) domain.Transaction {
	return domain.Transaction{
		ID:          record.TransactionID,
		ProductID:   record.ProductID,
		PurchasedAt: record.purchasedAt(),
		Receipt:     record.Receipt,
	}
}
