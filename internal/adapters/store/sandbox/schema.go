package sandbox

import (
	"fmt"
	"strings"
	"time"
)

const currentLedgerVersion = 1

type ledgerSchema struct {
	Version   int              `toml:"version"`
	UpdatedAt string           `toml:"updated_at,omitempty"`
	Purchases []purchaseRecord `toml:"purchases"`
}

// purchaseRecord mirrors what the platform stores hand back. iOS reports
// transaction_date (or its millisecond form), Android purchase_time_millis.
type purchaseRecord struct {
	TransactionID      string `toml:"transaction_id"`
	ProductID          string `toml:"product_id"`
	Platform           string `toml:"platform,omitempty"`
	TransactionDate    string `toml:"transaction_date,omitempty"`
	TransactionDateMs  int64  `toml:"transaction_date_ms,omitempty"`
	PurchaseTimeMillis int64  `toml:"purchase_time_millis,omitempty"`
	Receipt            string `toml:"receipt,omitempty"`
	Finished           bool   `toml:"finished"`
}

func (s *ledgerSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentLedgerVersion
	}
	if s.Purchases == nil {
		s.Purchases = []purchaseRecord{}
	}
}

func (s ledgerSchema) validateVersion() error {
	if s.Version > currentLedgerVersion {
		return fmt.Errorf("unsupported ledger schema version %d (current %d)", s.Version, currentLedgerVersion)
	}

	return nil
}

func (s ledgerSchema) find(transactionID string) int {
	for i, record := range s.Purchases {
		if record.TransactionID == transactionID {
			return i
		}
	}

	return -1
}

// purchasedAt returns the normalized UTC purchase time, or the zero time
// when no field carries one.
func (r purchaseRecord) purchasedAt() time.Time {
	if raw := strings.TrimSpace(r.TransactionDate); raw != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return parsed.UTC()
		}
	}
	if r.TransactionDateMs > 0 {
		return time.UnixMilli(r.TransactionDateMs).UTC()
	}
	if r.PurchaseTimeMillis > 0 {
		return time.UnixMilli(r.PurchaseTimeMillis).UTC()
	}

	return time.Time{}
}
