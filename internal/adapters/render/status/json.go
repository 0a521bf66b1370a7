package status

import (
	"time"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

// StatusJSON is the wire form of an entitlement status shared by the CLI
// --json output and the HTTP API.
type StatusJSON struct {
	Valid       bool       `json:"valid"`
	Source      string     `json:"source"`
	ProductID   string     `json:"product_id,omitempty"`
	Expiry      *time.Time `json:"expiry,omitempty"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
	Fresh       bool       `json:"fresh"`
}

func NewStatusJSON(status domain.Status, now time.Time, maxAge time.Duration) StatusJSON {
	out := StatusJSON{
		Valid:     status.Valid,
		Source:    string(status.Source),
		ProductID: status.ProductID,
		Expiry:    status.Expiry,
		Fresh:     status.Fresh(now, maxAge),
	}
	if !status.LastChecked.IsZero() {
		checked := status.LastChecked
		out.LastChecked = &checked
	}

	return out
}
