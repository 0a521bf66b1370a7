package cmd

import (
	"fmt"
	"time"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

// describeStatus renders status on a single line.
func describeStatus(status domain.Status) string {
	switch {
	case !status.Valid:
		return fmt.Sprintf("free plan (source: %s)", status.Source)
	case status.Expiry == nil:
		return fmt.Sprintf("premium, no expiry (source: %s)", status.Source)
	default:
		return fmt.Sprintf("premium until %s (source: %s)", status.Expiry.Local().Format(time.DateTime), status.Source)
	}
}
