package domain

import "time"

type Source string

const (
	SourceRemote Source = "remote"
	SourceStore  Source = "store"
	SourceCache  Source = "cache"
	SourceNone   Source = "none"
	SourceError  Source = "error"
)

// Status is the single entitlement value the rest of the application observes.
// It is immutable: copy it freely, never mutate a published instance.
type Status struct {
	Valid       bool
	Expiry      *time.Time
	Source      Source
	LastChecked time.Time
	ProductID   string
}

// NewStatus builds a status, dropping validity when expiry is not after
// checkedAt.
func NewStatus(source Source, expiry *time.Time, productID string, checkedAt time.Time) Status {
	status := Status{
		Valid:       true,
		Expiry:      copyTime(expiry),
		Source:      source,
		LastChecked: checkedAt,
		ProductID:   productID,
	}
	if status.Expiry != nil && !status.Expiry.After(checkedAt) {
		status.Valid = false
	}

	return status
}

func InvalidStatus(source Source, checkedAt time.Time) Status {
	return Status{Valid: false, Source: source, LastChecked: checkedAt}
}

// ActiveAt reports whether the status grants access at now. Expiry is
// checked on every call, not only when the status was produced.
func (s Status) ActiveAt(now time.Time) bool {
	if !s.Valid {
		return false
	}
	if s.Expiry == nil {
		return true
	}

	return s.Expiry.After(now)
}

// At returns a copy whose validity reflects now.
func (s Status) At(now time.Time) Status {
	out := s
	out.Expiry = copyTime(s.Expiry)
	out.Valid = s.ActiveAt(now)
	return out
}

// Fresh reports whether the status was checked less than maxAge before now.
func (s Status) Fresh(now time.Time, maxAge time.Duration) bool {
	if s.LastChecked.IsZero() || maxAge <= 0 {
		return false
	}

	return now.Sub(s.LastChecked) < maxAge
}

// Equivalent compares two statuses ignoring LastChecked.
func (s Status) Equivalent(other Status) bool {
	if s.Valid != other.Valid || s.Source != other.Source || s.ProductID != other.ProductID {
		return false
	}
	if (s.Expiry == nil) != (other.Expiry == nil) {
		return false
	}

	return s.Expiry == nil || s.Expiry.Equal(*other.Expiry)
}

// Cached converts the status into its persisted form.
func (s Status) Cached() CachedEntitlement {
	if !s.Valid {
		return CachedEntitlement{}
	}

	return CachedEntitlement{IsSubscribed: true, Expiry: copyTime(s.Expiry)}
}

// CachedEntitlement is the persisted degraded fallback for Status.
type CachedEntitlement struct {
	IsSubscribed bool
	Expiry       *time.Time
}

func (c CachedEntitlement) Expired(now time.Time) bool {
	return c.Expiry != nil && !c.Expiry.After(now)
}

// RemoteEntitlement is the backend-verified entitlement snapshot.
type RemoteEntitlement struct {
	Active    bool
	Expiry    *time.Time
	ProductID string
}

func copyTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}

	copied := *value
	return &copied
}

// TimePtr returns a pointer to a copy of value.
func TimePtr(value time.Time) *time.Time {
	return &value
}
