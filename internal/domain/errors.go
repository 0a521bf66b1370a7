package domain

import "errors"

var (
	ErrProviderUnavailable           = errors.New("provider unavailable")
	ErrNoValidEntitlement            = errors.New("no valid entitlement")
	ErrAlreadyInFlight               = errors.New("purchase already in flight")
	ErrPackageUnavailable            = errors.New("package unavailable")
	ErrUserCancelled                 = errors.New("purchase cancelled by user")
	ErrTransactionFinalizationFailed = errors.New("transaction finalization failed")
	ErrUnknownPlan                   = errors.New("unknown plan")
	ErrCacheUnavailable              = errors.New("entitlement cache unavailable")
)
