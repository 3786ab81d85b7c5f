package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// ErrManualQuotaExceeded rejects a manual refresh whose hourly quota is
	// spent. This is a defined rejection, not an upstream failure.
	ErrManualQuotaExceeded = errors.New("manual refresh quota exhausted")
)
