package ectoplasma

import (
	"errors"

	"github.com/xraph/ectoplasma/id"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("ectoplasma: not found")
	ErrAlreadyExists = errors.New("ectoplasma: already exists")
	ErrInvalidInput  = errors.New("ectoplasma: invalid input")
	ErrUnauthorized  = errors.New("ectoplasma: unauthorized")
	ErrNoCaller      = errors.New("ectoplasma: no authenticated caller")

	// Ledger errors
	ErrAccountNotFound    = errors.New("ectoplasma: account not found")
	ErrInsufficientFunds  = errors.New("ectoplasma: insufficient funds")
	ErrBalanceOverflow    = errors.New("ectoplasma: balance overflow")
	ErrNothingAttached    = errors.New("ectoplasma: no value attached")
	ErrTransferFailed     = errors.New("ectoplasma: transfer failed")
	ErrCompensationFailed = errors.New("ectoplasma: compensating credit failed")

	// Plan errors
	ErrPlanNotFound = errors.New("ectoplasma: plan not found")
	ErrPlanInactive = errors.New("ectoplasma: plan is inactive")

	// Subscription errors
	ErrSubscriptionNotFound = errors.New("ectoplasma: subscription not found")
	ErrSubscriptionInactive = errors.New("ectoplasma: subscription is inactive")

	// Store errors
	ErrStoreNotReady   = errors.New("ectoplasma: store not ready")
	ErrStoreClosed     = errors.New("ectoplasma: store is closed")
	ErrMigrationFailed = errors.New("ectoplasma: migration failed")
)

// ErrCounterNotFound is re-exported from the id package; stores return it for
// counters that were never written.
var ErrCounterNotFound = id.ErrCounterNotFound

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound) ||
		errors.Is(err, ErrCounterNotFound)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransferFailed)
}
