// Package transfer defines the value-transfer capability the billing
// processor uses to pay merchants out of custody.
package transfer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/types"
)

// Transferer moves amount out of custody to the recipient. It either fully
// succeeds or returns an error with no effect.
type Transferer interface {
	Transfer(ctx context.Context, to types.Identity, amount types.Amount) error
}

// Func adapts a plain function to a Transferer.
type Func func(ctx context.Context, to types.Identity, amount types.Amount) error

// Transfer implements Transferer.
func (f Func) Transfer(ctx context.Context, to types.Identity, amount types.Amount) error {
	return f(ctx, to, amount)
}

// ErrRecipientRequired is returned for an empty recipient.
var ErrRecipientRequired = errors.New("transfer: recipient required")

// Payout is one completed transfer.
type Payout struct {
	ID     id.PayoutID    `json:"id"`
	To     types.Identity `json:"to"`
	Amount types.Amount   `json:"amount"`
	At     time.Time      `json:"at"`
}

// Recorder is an in-memory custody that records every payout and keeps a
// running total per recipient. It is the engine's default Transferer.
type Recorder struct {
	mu      sync.RWMutex
	payouts []Payout
	totals  map[types.Identity]types.Amount
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{totals: make(map[types.Identity]types.Amount)}
}

// Transfer implements Transferer.
func (r *Recorder) Transfer(_ context.Context, to types.Identity, amount types.Amount) error {
	if to.IsZero() {
		return ErrRecipientRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	total, err := r.totals[to].Add(amount)
	if err != nil {
		return err
	}
	r.totals[to] = total
	r.payouts = append(r.payouts, Payout{
		ID:     id.NewPayoutID(),
		To:     to,
		Amount: amount,
		At:     time.Now().UTC(),
	})
	return nil
}

// Received returns the total paid out to recipient.
func (r *Recorder) Received(recipient types.Identity) types.Amount {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totals[recipient]
}

// Payouts returns a copy of all recorded payouts in order.
func (r *Recorder) Payouts() []Payout {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Payout, len(r.payouts))
	copy(result, r.payouts)
	return result
}
