package id

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// PlanID identifies a plan. The first issued value is 0.
type PlanID uint64

// SubscriptionID identifies a subscription. The first issued value is 0.
type SubscriptionID uint64

// String returns the base-10 representation.
func (p PlanID) String() string { return strconv.FormatUint(uint64(p), 10) }

// String returns the base-10 representation.
func (s SubscriptionID) String() string { return strconv.FormatUint(uint64(s), 10) }

// ParsePlanID parses a base-10 plan id.
func ParsePlanID(s string) (PlanID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id: parse plan id %q: %w", s, err)
	}
	return PlanID(v), nil
}

// ParseSubscriptionID parses a base-10 subscription id.
func ParseSubscriptionID(s string) (SubscriptionID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id: parse subscription id %q: %w", s, err)
	}
	return SubscriptionID(v), nil
}

// Counter names.
const (
	CounterPlan         = "plan"
	CounterSubscription = "subscription"
)

// ErrCounterNotFound is returned by a CounterStore for a counter that was
// never written.
var ErrCounterNotFound = errors.New("id: counter not found")

// CounterStore persists named counters.
type CounterStore interface {
	GetCounter(ctx context.Context, name string) (uint64, error)
	SetCounter(ctx context.Context, name string, value uint64) error
}

// Sequence allocates identifiers from a persisted counter. The counter holds
// the next value to issue; an absent counter starts at 0. At math.MaxUint64
// the counter saturates and the same value is issued again.
//
// A Sequence does no locking of its own: callers serialize Next.
type Sequence struct {
	name  string
	store CounterStore
}

// NewSequence returns a Sequence over the named counter.
func NewSequence(name string, store CounterStore) *Sequence {
	return &Sequence{name: name, store: store}
}

// Next returns the next identifier and advances the counter.
func (s *Sequence) Next(ctx context.Context) (uint64, error) {
	current, err := s.store.GetCounter(ctx, s.name)
	if errors.Is(err, ErrCounterNotFound) {
		current = 0
	} else if err != nil {
		return 0, fmt.Errorf("id: load counter %q: %w", s.name, err)
	}

	next := current
	if current < math.MaxUint64 {
		next = current + 1
	}
	if err := s.store.SetCounter(ctx, s.name, next); err != nil {
		return 0, fmt.Errorf("id: save counter %q: %w", s.name, err)
	}
	return current, nil
}
