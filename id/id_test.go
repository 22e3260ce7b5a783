package id_test

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/ectoplasma/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"EventID", id.NewEventID, "evt_"},
		{"PayoutID", id.NewPayoutID, "pout_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := id.NewEventID()
	parsed, err := id.ParseEventID(original.String())
	require.NoError(t, err)
	assert.Equal(t, original.String(), parsed.String())

	_, err = id.ParsePayoutID(original.String())
	assert.Error(t, err, "event id must not parse as payout id")
}

func TestParseEmpty(t *testing.T) {
	_, err := id.Parse("")
	assert.Error(t, err)
}

func TestNilID(t *testing.T) {
	var i id.ID
	assert.True(t, i.IsNil())
	assert.Empty(t, i.String())
	assert.Empty(t, i.Prefix())
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewPayoutID()
	data, err := original.MarshalText()
	require.NoError(t, err)

	var restored id.ID
	require.NoError(t, restored.UnmarshalText(data))
	assert.Equal(t, original.String(), restored.String())

	var nilID id.ID
	data, err = nilID.MarshalText()
	require.NoError(t, err)
	var restored2 id.ID
	require.NoError(t, restored2.UnmarshalText(data))
	assert.True(t, restored2.IsNil())
}

func TestValueScan(t *testing.T) {
	original := id.NewEventID()
	val, err := original.Value()
	require.NoError(t, err)

	var scanned id.ID
	require.NoError(t, scanned.Scan(val))
	assert.Equal(t, original.String(), scanned.String())

	var scanned2 id.ID
	require.NoError(t, scanned2.Scan(nil))
	assert.True(t, scanned2.IsNil())
}

func TestNumericIDs(t *testing.T) {
	p, err := id.ParsePlanID("42")
	require.NoError(t, err)
	assert.Equal(t, id.PlanID(42), p)
	assert.Equal(t, "42", p.String())

	_, err = id.ParseSubscriptionID("-1")
	assert.Error(t, err)
}

type counters map[string]uint64

func (c counters) GetCounter(_ context.Context, name string) (uint64, error) {
	v, ok := c[name]
	if !ok {
		return 0, id.ErrCounterNotFound
	}
	return v, nil
}

func (c counters) SetCounter(_ context.Context, name string, value uint64) error {
	c[name] = value
	return nil
}

func TestSequenceStartsAtZero(t *testing.T) {
	ctx := context.Background()
	store := counters{}
	seq := id.NewSequence(id.CounterPlan, store)

	for want := uint64(0); want < 3; want++ {
		got, err := seq.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, uint64(3), store[id.CounterPlan])
}

func TestSequencesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := counters{}
	plans := id.NewSequence(id.CounterPlan, store)
	subs := id.NewSequence(id.CounterSubscription, store)

	_, err := plans.Next(ctx)
	require.NoError(t, err)
	_, err = plans.Next(ctx)
	require.NoError(t, err)

	got, err := subs.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)
}

func TestSequenceSaturates(t *testing.T) {
	ctx := context.Background()
	store := counters{id.CounterSubscription: math.MaxUint64 - 1}
	seq := id.NewSequence(id.CounterSubscription, store)

	got, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64-1), got)

	for range 2 {
		got, err = seq.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64), got)
	}
}
