package audithook_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/ectoplasma"
	audithook "github.com/xraph/ectoplasma/audit_hook"
	"github.com/xraph/ectoplasma/identity"
	"github.com/xraph/ectoplasma/plan"
	"github.com/xraph/ectoplasma/store/memory"
	"github.com/xraph/ectoplasma/types"
)

func TestRecordsBillingLifecycle(t *testing.T) {
	var recorded []*audithook.AuditEvent
	hook := audithook.New(audithook.RecorderFunc(func(_ context.Context, evt *audithook.AuditEvent) error {
		recorded = append(recorded, evt)
		return nil
	}))

	ctx := context.Background()
	e := ectoplasma.New(memory.New(), ectoplasma.WithPlugin(hook))

	planID, err := e.CreatePlan(identity.WithCaller(ctx, "merchant"), plan.Input{PricePerPeriod: types.NewAmount(5)})
	require.NoError(t, err)
	alice := identity.WithCaller(ctx, "alice")
	subID, _, err := e.Subscribe(alice, planID)
	require.NoError(t, err)
	_, err = e.Deposit(identity.WithAttachedValue(alice, types.NewAmount(5)))
	require.NoError(t, err)
	_, err = e.ProcessBilling(ctx, subID)
	require.NoError(t, err)
	_, err = e.CancelSubscription(alice, subID)
	require.NoError(t, err)

	require.Len(t, recorded, 4)
	actions := []string{recorded[0].Action, recorded[1].Action, recorded[2].Action, recorded[3].Action}
	assert.Equal(t, []string{
		audithook.ActionPlanCreated,
		audithook.ActionSubscriptionCreated,
		audithook.ActionBillingProcessed,
		audithook.ActionSubscriptionCanceled,
	}, actions)

	billed := recorded[2]
	assert.Equal(t, "0", billed.ResourceID)
	assert.Equal(t, "alice", billed.Actor)
	assert.Equal(t, "5", billed.Metadata["amount"])
	assert.Equal(t, uint32(0), billed.Metadata["period_index"])
	assert.Contains(t, billed.ID, "evt_")
}

func TestDisabledActionsAreSkipped(t *testing.T) {
	var actions []string
	hook := audithook.New(
		audithook.RecorderFunc(func(_ context.Context, evt *audithook.AuditEvent) error {
			actions = append(actions, evt.Action)
			return nil
		}),
		audithook.WithDisabledActions(audithook.ActionPlanCreated),
	)

	ctx := context.Background()
	e := ectoplasma.New(memory.New(), ectoplasma.WithPlugin(hook))
	planID, err := e.CreatePlan(identity.WithCaller(ctx, "merchant"), plan.Input{})
	require.NoError(t, err)
	_, _, err = e.Subscribe(identity.WithCaller(ctx, "alice"), planID)
	require.NoError(t, err)

	assert.Equal(t, []string{audithook.ActionSubscriptionCreated}, actions)
}

func TestRecorderErrorIsSwallowed(t *testing.T) {
	hook := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))

	ctx := context.Background()
	e := ectoplasma.New(memory.New(), ectoplasma.WithPlugin(hook))
	_, err := e.CreatePlan(identity.WithCaller(ctx, "merchant"), plan.Input{})
	assert.NoError(t, err)
}
