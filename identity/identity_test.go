package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/ectoplasma/identity"
	"github.com/xraph/ectoplasma/types"
)

func TestCaller(t *testing.T) {
	_, ok := identity.Caller(context.Background())
	assert.False(t, ok)

	ctx := identity.WithCaller(context.Background(), "alice")
	got, ok := identity.Caller(ctx)
	assert.True(t, ok)
	assert.Equal(t, types.Identity("alice"), got)

	_, ok = identity.Caller(identity.WithCaller(context.Background(), ""))
	assert.False(t, ok, "empty identity is not a caller")
}

func TestAttachedValue(t *testing.T) {
	assert.True(t, identity.AttachedValue(context.Background()).IsZero())

	ctx := identity.Call(context.Background(), "bob", types.NewAmount(200))
	assert.Equal(t, "200", identity.AttachedValue(ctx).String())
	caller, ok := identity.Caller(ctx)
	assert.True(t, ok)
	assert.Equal(t, types.Identity("bob"), caller)
}
