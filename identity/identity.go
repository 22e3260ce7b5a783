// Package identity carries the authenticated caller and the native value
// attached to a call on a context.Context. The host environment populates
// the context; the engine only reads it.
package identity

import (
	"context"

	"github.com/xraph/ectoplasma/types"
)

type callerKey struct{}

type attachedValueKey struct{}

// WithCaller returns a copy of ctx carrying the authenticated caller.
func WithCaller(ctx context.Context, caller types.Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// Caller returns the authenticated caller, if any.
func Caller(ctx context.Context) (types.Identity, bool) {
	v, ok := ctx.Value(callerKey{}).(types.Identity)
	if !ok || v.IsZero() {
		return "", false
	}
	return v, true
}

// WithAttachedValue returns a copy of ctx carrying the native value attached
// to the current call.
func WithAttachedValue(ctx context.Context, amount types.Amount) context.Context {
	return context.WithValue(ctx, attachedValueKey{}, amount)
}

// AttachedValue returns the attached value, or zero when none was attached.
func AttachedValue(ctx context.Context) types.Amount {
	v, _ := ctx.Value(attachedValueKey{}).(types.Amount)
	return v
}

// Call is shorthand for a context carrying both caller and attached value.
func Call(ctx context.Context, caller types.Identity, attached types.Amount) context.Context {
	return WithAttachedValue(WithCaller(ctx, caller), attached)
}
