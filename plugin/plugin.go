// Package plugin provides an extensible plugin system for Ectoplasma.
// Plugins hook into lifecycle and billing events; together they form the
// engine's event sink.
package plugin

import (
	"context"

	"github.com/xraph/ectoplasma/event"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. Event hooks are invoked after
// the emitting operation has returned its lock, so a plugin may keep the
// engine and call it from any hook.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Plan hooks
// ──────────────────────────────────────────────────

// OnPlanCreated is called when a new plan is created.
type OnPlanCreated interface {
	Plugin
	OnPlanCreated(ctx context.Context, e *event.PlanCreated) error
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscribed is called when a new subscription is created.
type OnSubscribed interface {
	Plugin
	OnSubscribed(ctx context.Context, e *event.Subscribed) error
}

// OnSubscriptionCanceled is called when a subscription is canceled.
type OnSubscriptionCanceled interface {
	Plugin
	OnSubscriptionCanceled(ctx context.Context, e *event.SubscriptionCanceled) error
}

// ──────────────────────────────────────────────────
// Billing hooks
// ──────────────────────────────────────────────────

// OnBillingProcessed is called after a successful billing charge.
type OnBillingProcessed interface {
	Plugin
	OnBillingProcessed(ctx context.Context, e *event.BillingProcessed) error
}

// ──────────────────────────────────────────────────
// Generic sink
// ──────────────────────────────────────────────────

// EventSink receives every event after the typed hooks have run.
type EventSink interface {
	Plugin
	OnEvent(ctx context.Context, e event.Event) error
}
