// Package audithook bridges Ectoplasma billing events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/ectoplasma/event"
	"github.com/xraph/ectoplasma/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnPlanCreated          = (*Extension)(nil)
	_ plugin.OnSubscribed           = (*Extension)(nil)
	_ plugin.OnSubscriptionCanceled = (*Extension)(nil)
	_ plugin.OnBillingProcessed     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Ectoplasma events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// OnPlanCreated implements plugin.OnPlanCreated.
func (e *Extension) OnPlanCreated(ctx context.Context, evt *event.PlanCreated) error {
	return e.record(ctx, evt.Meta, ActionPlanCreated, ResourcePlan, evt.PlanID.String(),
		evt.Merchant.String(), CategoryBilling,
		"merchant", evt.Merchant.String(),
	)
}

// OnSubscribed implements plugin.OnSubscribed.
func (e *Extension) OnSubscribed(ctx context.Context, evt *event.Subscribed) error {
	return e.record(ctx, evt.Meta, ActionSubscriptionCreated, ResourceSubscription, evt.SubscriptionID.String(),
		evt.Subscriber.String(), CategorySubscription,
		"plan_id", evt.PlanID.String(),
	)
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (e *Extension) OnSubscriptionCanceled(ctx context.Context, evt *event.SubscriptionCanceled) error {
	return e.record(ctx, evt.Meta, ActionSubscriptionCanceled, ResourceSubscription, evt.SubscriptionID.String(),
		evt.Subscriber.String(), CategorySubscription,
		"plan_id", evt.PlanID.String(),
	)
}

// OnBillingProcessed implements plugin.OnBillingProcessed.
func (e *Extension) OnBillingProcessed(ctx context.Context, evt *event.BillingProcessed) error {
	return e.record(ctx, evt.Meta, ActionBillingProcessed, ResourceSubscription, evt.SubscriptionID.String(),
		evt.Subscriber.String(), CategoryPayment,
		"plan_id", evt.PlanID.String(),
		"merchant", evt.Merchant.String(),
		"period_index", evt.PeriodIndex,
		"amount", evt.PricePerPeriod.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled. Recorder
// failures are logged and never propagate.
func (e *Extension) record(
	ctx context.Context,
	meta event.Meta,
	action, resource, resourceID, actor, category string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	md := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		md[key] = kvPairs[i+1]
	}
	md["occurred_at"] = meta.OccurredAt

	evt := &AuditEvent{
		ID:         meta.ID.String(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Actor:      actor,
		Metadata:   md,
		Outcome:    OutcomeSuccess,
		Severity:   SeverityInfo,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
