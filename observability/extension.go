// Package observability provides a metrics extension for Ectoplasma that
// records billing event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/ectoplasma/event"
	"github.com/xraph/ectoplasma/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnPlanCreated          = (*MetricsExtension)(nil)
	_ plugin.OnSubscribed           = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCanceled = (*MetricsExtension)(nil)
	_ plugin.OnBillingProcessed     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide billing metrics.
// Register it as an Ectoplasma plugin to track them automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Plan metrics
	PlanCreated Counter

	// Subscription metrics
	SubscriptionCreated  Counter
	SubscriptionCanceled Counter

	// Billing metrics
	BillingProcessed Counter
	BillingAmount    Histogram
	BillingPeriod    Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewPrometheusFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		PlanCreated: factory.Counter("ectoplasma.plan.created"),

		SubscriptionCreated:  factory.Counter("ectoplasma.subscription.created"),
		SubscriptionCanceled: factory.Counter("ectoplasma.subscription.canceled"),

		BillingProcessed: factory.Counter("ectoplasma.billing.processed"),
		BillingAmount:    factory.Histogram("ectoplasma.billing.amount"),
		BillingPeriod:    factory.Histogram("ectoplasma.billing.period_index"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// OnPlanCreated implements plugin.OnPlanCreated.
func (m *MetricsExtension) OnPlanCreated(_ context.Context, _ *event.PlanCreated) error {
	m.PlanCreated.Inc()
	return nil
}

// OnSubscribed implements plugin.OnSubscribed.
func (m *MetricsExtension) OnSubscribed(_ context.Context, _ *event.Subscribed) error {
	m.SubscriptionCreated.Inc()
	return nil
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (m *MetricsExtension) OnSubscriptionCanceled(_ context.Context, _ *event.SubscriptionCanceled) error {
	m.SubscriptionCanceled.Inc()
	return nil
}

// OnBillingProcessed implements plugin.OnBillingProcessed. Amounts beyond
// float64 precision are observed approximately.
func (m *MetricsExtension) OnBillingProcessed(_ context.Context, e *event.BillingProcessed) error {
	m.BillingProcessed.Inc()
	m.BillingAmount.Observe(e.PricePerPeriod.Float64())
	m.BillingPeriod.Observe(float64(e.PeriodIndex))
	return nil
}
