package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/ectoplasma/event"
)

// DefaultTimeout bounds a single plugin call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and dispatches to them.
// It uses type-cached discovery so dispatch does no type assertions.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                 []OnInit
	onShutdown             []OnShutdown
	onPlanCreated          []OnPlanCreated
	onSubscribed           []OnSubscribed
	onSubscriptionCanceled []OnSubscriptionCanceled
	onBillingProcessed     []OnBillingProcessed
	sinks                  []EventSink
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call plugin timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var interfaces []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		interfaces = append(interfaces, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		interfaces = append(interfaces, "OnShutdown")
	}
	if v, ok := p.(OnPlanCreated); ok {
		r.onPlanCreated = append(r.onPlanCreated, v)
		interfaces = append(interfaces, "OnPlanCreated")
	}
	if v, ok := p.(OnSubscribed); ok {
		r.onSubscribed = append(r.onSubscribed, v)
		interfaces = append(interfaces, "OnSubscribed")
	}
	if v, ok := p.(OnSubscriptionCanceled); ok {
		r.onSubscriptionCanceled = append(r.onSubscriptionCanceled, v)
		interfaces = append(interfaces, "OnSubscriptionCanceled")
	}
	if v, ok := p.(OnBillingProcessed); ok {
		r.onBillingProcessed = append(r.onBillingProcessed, v)
		interfaces = append(interfaces, "OnBillingProcessed")
	}
	if v, ok := p.(EventSink); ok {
		r.sinks = append(r.sinks, v)
		interfaces = append(interfaces, "EventSink")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", interfaces,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Emission
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnInit", func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnShutdown", func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// Emit delivers e to the typed hooks for its kind and then to every
// EventSink. Calls are sequential, so delivery order matches emission order.
// Plugin failures are logged and never reach the caller.
func (r *Registry) Emit(ctx context.Context, e event.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch ev := e.(type) {
	case *event.PlanCreated:
		for _, p := range r.onPlanCreated {
			r.call(ctx, p.Name(), "OnPlanCreated", func() error {
				return p.OnPlanCreated(ctx, ev)
			})
		}
	case *event.Subscribed:
		for _, p := range r.onSubscribed {
			r.call(ctx, p.Name(), "OnSubscribed", func() error {
				return p.OnSubscribed(ctx, ev)
			})
		}
	case *event.SubscriptionCanceled:
		for _, p := range r.onSubscriptionCanceled {
			r.call(ctx, p.Name(), "OnSubscriptionCanceled", func() error {
				return p.OnSubscriptionCanceled(ctx, ev)
			})
		}
	case *event.BillingProcessed:
		for _, p := range r.onBillingProcessed {
			r.call(ctx, p.Name(), "OnBillingProcessed", func() error {
				return p.OnBillingProcessed(ctx, ev)
			})
		}
	}

	for _, s := range r.sinks {
		r.call(ctx, s.Name(), "OnEvent", func() error {
			return s.OnEvent(ctx, e)
		})
	}
}

func (r *Registry) call(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
