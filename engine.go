package ectoplasma

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/ectoplasma/event"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/plugin"
	"github.com/xraph/ectoplasma/store"
	"github.com/xraph/ectoplasma/transfer"
)

// Engine is the subscriptions billing engine. Every public operation runs
// to completion under a single lock, so no two operations interleave.
// Plugin hooks run after the lock is released and may call back into
// the engine.
type Engine struct {
	store    store.Store
	plugins  *plugin.Registry
	transfer transfer.Transferer
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	planSeq *id.Sequence
	subSeq  *id.Sequence
}

// New creates a new Engine backed by s. Without WithTransfer, payouts go to
// an in-memory transfer.Recorder.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		plugins:  plugin.NewRegistry(),
		transfer: transfer.NewRecorder(),
		logger:   slog.Default(),
		now:      time.Now,
		planSeq:  id.NewSequence(id.CounterPlan, s),
		subSeq:   id.NewSequence(id.CounterSubscription, s),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithTransfer sets the capability that moves billed value to merchants.
func WithTransfer(t transfer.Transferer) Option {
	return func(e *Engine) {
		e.transfer = t
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("ectoplasma started", "plugins", e.plugins.Count())
	return nil
}

// Stop shuts down plugins and closes the store.
func (e *Engine) Stop() error {
	e.plugins.EmitShutdown(context.Background())
	return e.store.Close()
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// emit hands *ev to the plugins. It is deferred ahead of the lock so hooks
// run after the operation has released the engine.
func (e *Engine) emit(ctx context.Context, ev *event.Event) {
	if *ev != nil {
		e.plugins.Emit(ctx, *ev)
	}
}

func (e *Engine) rejected(op string, reason Reason, attrs ...any) Outcome {
	e.logger.Debug(op+" rejected", append([]any{"reason", reason}, attrs...)...)
	return Rejected(reason)
}
