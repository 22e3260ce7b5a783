package extension

import (
	"github.com/xraph/ectoplasma"
	"github.com/xraph/ectoplasma/plugin"
	"github.com/xraph/ectoplasma/store"
	"github.com/xraph/ectoplasma/transfer"
)

// Option configures the Ectoplasma Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes an ectoplasma.Option through to the engine.
func WithEngineOption(opt ectoplasma.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, ectoplasma.WithPlugin(p))
	}
}

// WithTransfer sets the payout collaborator.
func WithTransfer(t transfer.Transferer) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, ectoplasma.WithTransfer(t))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithDisableScheduler turns off the billing sweep.
func WithDisableScheduler() Option {
	return func(e *Extension) { e.config.DisableScheduler = true }
}

// WithBillingSchedule sets the cron spec of the billing sweep.
func WithBillingSchedule(spec string) Option {
	return func(e *Extension) { e.config.BillingSchedule = spec }
}

// WithRedisURL backs the engine with the Redis store at url.
func WithRedisURL(url string) Option {
	return func(e *Extension) { e.config.RedisURL = url }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
