// Package extension provides the Forge extension adapter for Ectoplasma.
//
// It implements the forge.Extension interface to integrate the billing
// engine into a Forge application with DI registration, lifecycle
// management and a cron-driven billing sweep.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.ectoplasma" or
// "ectoplasma" keys.
package extension

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/ectoplasma"
	"github.com/xraph/ectoplasma/scheduler"
	"github.com/xraph/ectoplasma/store"
	"github.com/xraph/ectoplasma/store/memory"
	"github.com/xraph/ectoplasma/store/redis"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "ectoplasma"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Recurring subscription billing engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

const redisOpenTimeout = 10 * time.Second

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Ectoplasma as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *ectoplasma.Engine
	scheduler  *scheduler.Scheduler
	store      store.Store
	engineOpts []ectoplasma.Option
}

// New creates a new Ectoplasma Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *ectoplasma.Engine { return e.engine }

// Scheduler returns the billing scheduler, or nil when it is disabled.
func (e *Extension) Scheduler() *scheduler.Scheduler { return e.scheduler }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.resolveStore(); err != nil {
		return err
	}

	e.engine = ectoplasma.New(e.store, e.engineOpts...)
	if !e.config.DisableScheduler {
		e.scheduler = scheduler.New(e.engine, scheduler.WithSchedule(e.config.BillingSchedule))
	}

	return vessel.Provide(fapp.Container(), func() (*ectoplasma.Engine, error) {
		return e.engine, nil
	})
}

// resolveStore picks the programmatic store, then Redis, then memory.
func (e *Extension) resolveStore() error {
	if e.store != nil {
		return nil
	}
	if e.config.RedisURL == "" {
		e.store = memory.New()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpenTimeout)
	defer cancel()

	s, err := redis.Open(ctx, e.config.RedisURL, redis.WithPrefix(e.config.RedisPrefix))
	if err != nil {
		return err
	}
	e.store = s
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("ectoplasma: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	if e.scheduler != nil {
		// The sweep outlives the start call.
		if err := e.scheduler.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.scheduler != nil {
		e.scheduler.Stop()
	}
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("ectoplasma: store not initialized")
	}
	return e.store.Ping(ctx)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("ectoplasma: configuration is required but not found in config files; " +
				"ensure 'extensions.ectoplasma' or 'ectoplasma' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("ectoplasma: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("disable_scheduler", e.config.DisableScheduler),
		forge.F("billing_schedule", e.config.BillingSchedule),
		forge.F("redis", e.config.RedisURL != ""),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.ectoplasma", "ectoplasma"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("ectoplasma: loaded config from file", forge.F("key", key))
			return cfg, true
		}
		e.Logger().Warn("ectoplasma: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BillingSchedule == "" {
		cfg.BillingSchedule = defaults.BillingSchedule
	}
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = defaults.RedisPrefix
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps and
// programmatic bool flags override when true.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableScheduler {
		yamlConfig.DisableScheduler = true
	}

	if yamlConfig.BillingSchedule == "" {
		yamlConfig.BillingSchedule = programmaticConfig.BillingSchedule
	}
	if yamlConfig.RedisURL == "" {
		yamlConfig.RedisURL = programmaticConfig.RedisURL
	}
	if yamlConfig.RedisPrefix == "" {
		yamlConfig.RedisPrefix = programmaticConfig.RedisPrefix
	}

	return mergeWithDefaults(yamlConfig)
}
