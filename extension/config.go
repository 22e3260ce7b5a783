package extension

import "github.com/xraph/ectoplasma/scheduler"

// Config holds the Ectoplasma extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.ectoplasma" or "ectoplasma" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableScheduler prevents the billing sweep from running. Billing is
	// then only triggered by explicit ProcessBilling calls.
	DisableScheduler bool `json:"disable_scheduler" mapstructure:"disable_scheduler" yaml:"disable_scheduler"`

	// BillingSchedule is the cron spec of the billing sweep (default: "@every 1m").
	BillingSchedule string `json:"billing_schedule" mapstructure:"billing_schedule" yaml:"billing_schedule"`

	// RedisURL selects the Redis store when no store was set programmatically.
	RedisURL string `json:"redis_url" mapstructure:"redis_url" yaml:"redis_url"`

	// RedisPrefix namespaces Redis keys (default: "ectoplasma").
	RedisPrefix string `json:"redis_prefix" mapstructure:"redis_prefix" yaml:"redis_prefix"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BillingSchedule: scheduler.DefaultSchedule,
		RedisPrefix:     "ectoplasma",
	}
}
