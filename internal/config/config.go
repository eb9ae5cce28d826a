// Package config loads and threads the service's runtime configuration,
// grounded on engine/infra/server/config.go's Config struct and
// cli/root.go's SetupGlobalConfig/config.FromContext pattern, backed by
// github.com/spf13/viper for environment and flag binding.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the process-wide runtime configuration. It is resolved once at
// startup and threaded via context rather than a package global, matching
// the teacher's config.FromContext(ctx) idiom.
type Config struct {
	Host string
	Port int

	// ResourceDescriptorPath points at the YAML catalog file (spec §6,
	// RENTABOT_RESOURCE_DESCRIPTOR).
	ResourceDescriptorPath string

	// LegacyPrefixEnabled serves the deprecated path prefix alongside the
	// current one (spec §6).
	LegacyPrefixEnabled bool
	// LegacyRedirect, if true, 307-redirects the legacy prefix instead of
	// serving it directly with a Deprecation header (spec §6).
	LegacyRedirect bool

	ReaperInterval    time.Duration
	SchedulerInterval time.Duration
}

type ctxKey struct{}

// WithContext attaches cfg to ctx.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext recovers the Config attached to ctx, or Defaults() if none
// was attached.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok && cfg != nil {
		return cfg
	}
	return Defaults()
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		Host:                   "0.0.0.0",
		Port:                   8080,
		ResourceDescriptorPath: "resources.yaml",
		LegacyPrefixEnabled:    true,
		LegacyRedirect:         false,
		ReaperInterval:         10 * time.Second,
		SchedulerInterval:      10 * time.Second,
	}
}

// Load builds a Config from environment variables (RENTABOT_*), falling
// back to Defaults() for anything unset. Mirrors SetupGlobalConfig's use
// of viper for source layering, scoped down to env + defaults since this
// service has no YAML app-config file of its own (only the resource
// descriptor, which is loaded separately by internal/descriptor).
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RENTABOT")
	v.AutomaticEnv()

	cfg := Defaults()

	if host := v.GetString("HOST"); host != "" {
		cfg.Host = host
	}
	if port := v.GetInt("PORT"); port != 0 {
		cfg.Port = port
	}
	if path := v.GetString("RESOURCE_DESCRIPTOR"); path != "" {
		cfg.ResourceDescriptorPath = path
	}
	if v.IsSet("LEGACY_REDIRECT") {
		cfg.LegacyRedirect = v.GetBool("LEGACY_REDIRECT")
	}
	if v.IsSet("LEGACY_PREFIX_ENABLED") {
		cfg.LegacyPrefixEnabled = v.GetBool("LEGACY_PREFIX_ENABLED")
	}

	if cfg.ResourceDescriptorPath == "" {
		return nil, fmt.Errorf("RENTABOT_RESOURCE_DESCRIPTOR must point at a resource descriptor file")
	}
	return cfg, nil
}

// FullAddress returns the host:port the HTTP server binds to, matching
// engine/infra/server/config.go's Config.FullAddress.
func (c *Config) FullAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
