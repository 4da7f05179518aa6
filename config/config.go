// Package config decodes and validates the structural configuration
// surface: monitoring, notifications, providers and application
// settings. One struct of nested sub-structs plus a Default constructor
// and a Validate method.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/engels74/moversentinel/errkind"
)

// Monitoring holds the PID-file polling and sampling parameters.
type Monitoring struct {
	PIDFile          string        `yaml:"pid_file"`
	PIDCheckInterval durationValue `yaml:"pid_check_interval"`
	SamplingInterval durationValue `yaml:"sampling_interval"`
	ProcessTimeout   durationValue `yaml:"process_timeout"`
	ExclusionPaths   []string      `yaml:"exclusion_paths"`
	Roots            []string      `yaml:"roots"`
}

// Notifications holds the threshold and retry policy for progress
// notifications.
type Notifications struct {
	Thresholds        []float64 `yaml:"thresholds"`
	CompletionEnabled bool      `yaml:"completion_enabled"`
	RetryAttempts     int       `yaml:"retry_attempts"`
}

// Providers holds the enabled provider identifiers and the settings
// needed to construct the reference provider implementations.
type Providers struct {
	Enabled         []string      `yaml:"enabled"`
	WebhookURL      string        `yaml:"webhook_url"`
	ProviderTimeout durationValue `yaml:"provider_timeout"`
}

// Application holds process-wide runtime flags.
type Application struct {
	LogLevel      string `yaml:"log_level"`
	DryRun        bool   `yaml:"dry_run"`
	VersionCheck  bool   `yaml:"version_check"`
	SyslogEnabled bool   `yaml:"syslog_enabled"`
	AdminAddr     string `yaml:"admin_addr"`
	OTLPEndpoint  string `yaml:"otlp_endpoint"`
	OTLPInsecure  bool   `yaml:"otlp_insecure"`
}

// Config is the top-level decoded configuration document.
type Config struct {
	Monitoring    Monitoring    `yaml:"monitoring"`
	Notifications Notifications `yaml:"notifications"`
	Providers     Providers     `yaml:"providers"`
	Application   Application   `yaml:"application"`
}

var validLogLevels = map[string]struct{}{
	"DEBUG": {}, "INFO": {}, "WARNING": {}, "ERROR": {}, "CRITICAL": {},
}

// Default returns a Config with the documented defaults.
func Default() *Config {
	return &Config{
		Notifications: Notifications{
			Thresholds:        []float64{0, 25, 50, 75, 100},
			CompletionEnabled: true,
			RetryAttempts:     5,
		},
		Providers:   Providers{ProviderTimeout: durationValue{Duration: 15 * time.Second}},
		Application: Application{LogLevel: "INFO", AdminAddr: ":9091"},
	}
}

// Load reads path, decodes it as YAML onto Default(), and validates the
// result. Environment-variable overlay and config-file discovery are the
// caller's responsibility; Load always takes an already-resolved path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errkind.New(errkind.IOUnavailable, "config.Load", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errkind.New(errkind.ConfigurationInvalid, "config.Load", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the structural constraints: positive intervals,
// thresholds in range, a non-empty provider list, and a known log
// level.
func (c *Config) Validate() error {
	if c.Monitoring.PIDFile == "" {
		return errkind.New(errkind.ConfigurationInvalid, "Config.Validate", fmt.Errorf("monitoring.pid_file must be set"))
	}
	if len(c.Monitoring.Roots) == 0 {
		return errkind.New(errkind.ConfigurationInvalid, "Config.Validate", fmt.Errorf("monitoring.roots must be non-empty"))
	}
	if c.Monitoring.PIDCheckInterval.Duration <= 0 {
		return errkind.New(errkind.ConfigurationInvalid, "Config.Validate", fmt.Errorf("monitoring.pid_check_interval must be > 0"))
	}
	if c.Monitoring.SamplingInterval.Duration <= 0 {
		return errkind.New(errkind.ConfigurationInvalid, "Config.Validate", fmt.Errorf("monitoring.sampling_interval must be > 0"))
	}
	if c.Monitoring.ProcessTimeout.Duration <= 0 {
		return errkind.New(errkind.ConfigurationInvalid, "Config.Validate", fmt.Errorf("monitoring.process_timeout must be > 0"))
	}

	for _, t := range c.Notifications.Thresholds {
		if t < 0 || t > 100 {
			return errkind.New(errkind.ConfigurationInvalid, "Config.Validate", fmt.Errorf("notifications.thresholds entry %v out of [0, 100]", t))
		}
	}
	if c.Notifications.RetryAttempts < 0 {
		return errkind.New(errkind.ConfigurationInvalid, "Config.Validate", fmt.Errorf("notifications.retry_attempts must be >= 0"))
	}

	if len(c.Providers.Enabled) == 0 {
		return errkind.New(errkind.ConfigurationInvalid, "Config.Validate", fmt.Errorf("providers.enabled must be non-empty"))
	}
	for _, id := range c.Providers.Enabled {
		if id == "webhook" && c.Providers.WebhookURL == "" {
			return errkind.New(errkind.ConfigurationInvalid, "Config.Validate", fmt.Errorf("providers.webhook_url must be set when \"webhook\" is enabled"))
		}
	}
	if c.Providers.ProviderTimeout.Duration <= 0 {
		return errkind.New(errkind.ConfigurationInvalid, "Config.Validate", fmt.Errorf("providers.provider_timeout must be > 0"))
	}

	if _, ok := validLogLevels[c.Application.LogLevel]; !ok {
		return errkind.New(errkind.ConfigurationInvalid, "Config.Validate", fmt.Errorf("application.log_level %q is not a known level", c.Application.LogLevel))
	}

	return nil
}
