// Package config loads bridge configuration: ports, thresholds, windows,
// and the drain-mode default, layered the way viper layers them — a
// compiled-in default, an optional config file, then environment variable
// overrides — and optionally hot-reloaded when the file changes.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the bridge's runtime configuration.
type Config struct {
	// SignallingAddr is the address the router's signalling transport
	// listens on.
	SignallingAddr string `mapstructure:"signalling_addr"`

	// HealthAddr is the address the health/debug HTTP surface listens on.
	HealthAddr string `mapstructure:"health_addr"`

	// MinAnnouncementWindow is the minimum time a graceful-shutdown
	// advertisement must be visible before beginShutdown runs.
	MinAnnouncementWindow time.Duration `mapstructure:"min_announcement_window"`

	// ForceExitDelay is the grace period before a forced shutdown
	// terminates the process.
	ForceExitDelay time.Duration `mapstructure:"force_exit_delay"`

	// SampleInterval is the load sampler's fixed tick rate.
	SampleInterval time.Duration `mapstructure:"sample_interval"`

	// LoadedThreshold / RecoveryThreshold bound the load manager's
	// hysteresis transition (packets/sec).
	LoadedThreshold   float64 `mapstructure:"loaded_threshold"`
	RecoveryThreshold float64 `mapstructure:"recovery_threshold"`

	// DrainMode is the advisory startup default for the drain flag.
	DrainMode bool `mapstructure:"drain_mode"`

	// NATSURL, when non-empty, is the JetStream server the event bus
	// publishes lifecycle events to.
	NATSURL string `mapstructure:"nats_url"`

	// IdleTimeout bounds how long a conference may sit live before the
	// expiration sweeper expires it. Zero disables the sweeper's
	// auto-expiry entirely.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// SweepInterval is the expiration sweeper's fixed tick rate.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("signalling_addr", ":5222")
	v.SetDefault("health_addr", ":8080")
	v.SetDefault("min_announcement_window", 10*time.Second)
	v.SetDefault("force_exit_delay", time.Second)
	v.SetDefault("sample_interval", 10*time.Second)
	v.SetDefault("loaded_threshold", 50000.0)
	v.SetDefault("recovery_threshold", 30000.0)
	v.SetDefault("drain_mode", false)
	v.SetDefault("nats_url", "")
	v.SetDefault("idle_timeout", 60*time.Minute)
	v.SetDefault("sweep_interval", 5*time.Minute)
}

// Load reads configuration from path (if non-empty) layered under
// defaults and BRIDGE_-prefixed environment variable overrides. path may
// name a file that does not exist, in which case defaults and environment
// overrides alone determine the result.
func Load(path string) (*Config, error) {
	v := newViper(path)
	if err := readIfPresent(v, path); err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("bridge")
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	}
	return v
}

func readIfPresent(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		// An explicitly set config file that is missing surfaces as a
		// not-exist filesystem error rather than ConfigFileNotFoundError.
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	return &c, nil
}

// Watcher hot-reloads configuration from a file on disk whenever it
// changes, publishing each successfully parsed Config to OnChange.
type Watcher struct {
	v        *viper.Viper
	path     string
	OnChange func(*Config)
}

// NewWatcher constructs a Watcher for path. It does not start watching
// until Start is called.
func NewWatcher(path string, onChange func(*Config)) *Watcher {
	return &Watcher{v: newViper(path), path: path, OnChange: onChange}
}

// Start reads the initial config and begins watching path for changes via
// fsnotify, invoking OnChange on every successful reload. It returns the
// initial Config so callers don't need a separate Load call.
func (w *Watcher) Start() (*Config, error) {
	if err := readIfPresent(w.v, w.path); err != nil {
		return nil, err
	}
	initial, err := decode(w.v)
	if err != nil {
		return nil, err
	}

	w.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(w.v)
		if err != nil {
			return
		}
		if w.OnChange != nil {
			w.OnChange(cfg)
		}
	})
	w.v.WatchConfig()

	return initial, nil
}
