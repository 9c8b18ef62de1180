// Package config loads process-wide settings from a TOML file: the log
// level and format, the default compute backend and backend
// hyperparameter overrides.
//
// Example file:
//
//	[log]
//	level = "debug"
//	format = "console"
//
//	[backend]
//	name = "cpu"
//
//	[hyperparameters.linear_regression.train]
//	cpu_macro_block = 8192
package config

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/scigo-accel/backend"
	_ "github.com/YuminosukeSato/scigo-accel/backend/cpu" // registers "cpu"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// LogConfig is the [log] table.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// BackendConfig is the [backend] table.
type BackendConfig struct {
	Name string `toml:"name"`
}

// Config is the decoded configuration file.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Backend BackendConfig `toml:"backend"`

	// Hyperparameters maps algorithm -> operation -> overrides.
	Hyperparameters map[string]map[string]backend.Hyperparameters `toml:"hyperparameters"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: log.LevelInfo.String(), Format: FormatJSON},
		Backend: BackendConfig{Name: "cpu"},
	}
}

// Load reads and validates a TOML file. Fields missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, scigoErrors.Wrapf(err, "config: open %s", path)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, scigoErrors.Wrapf(err, "config: %s", path)
	}
	return cfg, nil
}

// Decode reads a TOML document from r. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, scigoErrors.Wrap(err, "config: decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, scigoErrors.NewConfigurationError("config", "unknown keys", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field without applying anything.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return scigoErrors.NewConfigurationError("log.level", err.Error(), c.Log.Level)
	}
	switch c.Log.Format {
	case "", FormatJSON, FormatConsole:
	default:
		return scigoErrors.NewConfigurationError("log.format", "must be json or console", c.Log.Format)
	}
	if _, err := backend.Lookup(c.Backend.Name); err != nil {
		return err
	}
	for algorithm, ops := range c.Hyperparameters {
		for op, hp := range ops {
			if err := hp.Validate(); err != nil {
				return scigoErrors.Wrapf(err, "hyperparameters.%s.%s", algorithm, op)
			}
		}
	}
	return nil
}

// Apply sets the global log level and output, selects the default backend
// and registers the hyperparameter overrides.
func (c *Config) Apply() error {
	if err := c.Validate(); err != nil {
		return err
	}

	level, _ := log.ParseLevel(c.Log.Level)
	log.SetLevel(level)
	if c.Log.Format == FormatConsole {
		log.SetOutput(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if err := backend.SetDefault(c.Backend.Name); err != nil {
		return err
	}
	for algorithm, ops := range c.Hyperparameters {
		for op, hp := range ops {
			if err := backend.SetHyperparameters(algorithm, op, hp); err != nil {
				return err
			}
		}
	}

	log.GetLoggerWithName("config").Debug("configuration applied",
		log.BackendKey, c.Backend.Name,
		"log.level", c.Log.Level,
	)
	return nil
}

// LoadAndApply is Load followed by Apply. An empty path applies the
// defaults.
func LoadAndApply(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Apply(); err != nil {
		return nil, err
	}
	return cfg, nil
}
