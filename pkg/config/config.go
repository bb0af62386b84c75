// Package config loads component settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config groups the settings of every component
type Config struct {
	Engine Engine `yaml:"engine"`
	Reload Reload `yaml:"reload"`
	List   List   `yaml:"list"`
	Form   Form   `yaml:"form"`
	Log    Log    `yaml:"log"`
}

// Engine configures resolver engines
type Engine struct {
	RunOnMount       *bool    `yaml:"run_on_mount"`
	ConcurrencyLimit int      `yaml:"concurrency_limit"`
	CriticalKeys     []string `yaml:"critical_keys"`
}

// Reload configures reload controllers
type Reload struct {
	Delay    time.Duration `yaml:"delay"`
	KeepData bool          `yaml:"keep_data"`
}

// List configures list accumulators
type List struct {
	Limit         int  `yaml:"limit"`
	Infinite      bool `yaml:"infinite"`
	Bidirectional bool `yaml:"bidirectional"`
	InitialOffset int  `yaml:"initial_offset"`
}

// Form configures form trackers
type Form struct {
	UpdateResourceOnSave *bool `yaml:"update_resource_on_save"`
	StrictResolvers      bool  `yaml:"strict_resolvers"`
	NestedErrors         bool  `yaml:"nested_errors"`
}

// Log configures logging
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Reload: Reload{Delay: time.Second},
		List:   List{Limit: 20},
		Log:    Log{Level: "info", Format: FormatConsole},
	}
}

// Load reads a YAML file on top of the defaults
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults and validates the result
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting
func (c Config) Validate() error {
	var errs []error
	if c.Engine.ConcurrencyLimit < 0 {
		errs = append(errs, fmt.Errorf("engine.concurrency_limit must not be negative, got %d", c.Engine.ConcurrencyLimit))
	}
	if c.Reload.Delay < 0 {
		errs = append(errs, fmt.Errorf("reload.delay must not be negative, got %s", c.Reload.Delay))
	}
	if c.List.Limit <= 0 {
		errs = append(errs, fmt.Errorf("list.limit must be positive, got %d", c.List.Limit))
	}
	if c.List.InitialOffset < 0 {
		errs = append(errs, fmt.Errorf("list.initial_offset must not be negative, got %d", c.List.InitialOffset))
	}
	if c.List.Bidirectional && !c.List.Infinite {
		errs = append(errs, errors.New("list.bidirectional requires list.infinite"))
	}
	switch c.Log.Format {
	case "", FormatConsole, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format must be %q or %q, got %q", FormatConsole, FormatJSON, c.Log.Format))
	}
	return errors.Join(errs...)
}
