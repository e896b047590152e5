package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ramppdev/extlinks/internal/annotate"
	"github.com/ramppdev/extlinks/internal/foundation/errors"
)

// DefaultBaseURL is where the documentation site is served.
const DefaultBaseURL = "https://ramppdev.github.io/ablate/"

// DefaultDebounce is the quiet period before the watcher annotates changed pages.
const DefaultDebounce = 500 * time.Millisecond

// Config represents the application configuration.
type Config struct {
	BaseURL     string         `yaml:"base_url"`
	MarkerClass string         `yaml:"marker_class,omitempty"`
	Internal    []InternalRule `yaml:"internal,omitempty"`
	Exclude     []string       `yaml:"exclude,omitempty"`
	Watch       WatchConfig    `yaml:"watch,omitempty"`
}

// InternalRule is a host and path prefix treated as the site's own documentation.
type InternalRule struct {
	Host       string `yaml:"host"`
	PathPrefix string `yaml:"path_prefix"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce    time.Duration `yaml:"debounce,omitempty"`
	MetricsAddr string        `yaml:"metrics_addr,omitempty"`
}

// Default returns the configuration matching the built-in behavior.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from configPath. A missing file yields the
// defaults when optional is true.
func Load(configPath string, optional bool) (*Config, error) {
	loadEnvFile()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) && optional {
			return Default(), nil
		}
		if os.IsNotExist(err) {
			return nil, errors.NewError(errors.CategoryNotFound, "configuration file not found").
				WithContext("path", configPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).Build()
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes YAML configuration, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MarkerClass == "" {
		c.MarkerClass = annotate.DefaultMarkerClass
	}
	if len(c.Internal) == 0 {
		c.Internal = []InternalRule{{Host: annotate.DefaultRule.Host, PathPrefix: annotate.DefaultRule.PathPrefix}}
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = DefaultDebounce
	}
}

// Validate checks the configuration for values the annotator cannot use.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.ConfigError("base_url must be an absolute URL").WithContext("base_url", c.BaseURL).Build()
	}
	if strings.ContainsAny(c.MarkerClass, " \t\n") {
		return errors.ConfigError("marker_class must be a single class token").WithContext("marker_class", c.MarkerClass).Build()
	}
	for i, r := range c.Internal {
		if r.Host == "" {
			return errors.ConfigError(fmt.Sprintf("internal[%d].host is required", i)).Build()
		}
		if r.PathPrefix != "" && !strings.HasPrefix(r.PathPrefix, "/") {
			return errors.ConfigError(fmt.Sprintf("internal[%d].path_prefix must start with /", i)).
				WithContext("path_prefix", r.PathPrefix).Build()
		}
	}
	return nil
}

// Rules converts the configured internal entries to annotator rules.
func (c *Config) Rules() []annotate.Rule {
	rules := make([]annotate.Rule, 0, len(c.Internal))
	for _, r := range c.Internal {
		rules = append(rules, annotate.Rule{Host: r.Host, PathPrefix: r.PathPrefix})
	}
	return rules
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
