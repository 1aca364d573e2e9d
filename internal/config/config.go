// Package config loads site settings for the blocks CLI and preview server.
// Sources are applied in order: built-in defaults, the YAML site file, the
// .env file and finally the process environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/form"
	"github.com/goliatone/go-blocks/pkg/nav"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "BLOCKS_"

// FileEnv names the variable holding the YAML site file path.
const FileEnv = EnvPrefix + "CONFIG"

// Config holds the resolved settings.
type Config struct {
	Addr           string        `yaml:"addr" env:"ADDR" validate:"required"`
	Origin         string        `yaml:"origin" env:"ORIGIN" validate:"omitempty,url"`
	// Dir roots local content. Root-relative references and, without an
	// origin, preview requests resolve inside it.
	Dir            string        `yaml:"dir" env:"DIR" validate:"omitempty,dir"`
	CodeBasePath   string        `yaml:"code_base_path" env:"CODE_BASE_PATH"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout" env:"FETCH_TIMEOUT" validate:"gt=0"`
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogDev         bool          `yaml:"log_dev" env:"LOG_DEV"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	Nav            Nav           `yaml:"nav" envPrefix:"NAV_"`
	// Prefill policies extend the built-in registration form policy. They
	// are only read from the site file.
	Prefill []form.PrefillPolicy `yaml:"prefill" env:"-"`
}

// Nav configures the header block and its controller.
type Nav struct {
	Breakpoint    int    `yaml:"breakpoint" env:"BREAKPOINT" validate:"gt=0"`
	ViewportWidth int    `yaml:"viewport_width" env:"VIEWPORT_WIDTH" validate:"gte=0"`
	Height        int    `yaml:"height" env:"HEIGHT" validate:"gte=0"`
	DefaultPath   string `yaml:"default_path" env:"DEFAULT_PATH" validate:"required,startswith=/"`
	BrandHref     string `yaml:"brand_href" env:"BRAND_HREF"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:         ":8080",
		FetchTimeout: content.DefaultTimeout,
		LogLevel:     "info",
		Nav: Nav{
			Breakpoint:  nav.DefaultBreakpoint,
			Height:      nav.DefaultNavHeight,
			DefaultPath: "/nav",
			BrandHref:   "/us/en",
		},
	}
}

// Option customises Load.
type Option func(*loader)

type loader struct {
	file        string
	dotenv      []string
	environment map[string]string
}

// WithFile reads the YAML site file at path. An explicit path must exist.
func WithFile(path string) Option {
	return func(l *loader) {
		l.file = path
	}
}

// WithDotEnv reads the given .env files instead of ./.env.
func WithDotEnv(paths ...string) Option {
	return func(l *loader) {
		l.dotenv = paths
	}
}

// WithEnvironment replaces the process environment.
func WithEnvironment(environment map[string]string) Option {
	return func(l *loader) {
		l.environment = environment
	}
}

// Load resolves the configuration. Variables already in the environment win
// over the .env file.
func Load(options ...Option) (Config, error) {
	l := &loader{}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	if l.environment == nil {
		l.environment = env.ToMap(os.Environ())
	}

	cfg := Default()

	path := l.file
	if path == "" {
		path = l.environment[FileEnv]
	}
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	environment, err := l.mergeDotEnv()
	if err != nil {
		return Config{}, err
	}
	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environment,
	}); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func (l *loader) mergeDotEnv() (map[string]string, error) {
	paths := l.dotenv
	explicit := len(paths) > 0
	if !explicit {
		if _, err := os.Stat(".env"); err != nil {
			return l.environment, nil
		}
		paths = []string{".env"}
	}

	values, err := godotenv.Read(paths...)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return l.environment, nil
		}
		return nil, fmt.Errorf("config: read dotenv: %w", err)
	}

	merged := make(map[string]string, len(values)+len(l.environment))
	for key, value := range values {
		merged[key] = value
	}
	for key, value := range l.environment {
		merged[key] = value
	}
	return merged, nil
}

// Validate checks the resolved settings.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			fields := make([]string, 0, len(invalid))
			for _, fe := range invalid {
				fields = append(fields, fe.Namespace()+"("+fe.Tag()+")")
			}
			return fmt.Errorf("config: invalid %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config: %w", err)
	}
	for _, policy := range c.Prefill {
		if policy.Route == "" || len(policy.Params) == 0 {
			return fmt.Errorf("config: prefill policy %q needs a route and params", policy.Route)
		}
	}
	return nil
}

// PrefillRegistry returns the built-in registry extended with the configured
// policies.
func (c Config) PrefillRegistry() (*form.PrefillRegistry, error) {
	registry := form.DefaultPrefill()
	for _, policy := range c.Prefill {
		if err := registry.Register(policy); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	return registry, nil
}
