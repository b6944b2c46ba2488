package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// DefaultConcurrency is the default number of architectures validated in parallel.
	DefaultConcurrency = 4

	// DefaultDebounce is how long the watcher waits for edits to settle.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultMaxBodyBytes caps entity uploads through the API.
	DefaultMaxBodyBytes = 1 << 20
)

// Config holds all configuration for adlint.
type Config struct {
	Specs      SpecsConfig      `mapstructure:"specs"`
	Validation ValidationConfig `mapstructure:"validation"`
	Output     OutputConfig     `mapstructure:"output"`
	Watch      WatchConfig      `mapstructure:"watch"`
	Claude     ClaudeConfig     `mapstructure:"claude"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	API        APIConfig        `mapstructure:"api"`
}

// SpecsConfig locates the architectures.
type SpecsConfig struct {
	Root        string `mapstructure:"root" validate:"required"`
	Concurrency int    `mapstructure:"concurrency" validate:"min=1,max=64"`
}

// ValidationConfig holds link policy and gap rule settings.
type ValidationConfig struct {
	LinkSchemes    []string `mapstructure:"link_schemes" validate:"min=1,dive,required,alpha"`
	LinkExtensions []string `mapstructure:"link_extensions" validate:"dive,required"`
	// RulesFile replaces the built-in gap rules when set.
	RulesFile string `mapstructure:"rules_file"`
}

// OutputConfig holds build output settings.
type OutputConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// WatchConfig holds file watcher settings.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" validate:"min=0"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr   string `mapstructure:"listen_addr" validate:"required"`
	AuthToken    string `mapstructure:"auth_token"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes" validate:"min=1024"`
}

// ClaudeConfig holds Anthropic Claude API settings.
type ClaudeConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model" validate:"required"`
	MaxFindings int    `mapstructure:"max_findings" validate:"min=1"`
}

// String returns a safe representation of ClaudeConfig with the API key masked.
func (c ClaudeConfig) String() string {
	masked := maskAPIKey(c.APIKey)
	return fmt.Sprintf("ClaudeConfig{APIKey:%s, Model:%s}", masked, c.Model)
}

// maskAPIKey shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("specs.root", "specs")
	v.SetDefault("specs.concurrency", DefaultConcurrency)

	v.SetDefault("validation.link_schemes", []string{"http", "https"})
	v.SetDefault("validation.link_extensions", []string{})
	v.SetDefault("validation.rules_file", "")

	v.SetDefault("output.dir", "build")
	v.SetDefault("watch.debounce", DefaultDebounce)

	v.SetDefault("claude.model", "claude-haiku-4-5-20251001")
	v.SetDefault("claude.max_findings", 40)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")
	v.SetDefault("api.max_body_bytes", DefaultMaxBodyBytes)

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".adlint"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("ADLINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map specific env vars
	_ = v.BindEnv("claude.api_key", "ADLINT_CLAUDE_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("specs.root", "ADLINT_SPECS_ROOT")
	_ = v.BindEnv("api.listen_addr", "ADLINT_API_LISTEN_ADDR")
	_ = v.BindEnv("api.auth_token", "ADLINT_API_AUTH_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their config keys rather than Go names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			key := strings.TrimPrefix(fe.Namespace(), "Config.")
			if fe.Param() != "" {
				msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", key, fe.Tag(), fe.Param()))
			} else {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", key, fe.Tag()))
			}
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if c.Validation.RulesFile != "" {
		if _, err := os.Stat(c.Validation.RulesFile); err != nil {
			return fmt.Errorf("validation.rules_file: %w", err)
		}
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
