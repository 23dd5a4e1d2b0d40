// Package config provides configuration management for an ACP runtime.
// It supports loading configuration from environment variables, config
// files, and defaults, using a viper-backed layout scoped to what a
// protocol-core runtime needs: wire limits, the pinned protocol
// version, and logging.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for an ACP runtime.
type Config struct {
	Wire    WireConfig    `mapstructure:"wire"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// WireConfig controls the newline-delimited JSON frame codec.
// ProtocolVersion is loaded and validated here but is not passed to the
// acp package, which always advertises acp.ProtocolVersionNumber.
type WireConfig struct {
	MaxFrameBytes   int `mapstructure:"maxFrameBytes"`
	ProtocolVersion int `mapstructure:"protocolVersion"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// detectDefaultLogFormat returns "json" under Kubernetes or an explicit
// production ACP_ENV, "text" otherwise (human-readable for terminal use).
func detectDefaultLogFormat() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}
	if env := os.Getenv("ACP_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("wire.maxFrameBytes", 64*1024)
	v.SetDefault("wire.protocolVersion", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")
}

// Load reads configuration from environment variables, config file, and
// defaults. Environment variables use the prefix ACP_: ACP_WIRE_MAX_FRAME_BYTES,
// ACP_WIRE_PROTOCOL_VERSION and ACP_LOG_LEVEL are bound explicitly; other
// keys map to ACP_ plus the upper-cased key with dots replaced by
// underscores (e.g. ACP_LOGGING_OUTPUTPATH).
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default
// locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("ACP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("wire.maxFrameBytes", "ACP_WIRE_MAX_FRAME_BYTES")
	_ = v.BindEnv("wire.protocolVersion", "ACP_WIRE_PROTOCOL_VERSION")
	_ = v.BindEnv("logging.level", "ACP_LOG_LEVEL")

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/acpgo/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Wire.MaxFrameBytes <= 0 {
		errs = append(errs, "wire.maxFrameBytes must be positive")
	}
	if cfg.Wire.ProtocolVersion <= 0 {
		errs = append(errs, "wire.protocolVersion must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
