package logging

import (
	"fmt"
	"os"
)

// Env maps environment variable names for logging configuration.
type Env struct {
	Level  string
	Format string
	File   string
}

// Config holds logging configuration settings.
type Config struct {
	Level  Level  `toml:"level"`
	Format Format `toml:"format"`

	// AddSource records the calling file and line on every entry.
	AddSource bool `toml:"add_source"`

	// Redact lists attribute keys whose values are masked in output.
	Redact []string `toml:"redact"`

	// File, when set, tees log output to a rotated file.
	File     string         `toml:"file"`
	Rotation RotationConfig `toml:"rotation"`
}

// DefaultRedact are the keys masked when Redact is unset.
var DefaultRedact = []string{"password", "secret", "token", "authorization", "cookie"}

// RotationConfig bounds the size and retention of the log file.
type RotationConfig struct {
	MaxSizeMB  int  `toml:"max_size_mb"`
	MaxBackups int  `toml:"max_backups"`
	MaxAgeDays int  `toml:"max_age_days"`
	Compress   bool `toml:"compress"`
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	c.loadEnv(env)
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
	if overlay.AddSource {
		c.AddSource = true
	}
	if len(overlay.Redact) > 0 {
		c.Redact = overlay.Redact
	}
	if overlay.File != "" {
		c.File = overlay.File
	}
	if overlay.Rotation.MaxSizeMB != 0 {
		c.Rotation.MaxSizeMB = overlay.Rotation.MaxSizeMB
	}
	if overlay.Rotation.MaxBackups != 0 {
		c.Rotation.MaxBackups = overlay.Rotation.MaxBackups
	}
	if overlay.Rotation.MaxAgeDays != 0 {
		c.Rotation.MaxAgeDays = overlay.Rotation.MaxAgeDays
	}
	if overlay.Rotation.Compress {
		c.Rotation.Compress = true
	}
}

func (c *Config) loadDefaults() {
	if c.Level == "" {
		c.Level = LevelInfo
	}
	if c.Format == "" {
		c.Format = FormatText
	}
	if c.Redact == nil {
		c.Redact = DefaultRedact
	}
	if c.Rotation.MaxSizeMB == 0 {
		c.Rotation.MaxSizeMB = 100
	}
	if c.Rotation.MaxBackups == 0 {
		c.Rotation.MaxBackups = 3
	}
	if c.Rotation.MaxAgeDays == 0 {
		c.Rotation.MaxAgeDays = 28
	}
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}
	if v := getenv(env.Level); v != "" {
		c.Level = Level(v)
	}
	if v := getenv(env.Format); v != "" {
		c.Format = Format(v)
	}
	if v := getenv(env.File); v != "" {
		c.File = v
	}
}

func (c *Config) validate() error {
	if err := c.Level.Validate(); err != nil {
		return err
	}
	if err := c.Format.Validate(); err != nil {
		return err
	}
	if c.Rotation.MaxSizeMB < 0 || c.Rotation.MaxBackups < 0 || c.Rotation.MaxAgeDays < 0 {
		return fmt.Errorf("rotation limits must not be negative")
	}
	return nil
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
