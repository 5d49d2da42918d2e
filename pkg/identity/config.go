package identity

import (
	"fmt"
	"os"
	"time"
)

// Config controls token issuance and transport.
type Config struct {
	Secret     string `toml:"secret"`
	Issuer     string `toml:"issuer"`
	TokenTTL   string `toml:"token_ttl"`
	CookieName string `toml:"cookie_name"`
	Secure     bool   `toml:"secure_cookie"`

	tokenTTL time.Duration
}

// Env names the environment variables read by Finalize.
type Env struct {
	Secret     string
	Issuer     string
	TokenTTL   string
	CookieName string
}

func (c *Config) TokenTTLDuration() time.Duration {
	return c.tokenTTL
}

func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

func (c *Config) Merge(overlay *Config) {
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.TokenTTL != "" {
		c.TokenTTL = overlay.TokenTTL
	}
	if overlay.CookieName != "" {
		c.CookieName = overlay.CookieName
	}
	if overlay.Secure {
		c.Secure = true
	}
}

func (c *Config) loadDefaults() {
	if c.Issuer == "" {
		c.Issuer = "job-board"
	}
	if c.TokenTTL == "" {
		c.TokenTTL = "24h"
	}
	if c.CookieName == "" {
		c.CookieName = "session"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Secret != "" {
		if v := os.Getenv(env.Secret); v != "" {
			c.Secret = v
		}
	}
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.TokenTTL != "" {
		if v := os.Getenv(env.TokenTTL); v != "" {
			c.TokenTTL = v
		}
	}
	if env.CookieName != "" {
		if v := os.Getenv(env.CookieName); v != "" {
			c.CookieName = v
		}
	}
}

func (c *Config) validate() error {
	if len(c.Secret) < 32 {
		return fmt.Errorf("secret must be at least 32 bytes")
	}
	ttl, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		return fmt.Errorf("invalid token_ttl: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("token_ttl must be positive")
	}
	c.tokenTTL = ttl
	return nil
}
