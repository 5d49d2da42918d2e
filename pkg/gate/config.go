package gate

import (
	"fmt"
	"os"
	"strings"
)

// Area restricts a path prefix to a set of roles. Sessions without one of
// the roles are redirected to Fallback.
type Area struct {
	Prefix   string   `toml:"prefix"`
	Roles    []string `toml:"roles"`
	Fallback string   `toml:"fallback"`
}

// Config describes the navigation rules. Paths are absolute request paths.
type Config struct {
	LoginPath     string   `toml:"login_path"`
	Home          string   `toml:"home"`
	PublicPaths   []string `toml:"public_paths"`
	RedirectParam string   `toml:"redirect_param"`
	Areas         []Area   `toml:"areas"`
}

type Env struct {
	LoginPath     string
	Home          string
	PublicPaths   string
	RedirectParam string
}

func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

func (c *Config) Merge(overlay *Config) {
	if overlay.LoginPath != "" {
		c.LoginPath = overlay.LoginPath
	}
	if overlay.Home != "" {
		c.Home = overlay.Home
	}
	if len(overlay.PublicPaths) > 0 {
		c.PublicPaths = overlay.PublicPaths
	}
	if overlay.RedirectParam != "" {
		c.RedirectParam = overlay.RedirectParam
	}
	if len(overlay.Areas) > 0 {
		c.Areas = overlay.Areas
	}
}

func (c *Config) loadDefaults() {
	if c.LoginPath == "" {
		c.LoginPath = "/app/auth/login"
	}
	if c.Home == "" {
		c.Home = "/app"
	}
	if len(c.PublicPaths) == 0 {
		c.PublicPaths = []string{
			"/app/auth",
			"/app/auth/login",
			"/app/auth/register",
			"/app/auth/forgot-password",
			"/app/auth/reset-password",
		}
	}
	if c.RedirectParam == "" {
		c.RedirectParam = "redirect"
	}
	if c.Areas == nil {
		c.Areas = []Area{{Prefix: "/app/dashboard", Roles: []string{"admin"}, Fallback: "/app"}}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.LoginPath != "" {
		if v := os.Getenv(env.LoginPath); v != "" {
			c.LoginPath = v
		}
	}
	if env.Home != "" {
		if v := os.Getenv(env.Home); v != "" {
			c.Home = v
		}
	}
	if env.PublicPaths != "" {
		if v := os.Getenv(env.PublicPaths); v != "" {
			paths := strings.Split(v, ",")
			for i := range paths {
				paths[i] = strings.TrimSpace(paths[i])
			}
			c.PublicPaths = paths
		}
	}
	if env.RedirectParam != "" {
		if v := os.Getenv(env.RedirectParam); v != "" {
			c.RedirectParam = v
		}
	}
}

func (c *Config) validate() error {
	for name, p := range map[string]string{"login_path": c.LoginPath, "home": c.Home} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must be an absolute path: %q", name, p)
		}
	}
	if !c.isPublic(c.LoginPath) {
		return fmt.Errorf("login_path %q must be listed in public_paths", c.LoginPath)
	}
	for _, a := range c.Areas {
		if !strings.HasPrefix(a.Prefix, "/") || !strings.HasPrefix(a.Fallback, "/") {
			return fmt.Errorf("area %q: prefix and fallback must be absolute paths", a.Prefix)
		}
		if strings.HasPrefix(a.Fallback, a.Prefix) {
			return fmt.Errorf("area %q: fallback %q lies inside the area", a.Prefix, a.Fallback)
		}
		if within(c.Home, a.Prefix) {
			return fmt.Errorf("home %q lies inside role area %q", c.Home, a.Prefix)
		}
	}
	return nil
}

func (c *Config) isPublic(p string) bool {
	p = strings.TrimSuffix(p, "/")
	for _, pub := range c.PublicPaths {
		if strings.TrimSuffix(pub, "/") == p {
			return true
		}
	}
	return false
}
