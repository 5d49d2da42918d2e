package storage

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
)

// Backend names a blob storage implementation.
type Backend string

const (
	BackendFilesystem Backend = "filesystem"
	BackendS3         Backend = "s3"
)

// Config contains blob storage configuration.
type Config struct {
	Backend Backend `toml:"backend"`

	// BasePath is the root directory for filesystem storage.
	// Default: ".data/blobs"
	BasePath      string `toml:"base_path"`
	MaxUploadSize string `toml:"max_upload_size"`

	// PublicURL is the absolute URL filesystem blobs are served under.
	PublicURL string `toml:"public_url"`
	// URLExpiry bounds presigned download URLs.
	URLExpiry string `toml:"url_expiry"`
	// MoveDeletesSource makes Move remove the source once the destination
	// upload is confirmed. When false, Move leaves the source in place.
	MoveDeletesSource bool `toml:"move_deletes_source"`

	S3 S3Config `toml:"s3"`

	maxUploadSizeVal int64
	urlExpiryVal     time.Duration
}

// S3Config addresses an S3-compatible object store.
type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Env names the environment variables read by Finalize.
type Env struct {
	Backend           string
	BasePath          string
	MaxUploadSize     string
	PublicURL         string
	URLExpiry         string
	MoveDeletesSource string
	S3Endpoint        string
	S3Bucket          string
	S3Region          string
	S3AccessKey       string
	S3SecretKey       string
	S3UseSSL          string
}

func (c *Config) MaxUploadSizeBytes() int64 {
	return c.maxUploadSizeVal
}

func (c *Config) URLExpiryDuration() time.Duration {
	return c.urlExpiryVal
}

// Finalize applies defaults, loads environment overrides, and validates the storage configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if size, err := units.FromHumanSize(overlay.MaxUploadSize); err == nil {
		c.MaxUploadSize = overlay.MaxUploadSize
		c.maxUploadSizeVal = size
	}
	if overlay.PublicURL != "" {
		c.PublicURL = overlay.PublicURL
	}
	if overlay.URLExpiry != "" {
		c.URLExpiry = overlay.URLExpiry
	}
	if overlay.MoveDeletesSource {
		c.MoveDeletesSource = true
	}
	if overlay.S3.Endpoint != "" {
		c.S3.Endpoint = overlay.S3.Endpoint
	}
	if overlay.S3.Bucket != "" {
		c.S3.Bucket = overlay.S3.Bucket
	}
	if overlay.S3.Region != "" {
		c.S3.Region = overlay.S3.Region
	}
	if overlay.S3.AccessKey != "" {
		c.S3.AccessKey = overlay.S3.AccessKey
	}
	if overlay.S3.SecretKey != "" {
		c.S3.SecretKey = overlay.S3.SecretKey
	}
	if overlay.S3.UseSSL {
		c.S3.UseSSL = true
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFilesystem
	}
	if c.BasePath == "" {
		c.BasePath = ".data/blobs"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "100MB"
	}
	if c.PublicURL == "" {
		c.PublicURL = "http://localhost:8080/storage"
	}
	if c.URLExpiry == "" {
		c.URLExpiry = "15m"
	}
}

func (c *Config) loadEnv(env *Env) {
	setString(&c.Backend, env.Backend)
	setString(&c.BasePath, env.BasePath)
	setString(&c.MaxUploadSize, env.MaxUploadSize)
	setString(&c.PublicURL, env.PublicURL)
	setString(&c.URLExpiry, env.URLExpiry)
	setBool(&c.MoveDeletesSource, env.MoveDeletesSource)
	setString(&c.S3.Endpoint, env.S3Endpoint)
	setString(&c.S3.Bucket, env.S3Bucket)
	setString(&c.S3.Region, env.S3Region)
	setString(&c.S3.AccessKey, env.S3AccessKey)
	setString(&c.S3.SecretKey, env.S3SecretKey)
	setBool(&c.S3.UseSSL, env.S3UseSSL)
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendFilesystem:
		if c.BasePath == "" {
			return fmt.Errorf("base_path required")
		}
	case BackendS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("s3 endpoint and bucket required")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Backend)
	}

	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUploadSizeVal = size

	expiry, err := time.ParseDuration(c.URLExpiry)
	if err != nil {
		return fmt.Errorf("invalid url_expiry: %w", err)
	}
	c.urlExpiryVal = expiry

	return nil
}

func setString[T ~string](field *T, name string) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*field = T(v)
	}
}

func setBool(field *bool, name string) {
	if name == "" {
		return
	}
	if v, err := strconv.ParseBool(os.Getenv(name)); err == nil {
		*field = v
	}
}
