// Package config loads the client configuration from defaults, an optional
// YAML file, a .env file and NUTRI_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

const envPrefix = "NUTRI_"

type Config struct {
	APIURL   string `yaml:"api_url"`
	LoginURL string `yaml:"login_url"`

	StateDir     string `yaml:"state_dir"`
	StoreBackend string `yaml:"store_backend"`

	ExpiryCheckInterval time.Duration `yaml:"expiry_check_interval"`
	RedirectDelay       time.Duration `yaml:"redirect_delay"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
	RetryMaxTries       uint          `yaml:"retry_max_tries"`
	ToastDuration       time.Duration `yaml:"toast_duration"`

	Listen         string   `yaml:"listen"`
	CORSOrigins    []string `yaml:"cors_origins"`
	LoginRateLimit int      `yaml:"login_rate_limit"` // attempts per minute per client IP

	TraceSampleRatio float64 `yaml:"trace_sample_ratio"`
	Debug            bool    `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	stateDir := ".nutricontrol"
	if home, err := os.UserHomeDir(); err == nil {
		stateDir = filepath.Join(home, ".nutricontrol")
	}

	return Config{
		APIURL:              "http://localhost:8081",
		LoginURL:            "http://localhost:8081",
		StateDir:            stateDir,
		StoreBackend:        BackendFile,
		ExpiryCheckInterval: 5 * time.Minute,
		RedirectDelay:       1500 * time.Millisecond,
		RequestTimeout:      30 * time.Second,
		RetryMaxTries:       3,
		ToastDuration:       4 * time.Second,
		Listen:              "127.0.0.1:3000",
		CORSOrigins:         []string{"http://localhost:3000"},
		LoginRateLimit:      10,
		TraceSampleRatio:    1,
	}
}

// DefaultPath is the config file read when none is given.
func DefaultPath() string {
	return filepath.Join(Default().StateDir, "config.yaml")
}

// Load builds the configuration. A missing file at path is not an error;
// an empty path means DefaultPath. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if err := cfg.mergeFile(path); err != nil {
		return Config{}, err
	}

	// variables already set in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.mergeEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	var errs []error
	duration := func(key string, dst *time.Duration) {
		if v, ok := get(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	if v, ok := get("API_URL"); ok {
		c.APIURL = v
	}
	if v, ok := get("LOGIN_URL"); ok {
		c.LoginURL = v
	}
	if v, ok := get("STATE_DIR"); ok {
		c.StateDir = v
	}
	if v, ok := get("STORE_BACKEND"); ok {
		c.StoreBackend = strings.ToLower(v)
	}
	if v, ok := get("LISTEN"); ok {
		c.Listen = v
	}
	if v, ok := get("CORS_ORIGINS"); ok {
		c.CORSOrigins = splitCSV(v)
	}

	duration("EXPIRY_CHECK_INTERVAL", &c.ExpiryCheckInterval)
	duration("REDIRECT_DELAY", &c.RedirectDelay)
	duration("REQUEST_TIMEOUT", &c.RequestTimeout)
	duration("TOAST_DURATION", &c.ToastDuration)

	if v, ok := get("RETRY_MAX_TRIES"); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRETRY_MAX_TRIES: %w", envPrefix, err))
		} else {
			c.RetryMaxTries = uint(n)
		}
	}
	if v, ok := get("LOGIN_RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sLOGIN_RATE_LIMIT: %w", envPrefix, err))
		} else {
			c.LoginRateLimit = n
		}
	}
	if v, ok := get("TRACE_SAMPLE_RATIO"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTRACE_SAMPLE_RATIO: %w", envPrefix, err))
		} else {
			c.TraceSampleRatio = f
		}
	}
	if v, ok := get("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDEBUG: %w", envPrefix, err))
		} else {
			c.Debug = b
		}
	}

	return errors.Join(errs...)
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error

	for name, raw := range map[string]string{"api_url": c.APIURL, "login_url": c.LoginURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw))
		}
	}

	switch c.StoreBackend {
	case BackendFile, BackendBolt:
		if strings.TrimSpace(c.StateDir) == "" {
			errs = append(errs, errors.New("state_dir cannot be empty"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("store_backend must be one of file, bolt, memory, got %q", c.StoreBackend))
	}

	if c.ExpiryCheckInterval <= 0 {
		errs = append(errs, errors.New("expiry_check_interval must be positive"))
	}
	if c.RedirectDelay < 0 {
		errs = append(errs, errors.New("redirect_delay cannot be negative"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.RetryMaxTries == 0 {
		errs = append(errs, errors.New("retry_max_tries must be at least 1"))
	}
	if c.ToastDuration < 0 {
		errs = append(errs, errors.New("toast_duration cannot be negative"))
	}
	if c.LoginRateLimit <= 0 {
		errs = append(errs, errors.New("login_rate_limit must be positive"))
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, errors.New("trace_sample_ratio must be between 0 and 1"))
	}

	return errors.Join(errs...)
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
