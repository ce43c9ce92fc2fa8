// Package config loads runtime configuration from .env, an optional YAML file
// and the environment, in increasing order of precedence.
package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sudo-xjx-code/xjx-tele-gateway/mtproto"
	"github.com/sudo-xjx-code/xjx-tele-gateway/storage"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultSessionFile     = "session.json"
	defaultShutdownTimeout = 10 * time.Second
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
)

// Config of the gateway process.
type Config struct {
	AppID   int    `yaml:"app_id"`
	AppHash string `yaml:"app_hash"`

	Session SessionConfig `yaml:"session"`

	DC                  int           `yaml:"dc"`
	TestDC              bool          `yaml:"test_dc"`
	ReconnectMaxElapsed time.Duration `yaml:"reconnect_max_elapsed"`

	// RequestTimeout is the default deadline of every engine call.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// Timeouts overrides RequestTimeout per method, e.g. "auth.sendCode": 30s.
	Timeouts map[string]time.Duration `yaml:"timeouts"`

	HTTPAddr        string        `yaml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// SessionConfig selects the engine session backend.
type SessionConfig struct {
	Backend  string        `yaml:"backend"`
	File     string        `yaml:"file"`
	RedisURL string        `yaml:"redis_url"`
	Key      string        `yaml:"key"`
	TTL      time.Duration `yaml:"ttl"`
}

// Storage returns options for storage.Open.
func (s SessionConfig) Storage() storage.Options {
	return storage.Options{
		Backend:  s.Backend,
		FilePath: s.File,
		RedisURL: s.RedisURL,
		RedisKey: s.Key,
		TTL:      s.TTL,
	}
}

func defaults() Config {
	return Config{
		Session: SessionConfig{
			Backend: storage.BackendFile,
			File:    defaultSessionFile,
		},
		RequestTimeout:  mtproto.DefaultTimeout,
		HTTPAddr:        defaultHTTPAddr,
		ShutdownTimeout: defaultShutdownTimeout,
		LogLevel:        defaultLogLevel,
		LogFormat:       defaultLogFormat,
	}
}

// Load reads envFiles (".env" if none given, missing files are skipped),
// then the YAML file named by CONFIG_FILE, then environment variables.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, name := range envFiles {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Wrapf(err, "load %s", name)
		}
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.readEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}

func (c *Config) readEnv() error {
	if err := envInt("APP_ID", &c.AppID); err != nil {
		return err
	}
	envString("APP_HASH", &c.AppHash)

	envString("SESSION_BACKEND", &c.Session.Backend)
	envString("SESSION_FILE", &c.Session.File)
	envString("REDIS_URL", &c.Session.RedisURL)
	envString("SESSION_KEY", &c.Session.Key)
	if err := envDuration("SESSION_TTL", &c.Session.TTL); err != nil {
		return err
	}

	if err := envInt("DC", &c.DC); err != nil {
		return err
	}
	if err := envBool("TEST_DC", &c.TestDC); err != nil {
		return err
	}
	if err := envDuration("RECONNECT_MAX_ELAPSED", &c.ReconnectMaxElapsed); err != nil {
		return err
	}
	if err := envDuration("REQUEST_TIMEOUT", &c.RequestTimeout); err != nil {
		return err
	}

	envString("HTTP_ADDR", &c.HTTPAddr)
	if err := envDuration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout); err != nil {
		return err
	}

	envString("LOG_LEVEL", &c.LogLevel)
	envString("LOG_FORMAT", &c.LogFormat)
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
	return nil
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.AppID == 0 {
		return errors.New("APP_ID is required")
	}
	if c.AppHash == "" {
		return errors.New("APP_HASH is required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	for method, d := range c.Timeouts {
		if d <= 0 {
			return errors.Errorf("timeout of %s must be positive", method)
		}
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return errors.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrapf(err, "invalid %s", key)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return errors.Wrapf(err, "invalid %s", key)
	}
	*dst = b
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return errors.Wrapf(err, "invalid %s", key)
	}
	*dst = d
	return nil
}
