package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"rio-cli/internal/model"
)

const (
	configFileName = "config.toml"

	DefaultServer          = "http://127.0.0.1:8787"
	DefaultPollIntervalMS  = 500
	DefaultRequestTimeoutS = 30
	DefaultLogLevel        = "info"
)

// Config is the user's config.toml. Flags and environment variables take
// precedence over it.
type Config struct {
	Server                string `toml:"server"`
	DefaultEngine         string `toml:"default_engine"`
	PollIntervalMS        int    `toml:"poll_interval_ms"`
	LogLevel              string `toml:"log_level"`
	LogFile               string `toml:"log_file,omitempty"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

func DefaultConfig() Config {
	return Config{
		Server:                DefaultServer,
		DefaultEngine:         string(model.EngineBuiltin),
		PollIntervalMS:        DefaultPollIntervalMS,
		LogLevel:              DefaultLogLevel,
		RequestTimeoutSeconds: DefaultRequestTimeoutS,
	}
}

func (c *Config) normalize() {
	d := DefaultConfig()
	c.Server = strings.TrimSpace(c.Server)
	if c.Server == "" {
		c.Server = d.Server
	}
	c.DefaultEngine = strings.TrimSpace(c.DefaultEngine)
	if c.DefaultEngine == "" {
		c.DefaultEngine = d.DefaultEngine
	}
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = d.PollIntervalMS
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = d.RequestTimeoutSeconds
	}
}

func (c Config) Validate() error {
	if _, ok := model.ParseEngine(c.DefaultEngine); !ok {
		return fmt.Errorf("default_engine %q: must be one of builtin, gallery-dl, yt-dlp", c.DefaultEngine)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

func (c Config) Engine() model.Engine {
	e, _ := model.ParseEngine(c.DefaultEngine)
	return e
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ConfigKeys lists the keys accepted by Get and Set.
func ConfigKeys() []string {
	keys := []string{"server", "default_engine", "poll_interval_ms", "log_level", "log_file", "request_timeout_seconds"}
	sort.Strings(keys)
	return keys
}

func (c Config) Get(key string) (string, error) {
	switch key {
	case "server":
		return c.Server, nil
	case "default_engine":
		return c.DefaultEngine, nil
	case "poll_interval_ms":
		return strconv.Itoa(c.PollIntervalMS), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	case "request_timeout_seconds":
		return strconv.Itoa(c.RequestTimeoutSeconds), nil
	}
	return "", fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(ConfigKeys(), ", "))
}

func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%s: expected a positive integer, got %q", key, value)
		}
		return n, nil
	}
	switch key {
	case "server":
		c.Server = value
	case "default_engine":
		e, ok := model.ParseEngine(value)
		if !ok {
			return fmt.Errorf("default_engine %q: must be one of builtin, gallery-dl, yt-dlp", value)
		}
		c.DefaultEngine = string(e)
	case "poll_interval_ms":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.PollIntervalMS = n
	case "log_level":
		c.LogLevel = strings.ToLower(value)
	case "log_file":
		c.LogFile = value
	case "request_timeout_seconds":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.RequestTimeoutSeconds = n
	default:
		_, err := c.Get(key)
		return err
	}
	c.normalize()
	return c.Validate()
}

// ConfigDir returns $RIO_CONFIG_DIR, or ~/.rio.
func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.rio).
	if v := strings.TrimSpace(os.Getenv("RIO_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rio"), nil
}

func (s Store) ConfigPath() string {
	return filepath.Join(s.Dir, configFileName)
}

// LoadConfig reads config.toml. A missing file yields the defaults.
func (s Store) LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(s.ConfigPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("config %s: %w", s.ConfigPath(), err)
	}
	return cfg, nil
}

// SaveConfig writes config.toml atomically while holding a cross-process
// lock on config.toml.lock.
func (s Store) SaveConfig(cfg Config) error {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	lock := flock.New(s.ConfigPath() + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock config: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	return atomicWriteFile(s.Dir, "config.toml.*.tmp", s.ConfigPath(), buf.Bytes(), 0o600)
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
