package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	gkerrors "gitkey.dev/gitkey/internal/errors"
)

// Environment variables overriding the config file
const (
	EnvConfig      = "GITKEY_CONFIG"
	EnvKeyDir      = "GITKEY_KEY_DIR"
	EnvConfigScope = "GITKEY_CONFIG_SCOPE"
	EnvLogFile     = "GITKEY_LOG_FILE"
)

// DefaultShredPasses is the number of overwrite passes when none is configured
const DefaultShredPasses = 3

// Config is the user configuration file
type Config struct {
	KeyDir           *string  `json:"keyDir,omitempty"`
	ConfigScope      *string  `json:"configScope,omitempty"`
	LockFile         *string  `json:"lockFile,omitempty"`
	LogFile          *string  `json:"logFile,omitempty"`
	CommandTimeout   *string  `json:"commandTimeout,omitempty"`
	ShredPasses      *int     `json:"shredPasses,omitempty"`
	SSHOptions       []string `json:"sshOptions,omitempty"`
	AgentKeyLifetime *string  `json:"agentKeyLifetime,omitempty"`

	path string
}

// DefaultPath returns $GITKEY_CONFIG, or config.json in the user config
// directory
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "gitkey", "config.json"), nil
}

// Load reads the configuration at path. A missing file yields an empty
// configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the configuration from DefaultPath
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Path returns the file the configuration was loaded from
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration back to its file, readable by the owner only
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no file path")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(c.path, append(data, '\n'), 0o600)
}

// GetKeyDir returns where key directories are created; empty means the
// system temp directory
func (c *Config) GetKeyDir() string {
	if v := os.Getenv(EnvKeyDir); v != "" {
		return v
	}
	return deref(c.KeyDir)
}

// GetConfigScope returns "global" or "process"
func (c *Config) GetConfigScope() string {
	if v := os.Getenv(EnvConfigScope); v != "" {
		return v
	}
	if v := deref(c.ConfigScope); v != "" {
		return v
	}
	return "global"
}

// GetLockFile returns the cross-process lock file, next to the config file
// unless configured
func (c *Config) GetLockFile() string {
	if v := deref(c.LockFile); v != "" {
		return v
	}
	if c.path == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(c.path), "gitkey.lock")
}

// GetLogFile returns the log file path; empty disables file logging
func (c *Config) GetLogFile() string {
	if v := os.Getenv(EnvLogFile); v != "" {
		return v
	}
	return deref(c.LogFile)
}

// GetCommandTimeout returns the per-command timeout; zero means none
func (c *Config) GetCommandTimeout() (time.Duration, error) {
	return parseDuration("commandTimeout", deref(c.CommandTimeout))
}

// GetAgentKeyLifetime returns how long ssh-agent keeps a key; zero means
// until the agent exits
func (c *Config) GetAgentKeyLifetime() (time.Duration, error) {
	return parseDuration("agentKeyLifetime", deref(c.AgentKeyLifetime))
}

// GetShredPasses returns the number of overwrite passes
func (c *Config) GetShredPasses() int {
	if c.ShredPasses != nil && *c.ShredPasses > 0 {
		return *c.ShredPasses
	}
	return DefaultShredPasses
}

// GetSSHOptions returns the configured ssh options, or nil for the defaults
func (c *Config) GetSSHOptions() []string {
	return c.SSHOptions
}

// Keys lists the names accepted by Get and Set
func Keys() []string {
	return []string{"keyDir", "configScope", "lockFile", "logFile", "commandTimeout", "shredPasses", "sshOptions", "agentKeyLifetime"}
}

// Get returns the stored value of key as a string; unset keys are empty
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "keyDir":
		return deref(c.KeyDir), nil
	case "configScope":
		return deref(c.ConfigScope), nil
	case "lockFile":
		return deref(c.LockFile), nil
	case "logFile":
		return deref(c.LogFile), nil
	case "commandTimeout":
		return deref(c.CommandTimeout), nil
	case "agentKeyLifetime":
		return deref(c.AgentKeyLifetime), nil
	case "shredPasses":
		if c.ShredPasses == nil {
			return "", nil
		}
		return strconv.Itoa(*c.ShredPasses), nil
	case "sshOptions":
		return strings.Join(c.SSHOptions, " "), nil
	}
	return "", unknownKey(key)
}

// Set validates value and stores it under key. An empty value unsets it.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "keyDir":
		c.KeyDir = ptr(value)
	case "lockFile":
		c.LockFile = ptr(value)
	case "logFile":
		c.LogFile = ptr(value)
	case "configScope":
		if v := strings.ToLower(value); v != "" && v != "global" && v != "process" {
			return gkerrors.NewValidationError(key, fmt.Sprintf("%q is not one of global, process", value))
		}
		c.ConfigScope = ptr(strings.ToLower(value))
	case "commandTimeout", "agentKeyLifetime":
		if _, err := parseDuration(key, value); err != nil {
			return err
		}
		if key == "commandTimeout" {
			c.CommandTimeout = ptr(value)
		} else {
			c.AgentKeyLifetime = ptr(value)
		}
	case "shredPasses":
		if value == "" {
			c.ShredPasses = nil
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return gkerrors.NewValidationError(key, fmt.Sprintf("%q is not a positive number", value))
		}
		c.ShredPasses = &n
	case "sshOptions":
		opts, err := shlex.Split(value)
		if err != nil {
			return gkerrors.NewValidationError(key, err.Error())
		}
		c.SSHOptions = opts
	default:
		return unknownKey(key)
	}
	return nil
}

func unknownKey(key string) error {
	return gkerrors.NewValidationError("key", fmt.Sprintf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", ")))
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, gkerrors.NewValidationError(key, fmt.Sprintf("%q is not a duration like 90s or 10m", value))
	}
	return d, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
