package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/deskgate/deskgate/internal/args"
	"github.com/deskgate/deskgate/internal/constants"
	"github.com/deskgate/deskgate/internal/pathutil"
	"github.com/deskgate/deskgate/internal/util/sanitize"
)

// Config is the deskgate configuration file.
//
// Config file location: see DefaultConfigPath.
//
// INI format:
//
//	[instance]
//	identity = deskgate
//	connect_timeout_ms = 200
//	read_timeout_seconds = 30
//	runtime_dir =
//
//	[protocol]
//	enabled = true
//	auto_register = true
//	name = myapp
//	description =
//
//	[navigation]
//	argument_name = nav:
//	command =
//	notify = false
//
//	[logging]
//	level = info
type Config struct {
	Instance   InstanceConfig
	Protocol   ProtocolConfig
	Navigation NavigationConfig
	Logging    LoggingConfig
}

// InstanceConfig controls the gate and the argument channel.
type InstanceConfig struct {
	// Identity names both the host-wide lock and the channel endpoint. It must be
	// the same for every launch of the application.
	// Default: "deskgate"
	Identity string `ini:"identity"`

	// ConnectTimeoutMs bounds how long a follower waits to reach the leader.
	// Minimum: 1, Maximum: 30000, Default: 200
	ConnectTimeoutMs int `ini:"connect_timeout_ms"`

	// ReadTimeoutSeconds is the leader's per-connection read deadline.
	// Minimum: 1, Maximum: 600, Default: 30
	ReadTimeoutSeconds int `ini:"read_timeout_seconds"`

	// RuntimeDir overrides where lock files and sockets live.
	// Empty means RuntimeDirectory().
	RuntimeDir string `ini:"runtime_dir"`
}

// ProtocolConfig describes the custom URI protocol that launches the application.
type ProtocolConfig struct {
	// Enabled turns protocol handling on. When off, incoming tokens are never
	// stripped of a protocol prefix.
	// Default: false
	Enabled bool `ini:"enabled"`

	// AutoRegister registers the handler with the OS when the leader starts.
	// Default: true
	AutoRegister bool `ini:"auto_register"`

	// Name is the scheme without "://", e.g. "myapp".
	Name string `ini:"name"`

	// Description is shown by the OS. Empty means "<Name> Protocol".
	Description string `ini:"description"`
}

// NavigationConfig controls how a received argument becomes a shortcut.
type NavigationConfig struct {
	// ArgumentName is the tag prefix stripped from shortcut arguments, e.g. "nav:".
	// A leading "/" is implied.
	ArgumentName string `ini:"argument_name"`

	// Command, when set, is run with the shortcut appended as the last argument.
	// Empty means shortcuts are only logged.
	Command string `ini:"command"`

	// Notify shows a desktop notification each time a shortcut is opened.
	// Default: false
	Notify bool `ini:"notify"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `ini:"level"`
}

// Config validation errors
var (
	ErrMissingIdentity       = errors.New("identity is required")
	ErrInvalidConnectTimeout = errors.New("connect_timeout_ms must be between 1 and 30000")
	ErrInvalidReadTimeout    = errors.New("read_timeout_seconds must be between 1 and 600")
	ErrMissingProtocolName   = errors.New("protocol name is required when protocols are enabled")
	ErrInvalidProtocolName   = errors.New("protocol name must start with a letter and contain only letters, digits, '+', '-' or '.'")
	ErrProtocolNameHasSuffix = errors.New("protocol name must not include \"://\"")
	ErrUnroutableProtocol    = errors.New("protocol name must be at least 3 characters of letters, digits, '-' or '_' to be forwarded")
)

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Instance: InstanceConfig{
			Identity:           constants.AppName,
			ConnectTimeoutMs:   int(constants.DefaultConnectTimeout / time.Millisecond),
			ReadTimeoutSeconds: int(constants.DefaultReadTimeout / time.Second),
			RuntimeDir:         "",
		},
		Protocol: ProtocolConfig{
			Enabled:      false,
			AutoRegister: true,
			Name:         "",
			Description:  "",
		},
		Navigation: NavigationConfig{
			ArgumentName: "",
			Command:      "",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path.
// If path is empty, uses the default path.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	defaults := NewConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}

	// Parse [instance] section
	instanceSection := iniFile.Section("instance")
	cfg.Instance.Identity = sanitize.SanitizeField(instanceSection.Key("identity").MustString(defaults.Instance.Identity))
	cfg.Instance.ConnectTimeoutMs = instanceSection.Key("connect_timeout_ms").MustInt(defaults.Instance.ConnectTimeoutMs)
	cfg.Instance.ReadTimeoutSeconds = instanceSection.Key("read_timeout_seconds").MustInt(defaults.Instance.ReadTimeoutSeconds)
	cfg.Instance.RuntimeDir = sanitize.SanitizeField(instanceSection.Key("runtime_dir").String())

	// Parse [protocol] section
	protocolSection := iniFile.Section("protocol")
	cfg.Protocol.Enabled = protocolSection.Key("enabled").MustBool(defaults.Protocol.Enabled)
	cfg.Protocol.AutoRegister = protocolSection.Key("auto_register").MustBool(defaults.Protocol.AutoRegister)
	cfg.Protocol.Name = sanitize.SanitizeField(protocolSection.Key("name").String())
	cfg.Protocol.Description = sanitize.SanitizeField(protocolSection.Key("description").String())

	// Parse [navigation] section
	navSection := iniFile.Section("navigation")
	cfg.Navigation.ArgumentName = sanitize.SanitizeField(navSection.Key("argument_name").String())
	cfg.Navigation.Command = sanitize.SanitizeField(navSection.Key("command").String())
	cfg.Navigation.Notify = navSection.Key("notify").MustBool(defaults.Navigation.Notify)

	// Parse [logging] section
	cfg.Logging.Level = iniFile.Section("logging").Key("level").MustString(defaults.Logging.Level)

	return cfg, nil
}

// Save writes cfg to path.
// If path is empty, uses the default path.
// Creates parent directories if they don't exist.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	instanceSection, err := iniFile.NewSection("instance")
	if err != nil {
		return fmt.Errorf("failed to create instance section: %w", err)
	}
	instanceSection.Key("identity").SetValue(cfg.Instance.Identity)
	instanceSection.Key("connect_timeout_ms").SetValue(fmt.Sprintf("%d", cfg.Instance.ConnectTimeoutMs))
	instanceSection.Key("read_timeout_seconds").SetValue(fmt.Sprintf("%d", cfg.Instance.ReadTimeoutSeconds))
	instanceSection.Key("runtime_dir").SetValue(cfg.Instance.RuntimeDir)

	protocolSection, err := iniFile.NewSection("protocol")
	if err != nil {
		return fmt.Errorf("failed to create protocol section: %w", err)
	}
	protocolSection.Key("enabled").SetValue(fmt.Sprintf("%t", cfg.Protocol.Enabled))
	protocolSection.Key("auto_register").SetValue(fmt.Sprintf("%t", cfg.Protocol.AutoRegister))
	protocolSection.Key("name").SetValue(cfg.Protocol.Name)
	protocolSection.Key("description").SetValue(cfg.Protocol.Description)

	navSection, err := iniFile.NewSection("navigation")
	if err != nil {
		return fmt.Errorf("failed to create navigation section: %w", err)
	}
	navSection.Key("argument_name").SetValue(cfg.Navigation.ArgumentName)
	navSection.Key("command").SetValue(cfg.Navigation.Command)
	navSection.Key("notify").SetValue(fmt.Sprintf("%t", cfg.Navigation.Notify))

	loggingSection, err := iniFile.NewSection("logging")
	if err != nil {
		return fmt.Errorf("failed to create logging section: %w", err)
	}
	loggingSection.Key("level").SetValue(cfg.Logging.Level)

	// Temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Instance.Identity) == "" {
		return ErrMissingIdentity
	}
	if cfg.Instance.ConnectTimeoutMs < 1 || cfg.Instance.ConnectTimeoutMs > int(constants.MaxConnectTimeout/time.Millisecond) {
		return ErrInvalidConnectTimeout
	}
	if cfg.Instance.ReadTimeoutSeconds < 1 || cfg.Instance.ReadTimeoutSeconds > int(constants.MaxReadTimeout/time.Second) {
		return ErrInvalidReadTimeout
	}

	if cfg.Protocol.Enabled {
		name := cfg.Protocol.Name
		if name == "" {
			return ErrMissingProtocolName
		}
		if strings.Contains(name, "://") {
			return ErrProtocolNameHasSuffix
		}
		if !isValidScheme(name) {
			return ErrInvalidProtocolName
		}
		// Links for schemes the normalizer does not recognize would be
		// slash-prefixed on send and never stripped on receipt.
		if !args.IsProtocolToken(name + "://") {
			return ErrUnroutableProtocol
		}
	}

	return nil
}

// ConnectTimeout returns the follower connect timeout as a duration.
func (cfg *Config) ConnectTimeout() time.Duration {
	return time.Duration(cfg.Instance.ConnectTimeoutMs) * time.Millisecond
}

// ReadTimeout returns the leader read deadline as a duration.
func (cfg *Config) ReadTimeout() time.Duration {
	return time.Duration(cfg.Instance.ReadTimeoutSeconds) * time.Second
}

// ProtocolHandler returns the "<name>://" prefix, or "" when protocols are off.
func (cfg *Config) ProtocolHandler() string {
	if !cfg.Protocol.Enabled || cfg.Protocol.Name == "" {
		return ""
	}
	return cfg.Protocol.Name + "://"
}

// EffectiveRuntimeDir returns the configured runtime directory, resolved to
// an absolute path, or the default.
func (cfg *Config) EffectiveRuntimeDir() string {
	if cfg.Instance.RuntimeDir == "" {
		return RuntimeDirectory()
	}
	resolved, err := pathutil.ResolveAbsolutePath(cfg.Instance.RuntimeDir)
	if err != nil {
		return cfg.Instance.RuntimeDir
	}
	return resolved
}

// isValidScheme checks RFC 3986 scheme syntax: ALPHA *( ALPHA / DIGIT / "+" / "-" / "." )
func isValidScheme(s string) bool {
	for i, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 {
			if !isAlpha {
				return false
			}
			continue
		}
		if !isAlpha && !(r >= '0' && r <= '9') && r != '+' && r != '-' && r != '.' {
			return false
		}
	}
	return s != ""
}
