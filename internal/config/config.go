package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pointy-labs/pointy/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Setting keys.
const (
	KeyExtensionsDir      = "extensions_dir"
	KeyRegistryURL        = "registry_url"
	KeyUpdateConcurrency  = "update_concurrency"
	KeyHTTPTimeout        = "http_timeout"
	KeyListenAddr         = "listen_addr"
	KeyLogLevel           = "log_level"
	KeyLogFormat          = "log_format"
	KeyAutoUpdateInterval = "auto_update_interval"
	KeyIndexMaxAge        = "index_max_age"
	KeyKeepLoaded         = "keep_loaded"
)

// Settings is the resolved view of every application setting.
type Settings struct {
	ExtensionsDir      string
	RegistryURL        string
	UpdateConcurrency  int
	HTTPTimeout        time.Duration
	ListenAddr         string
	LogLevel           string
	LogFormat          string
	AutoUpdateInterval time.Duration
	IndexMaxAge        time.Duration
	KeepLoaded         bool
}

// Dir returns the path to the data directory (~/.pointy/). POINTY_HOME
// overrides it.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.pointy/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault(KeyExtensionsDir, "")
	viper.SetDefault(KeyRegistryURL, branding.RegistryURL())
	viper.SetDefault(KeyUpdateConcurrency, 4)
	viper.SetDefault(KeyHTTPTimeout, 30*time.Second)
	viper.SetDefault(KeyListenAddr, "127.0.0.1:7733")
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyLogFormat, "console")
	viper.SetDefault(KeyAutoUpdateInterval, 24*time.Hour)
	viper.SetDefault(KeyIndexMaxAge, time.Hour)
	viper.SetDefault(KeyKeepLoaded, false)
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	setDefaults()
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Current returns the resolved settings. Load must have been called.
func Current() Settings {
	s := Settings{
		ExtensionsDir:      viper.GetString(KeyExtensionsDir),
		RegistryURL:        viper.GetString(KeyRegistryURL),
		UpdateConcurrency:  viper.GetInt(KeyUpdateConcurrency),
		HTTPTimeout:        viper.GetDuration(KeyHTTPTimeout),
		ListenAddr:         viper.GetString(KeyListenAddr),
		LogLevel:           viper.GetString(KeyLogLevel),
		LogFormat:          viper.GetString(KeyLogFormat),
		AutoUpdateInterval: viper.GetDuration(KeyAutoUpdateInterval),
		IndexMaxAge:        viper.GetDuration(KeyIndexMaxAge),
		KeepLoaded:         viper.GetBool(KeyKeepLoaded),
	}
	if s.UpdateConcurrency < 1 {
		s.UpdateConcurrency = 1
	}
	return s
}

// Keys lists every setting key in display order.
func Keys() []string {
	return []string{
		KeyExtensionsDir, KeyRegistryURL, KeyUpdateConcurrency, KeyHTTPTimeout,
		KeyListenAddr, KeyLogLevel, KeyLogFormat, KeyAutoUpdateInterval,
		KeyIndexMaxAge, KeyKeepLoaded,
	}
}

// validate checks value parses as the type key expects.
func validate(key, value string) error {
	switch key {
	case KeyUpdateConcurrency:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive integer", key)
		}
	case KeyHTTPTimeout, KeyAutoUpdateInterval, KeyIndexMaxAge:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s must be a duration such as 30s or 24h: %w", key, err)
		}
	case KeyKeepLoaded:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
	case KeyLogFormat:
		if value != "console" && value != "json" {
			return fmt.Errorf("%s must be console or json", key)
		}
	case KeyExtensionsDir, KeyRegistryURL, KeyListenAddr, KeyLogLevel:
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set validates and writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := validate(key, value); err != nil {
		return err
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
