package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "highlander"

// Duration is a time.Duration written as a string such as "100ms" in TOML
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText formats the duration as a Go duration string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config represents the application configuration
type Config struct {
	Format          string   `toml:"format"`
	CacheFile       string   `toml:"cache_file"`
	ListsDir        string   `toml:"lists_dir"`
	MetadataURL     string   `toml:"metadata_url"`
	UserAgent       string   `toml:"user_agent"`
	RequestInterval Duration `toml:"request_interval"`
	FetchAttempts   int      `toml:"fetch_attempts"`
	DownloadRetries int      `toml:"download_retries"`
	MetadataTimeout Duration `toml:"metadata_timeout"`
	Listen          string   `toml:"listen"`
}

// Default returns the configuration used when no file overrides it
func Default() *Config {
	return &Config{
		Format:          "pioneer",
		CacheFile:       filepath.Join(GetCacheDir(), "cards.json"),
		ListsDir:        GetListsDir(),
		MetadataURL:     "https://api.scryfall.com/bulk-data/oracle-cards",
		UserAgent:       "PHL-Legality-Checker/1.0",
		RequestInterval: Duration{100 * time.Millisecond},
		FetchAttempts:   3,
		DownloadRetries: 3,
		MetadataTimeout: Duration{30 * time.Second},
		Listen:          ":8000",
	}
}

// Validate rejects values the rest of the program cannot work with
func (c *Config) Validate() error {
	var errs []error
	if c.Format == "" {
		errs = append(errs, errors.New("format must not be empty"))
	}
	if c.CacheFile == "" {
		errs = append(errs, errors.New("cache_file must not be empty"))
	}
	if c.MetadataURL == "" {
		errs = append(errs, errors.New("metadata_url must not be empty"))
	}
	if c.RequestInterval.Duration < 0 {
		errs = append(errs, errors.New("request_interval must not be negative"))
	}
	if c.FetchAttempts < 1 {
		errs = append(errs, errors.New("fetch_attempts must be at least 1"))
	}
	if c.DownloadRetries < 0 {
		errs = append(errs, errors.New("download_retries must not be negative"))
	}
	if c.MetadataTimeout.Duration <= 0 {
		errs = append(errs, errors.New("metadata_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetXDGCacheHome returns XDG_CACHE_HOME or default path
func GetXDGCacheHome() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return xdgCache
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache")
}

// GetCacheDir returns the directory holding the card cache and rendered art
func GetCacheDir() string {
	return filepath.Join(GetXDGCacheHome(), appName)
}

// GetANSICacheDir returns the directory for rendered card art
func GetANSICacheDir() string {
	return filepath.Join(GetCacheDir(), "ansi_cache")
}

// GetListsDir returns the default directory of the banned, allowed and
// singleton exception lists
func GetListsDir() string {
	return filepath.Join(GetXDGDataHome(), appName, "lists")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), appName, "config.toml")
}

// LoadConfig loads the config file from its default location
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(GetConfigFilePath())
}

// LoadConfigFrom loads the config file at path, writing the defaults there
// first if it does not exist. Keys missing from the file keep their defaults.
func LoadConfigFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefaultConfig(path)
	}

	config := Default()
	meta, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in config file %s: %v", path, undecoded)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return config, nil
}

// createDefaultConfig writes the default config to path
func createDefaultConfig(path string) (*Config, error) {
	config := Default()
	if err := Save(path, config); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes config to path, creating its directory
func Save(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return nil
}
