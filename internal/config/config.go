// Package config reads and writes the application's TOML configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the main configuration for till.
type Config struct {
	CompanyKey string         `toml:"company_key"`
	BaseDir    string         `toml:"base_dir"`
	LogDir     string         `toml:"log_dir"`
	Store      StoreConfig    `toml:"store"`
	Remote     RemoteConfig   `toml:"remote"`
	Mirror     MirrorConfig   `toml:"mirror"`
	External   ExternalConfig `toml:"external"`
	Backup     BackupConfig   `toml:"backup"`
	Sync       SyncConfig     `toml:"sync"`
}

// StoreConfig configures the local embedded store.
// Tagged union: Type selects which other fields apply.
type StoreConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// RemoteConfig configures the shared remote snapshot store.
type RemoteConfig struct {
	Type string `toml:"type"`          // "postgres" or "memory"
	DSN  string `toml:"dsn,omitempty"` // only used for type=postgres
}

// MirrorConfig configures the best-effort object-store mirror for exports.
type MirrorConfig struct {
	Type        string `toml:"type"` // "s3", "memory", or "none"
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"`
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

// ExternalConfig configures user-visible external storage.
type ExternalConfig struct {
	Type string `toml:"type"`          // "dir" or "none"
	Dir  string `toml:"dir,omitempty"` // pre-granted directory, skips prompting
}

// BackupConfig configures the backup directory and file naming.
type BackupConfig struct {
	Dir    string `toml:"dir,omitempty"`    // defaults to <base_dir>/backups
	Prefix string `toml:"prefix,omitempty"` // defaults to "till"
}

// SyncConfig configures the periodic sync timer.
type SyncConfig struct {
	Enabled         bool `toml:"enabled"`
	IntervalMinutes int  `toml:"interval_minutes,omitempty"` // defaults to 15
}

// NewConfig creates a Config with the provided values and sane defaults.
func NewConfig(companyKey, baseDir string) *Config {
	return &Config{
		CompanyKey: companyKey,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		Store:      StoreConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "data")},
		Remote:     RemoteConfig{Type: "memory"},
		Mirror:     MirrorConfig{Type: "none"},
		External:   ExternalConfig{Type: "dir"},
		Backup:     BackupConfig{Dir: filepath.Join(baseDir, "backups"), Prefix: "till"},
		Sync:       SyncConfig{Enabled: true, IntervalMinutes: 15},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path.
// Refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
