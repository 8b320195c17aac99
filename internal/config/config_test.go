package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		CompanyKey: "company-abc",
		BaseDir:    "/home/user/.local/share/till",
		LogDir:     "/home/user/.local/share/till/log",
		Store:      StoreConfig{Type: "sqlite", DataDir: "/home/user/.local/share/till/data"},
		Remote:     RemoteConfig{Type: "postgres", DSN: "postgres://till:secret@db/till"},
		Mirror: MirrorConfig{
			Type:     "s3",
			S3Bucket: "till-exports",
			S3Prefix: "shop-1",
			S3Region: "ap-southeast-1",
		},
		External: ExternalConfig{Type: "dir", Dir: "/srv/exports"},
		Backup:   BackupConfig{Dir: "/home/user/.local/share/till/backups", Prefix: "till"},
		Sync:     SyncConfig{Enabled: true, IntervalMinutes: 30},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.CompanyKey != original.CompanyKey {
		t.Errorf("CompanyKey = %q, want %q", got.CompanyKey, original.CompanyKey)
	}
	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.Store.Type != "sqlite" || got.Store.DataDir != original.Store.DataDir {
		t.Errorf("Store = %+v, want %+v", got.Store, original.Store)
	}
	if got.Remote.Type != "postgres" || got.Remote.DSN != original.Remote.DSN {
		t.Errorf("Remote = %+v, want %+v", got.Remote, original.Remote)
	}
	if got.Mirror.S3Bucket != "till-exports" {
		t.Errorf("Mirror.S3Bucket = %q, want %q", got.Mirror.S3Bucket, "till-exports")
	}
	if got.External.Dir != "/srv/exports" {
		t.Errorf("External.Dir = %q, want %q", got.External.Dir, "/srv/exports")
	}
	if got.Backup.Prefix != "till" {
		t.Errorf("Backup.Prefix = %q, want %q", got.Backup.Prefix, "till")
	}
	if !got.Sync.Enabled || got.Sync.IntervalMinutes != 30 {
		t.Errorf("Sync = %+v, want enabled every 30m", got.Sync)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("company-1", "/data/till")

	if cfg.CompanyKey != "company-1" {
		t.Errorf("CompanyKey = %q, want %q", cfg.CompanyKey, "company-1")
	}
	if cfg.BaseDir != "/data/till" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/till")
	}
	if cfg.LogDir != filepath.Join("/data/till", "log") {
		t.Errorf("LogDir = %q, want under base dir", cfg.LogDir)
	}
	if cfg.Store.Type != "sqlite" {
		t.Errorf("Store.Type = %q, want sqlite", cfg.Store.Type)
	}
	if cfg.Remote.Type != "memory" {
		t.Errorf("Remote.Type = %q, want memory", cfg.Remote.Type)
	}
	if cfg.Mirror.Type != "none" {
		t.Errorf("Mirror.Type = %q, want none", cfg.Mirror.Type)
	}
	if cfg.Backup.Dir != filepath.Join("/data/till", "backups") {
		t.Errorf("Backup.Dir = %q, want under base dir", cfg.Backup.Dir)
	}
	if !cfg.Sync.Enabled || cfg.Sync.IntervalMinutes != 15 {
		t.Errorf("Sync = %+v, want enabled every 15m", cfg.Sync)
	}
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads a written config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "till.toml")
		cfg := NewConfig("company-1", "/data/till")

		if err := writeToFile(path, cfg); err != nil {
			t.Fatalf("writeToFile() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.CompanyKey != "company-1" {
			t.Errorf("CompanyKey = %q, want company-1", got.CompanyKey)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := ReadFromFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("ReadFromFile() error = nil, want error")
		}
	})
}

func TestInit(t *testing.T) {
	t.Run("creates a new config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "till.toml")

		if err := Init(path, NewConfig("company-1", "/data/till")); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("config file missing: %v", err)
		}
	})

	t.Run("refuses to overwrite an existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "till.toml")
		if err := Init(path, NewConfig("company-1", "/data/till")); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, NewConfig("company-2", "/other")); err == nil {
			t.Error("second Init() error = nil, want error")
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.CompanyKey != "company-1" {
			t.Errorf("CompanyKey = %q, want original preserved", got.CompanyKey)
		}
	})
}
