// Package app is the application layer between the CLI and the durability
// core: it constructs all dependencies from config and exposes high-level
// operations.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"till-go/internal/config"
	"till-go/internal/database"
	"till-go/internal/gateway"
	"till-go/internal/mirror"
	"till-go/internal/model"
	"till-go/internal/remote"
	"till-go/internal/scheduler"
	"till-go/internal/till"
)

// AppName is used for generated device identifiers.
const AppName = "till"

// syncTaskName is the scheduler registration name for the periodic sync.
const syncTaskName = "periodic-sync"

// App wires the durability core together. The caller must call Close.
type App struct {
	cfg      *config.Config
	store    till.Store
	remote   till.RemoteSnapshots
	mirror   till.Mirror
	gateway  till.Gateway
	sched    till.Scheduler
	identity *till.DeviceIdentity
	engine   *till.SyncEngine
	backups  *till.BackupManager
	importer *till.Importer
	logger   till.Logger
	logFile  io.Closer
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Sync", "Import").
func NewApp(ctx context.Context, cfg *config.Config, operation string) (*App, error) {
	if cfg.CompanyKey == "" {
		return nil, fmt.Errorf("company_key is not configured")
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	store, err := database.NewStoreFromConfig(cfg.Store)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating store: %w", err)
	}

	remoteStore, err := remote.NewSnapshotsFromConfig(cfg.Remote)
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating remote snapshot store: %w", err)
	}

	mir, err := mirror.NewMirrorFromConfig(ctx, cfg.Mirror)
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating mirror: %w", err)
	}

	gw, err := gateway.NewGatewayFromConfig(cfg.External, store, logger)
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating storage gateway: %w", err)
	}

	// Some host environments (a sandboxed development runner, CI) have no
	// background execution; scheduling degrades to a silent no-op there.
	var sched till.Scheduler
	if os.Getenv("TILL_NO_BACKGROUND") != "" {
		sched = scheduler.Noop{}
	} else {
		sched = scheduler.NewTicker(logger)
	}

	clock := till.RealClock{}
	idgen := till.UUIDGenerator{}

	identity := till.NewDeviceIdentity(store, till.MachineID{}, clock, logger, AppName)
	engine := till.NewSyncEngine(store, remoteStore, identity, cfg.CompanyKey, clock, logger)

	backupDir := cfg.Backup.Dir
	if backupDir == "" {
		backupDir = filepath.Join(cfg.BaseDir, "backups")
	}
	backupPrefix := cfg.Backup.Prefix
	if backupPrefix == "" {
		backupPrefix = AppName
	}
	backups := till.NewBackupManager(store, backupDir, backupPrefix, gw, sched, clock, logger)

	importer := till.NewImporter(store, remoteStore, cfg.CompanyKey, gw, mir,
		filepath.Join(cfg.BaseDir, "exports"), clock, idgen, logger)

	logger.Debug("app initialized", "operation", operation, "companyKey", cfg.CompanyKey)

	return &App{
		cfg:      cfg,
		store:    store,
		remote:   remoteStore,
		mirror:   mir,
		gateway:  gw,
		sched:    sched,
		identity: identity,
		engine:   engine,
		backups:  backups,
		importer: importer,
		logger:   logger,
		logFile:  logFile,
	}, nil
}

// DeviceID returns this installation's identifier.
func (a *App) DeviceID(ctx context.Context) string {
	return a.identity.DeviceID(ctx)
}

// SyncNow runs one push-then-pull reconciliation.
func (a *App) SyncNow(ctx context.Context) (*till.SyncResult, error) {
	return a.engine.SyncNow(ctx)
}

// CreateBackup takes a point-in-time copy of the live database.
func (a *App) CreateBackup(ctx context.Context) (*model.BackupRecord, error) {
	return a.backups.CreateBackup(ctx)
}

// ListBackups enumerates existing backups, newest first.
func (a *App) ListBackups() ([]model.BackupRecord, error) {
	return a.backups.ListBackups()
}

// RestoreBackup replaces the live database with the named backup.
func (a *App) RestoreBackup(ctx context.Context, source string) error {
	return a.backups.RestoreBackup(ctx, source)
}

// DeleteAllBackups removes every backup file.
func (a *App) DeleteAllBackups() error {
	return a.backups.DeleteAllBackups()
}

// PruneBackups keeps the newest keep backups and deletes the rest.
func (a *App) PruneBackups(keep int) (int, error) {
	return a.backups.PruneBackups(keep)
}

// SaveBackupExternal copies a backup into the user-granted directory.
func (a *App) SaveBackupExternal(ctx context.Context, rec *model.BackupRecord) (string, error) {
	return a.backups.SaveBackupExternal(ctx, rec)
}

// Import ingests a CSV or JSON inventory file.
func (a *App) Import(ctx context.Context, path string) (*till.ImportResult, error) {
	return a.importer.ImportFromFile(ctx, path)
}

// Export writes an inventory snapshot document.
func (a *App) Export(ctx context.Context, fileName string) (*model.ExportReceipt, error) {
	return a.importer.ExportSnapshot(ctx, fileName)
}

// SetBackupSchedule enables or disables unattended backups.
func (a *App) SetBackupSchedule(ctx context.Context, enabled bool, intervalHours int) error {
	if enabled {
		return a.backups.RegisterAutomatedBackup(ctx, intervalHours)
	}
	return a.backups.UnregisterAutomatedBackup(ctx)
}

// StartSchedulers registers the persisted automated-backup task and, when
// configured, the periodic sync task. Used by the long-running serve mode.
func (a *App) StartSchedulers(ctx context.Context) error {
	sched, err := a.backups.Schedule(ctx)
	if err != nil {
		return err
	}
	if sched.Enabled {
		if err := a.backups.RegisterAutomatedBackup(ctx, sched.IntervalHours); err != nil {
			return err
		}
	}

	if a.cfg.Sync.Enabled && a.sched.Available() {
		interval := time.Duration(a.cfg.Sync.IntervalMinutes) * time.Minute
		if interval <= 0 {
			interval = 15 * time.Minute
		}
		if err := a.sched.Register(syncTaskName, interval, func(ctx context.Context) error {
			_, err := a.engine.SyncNow(ctx)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

// Close tears down schedulers, the store and the log file.
func (a *App) Close() error {
	var firstErr error

	if t, ok := a.sched.(*scheduler.Ticker); ok {
		t.Close()
	}

	if c, ok := a.remote.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing remote store: %w", err)
		}
	}

	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
