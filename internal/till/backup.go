package till

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"till-go/internal/model"
)

// sqliteHeader is the magic prefix of every SQLite main database file.
var sqliteHeader = []byte("SQLite format 3\x00")

// backupExt is the only extension ListBackups recognizes. Partial copies
// are written with a different suffix and so never surface as records.
const backupExt = ".db"

// BackupTaskName is the scheduler registration name for automated backups.
const BackupTaskName = "automated-backup"

// BackupManager creates, lists, restores and prunes point-in-time copies
// of the live database file. The backup directory listing is the source of
// truth; no index is kept.
type BackupManager struct {
	store     Store
	dir       string
	prefix    string
	gateway   Gateway
	scheduler Scheduler
	clock     Clock
	logger    Logger
}

func NewBackupManager(store Store, dir, prefix string, gateway Gateway, scheduler Scheduler, clock Clock, logger Logger) *BackupManager {
	return &BackupManager{
		store:     store,
		dir:       dir,
		prefix:    prefix,
		gateway:   gateway,
		scheduler: scheduler,
		clock:     clock,
		logger:    logger,
	}
}

// Dir returns the backup directory path.
func (m *BackupManager) Dir() string { return m.dir }

// CreateBackup copies the live database file (and any write-ahead or
// shared-memory side files present at that instant) into the backup
// directory under a timestamped name.
func (m *BackupManager) CreateBackup(ctx context.Context) (*model.BackupRecord, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	live := m.store.LiveFiles()
	if len(live) == 0 {
		return nil, fmt.Errorf("store has no backing file: %w", ErrNotFound)
	}
	main := live[0]
	if _, err := os.Stat(main); err != nil {
		return nil, fmt.Errorf("live database %s: %w", main, ErrNotFound)
	}

	// Serialize against other processes working in this directory.
	lock := flock.New(filepath.Join(m.dir, ".till.lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("locking backup directory: %w", err)
	}
	defer lock.Unlock()

	// A backup without a perfectly flushed log is still usable by SQLite's
	// own recovery, so the checkpoint is advisory.
	advisory(m.logger, "wal checkpoint", func() error {
		return m.store.CheckpointWAL(ctx)
	})

	name := fmt.Sprintf("%s-%d%s", m.prefix, m.clock.Now().UnixMilli(), backupExt)
	dst := filepath.Join(m.dir, name)
	if err := copyFileAtomic(main, dst); err != nil {
		return nil, fmt.Errorf("copying database: %w", err)
	}

	for _, side := range live[1:] {
		suffix := strings.TrimPrefix(side, main) // "-wal" or "-shm"
		if _, err := os.Stat(side); err != nil {
			continue
		}
		advisory(m.logger, "copy side file "+suffix, func() error {
			return copyFileAtomic(side, dst+suffix)
		})
	}

	info, err := os.Stat(dst)
	if err != nil {
		return nil, fmt.Errorf("stat new backup: %w", err)
	}

	rec := &model.BackupRecord{
		Name:      name,
		Path:      dst,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}
	m.logger.Info("backup created", "name", name, "size", rec.Size)
	return rec, nil
}

// ListBackups enumerates the backup directory. Files that vanish between
// the listing and the stat are skipped, not fatal: the user can delete
// backups from outside the app at any time.
func (m *BackupManager) ListBackups() ([]model.BackupRecord, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var records []model.BackupRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), backupExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			m.logger.Warn("backup vanished during listing", "name", e.Name())
			continue
		}
		records = append(records, model.BackupRecord{
			Name:      e.Name(),
			Path:      filepath.Join(m.dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// RestoreBackup replaces the live database with the backup at source.
// Header verification is advisory: some file handles cannot be read for
// verification, and the restore primitive is the step whose failure
// actually matters.
func (m *BackupManager) RestoreBackup(ctx context.Context, source string) error {
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("backup %s: %w", source, ErrNotFound)
	}

	advisory(m.logger, "verify backup header", func() error {
		return verifySQLiteHeader(source)
	})

	if err := m.store.RestoreFrom(ctx, source); err != nil {
		return fmt.Errorf("restoring database: %w", err)
	}

	m.logger.Info("backup restored", "source", source)
	return nil
}

// DeleteAllBackups removes every entry in the backup directory.
// Individual delete failures are logged and skipped.
func (m *BackupManager) DeleteAllBackups() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading backup directory: %w", err)
	}

	lock := flock.New(filepath.Join(m.dir, ".till.lock"))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking backup directory: %w", err)
	}
	defer lock.Unlock()

	deleted := 0
	for _, e := range entries {
		if e.IsDir() || e.Name() == ".till.lock" {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, e.Name())); err != nil {
			m.logger.Warn("deleting backup", "name", e.Name(), "error", err)
			continue
		}
		deleted++
	}

	m.logger.Info("backups deleted", "count", deleted)
	return nil
}

// PruneBackups deletes all but the newest keep backups. Side files of a
// pruned backup go with it.
func (m *BackupManager) PruneBackups(keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must be non-negative, got %d", keep)
	}

	records, err := m.ListBackups()
	if err != nil {
		return 0, err
	}
	if len(records) <= keep {
		return 0, nil
	}

	lock := flock.New(filepath.Join(m.dir, ".till.lock"))
	if err := lock.Lock(); err != nil {
		return 0, fmt.Errorf("locking backup directory: %w", err)
	}
	defer lock.Unlock()

	pruned := 0
	for _, rec := range records[keep:] {
		if err := os.Remove(rec.Path); err != nil {
			m.logger.Warn("pruning backup", "name", rec.Name, "error", err)
			continue
		}
		for _, suffix := range []string{"-wal", "-shm"} {
			os.Remove(rec.Path + suffix)
		}
		pruned++
	}

	m.logger.Info("backups pruned", "kept", keep, "pruned", pruned)
	return pruned, nil
}

// SaveBackupExternal copies a backup into the user-granted external
// directory under the gateway's retry-once contract. The record must still
// exist on disk.
func (m *BackupManager) SaveBackupExternal(ctx context.Context, rec *model.BackupRecord) (string, error) {
	data, err := os.ReadFile(rec.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("backup %s: %w", rec.Name, ErrNotFound)
		}
		return "", fmt.Errorf("reading backup: %w", err)
	}
	return SaveExternal(ctx, m.gateway, rec.Name, "application/octet-stream", data)
}

// RegisterAutomatedBackup schedules an unattended CreateBackup run every
// intervalHours and persists the schedule setting. On hosts without
// background execution this only persists the setting.
func (m *BackupManager) RegisterAutomatedBackup(ctx context.Context, intervalHours int) error {
	if intervalHours < 1 {
		return fmt.Errorf("interval must be at least 1 hour, got %d", intervalHours)
	}

	if err := m.persistSchedule(ctx, model.BackupSchedule{Enabled: true, IntervalHours: intervalHours}); err != nil {
		return err
	}

	if !m.scheduler.Available() {
		m.logger.Debug("background execution unavailable, automated backup not scheduled")
		return nil
	}

	return m.scheduler.Register(BackupTaskName, time.Duration(intervalHours)*time.Hour, func(ctx context.Context) error {
		_, err := m.CreateBackup(ctx)
		return err
	})
}

// UnregisterAutomatedBackup cancels the scheduled run and persists the
// disabled schedule.
func (m *BackupManager) UnregisterAutomatedBackup(ctx context.Context) error {
	sched, err := m.Schedule(ctx)
	if err != nil {
		return err
	}
	sched.Enabled = false
	if err := m.persistSchedule(ctx, sched); err != nil {
		return err
	}

	if !m.scheduler.Available() {
		return nil
	}
	return m.scheduler.Unregister(BackupTaskName)
}

// Schedule reads the persisted backup schedule. A never-written schedule
// is disabled with a one-day interval.
func (m *BackupManager) Schedule(ctx context.Context) (model.BackupSchedule, error) {
	sched := model.BackupSchedule{Enabled: false, IntervalHours: 24}

	raw, found, err := m.store.GetSetting(ctx, SettingBackupSchedule)
	if err != nil {
		return sched, fmt.Errorf("reading backup schedule: %w", err)
	}
	if !found {
		return sched, nil
	}
	if err := json.Unmarshal([]byte(raw), &sched); err != nil {
		return sched, fmt.Errorf("decoding backup schedule: %w", err)
	}
	return sched, nil
}

func (m *BackupManager) persistSchedule(ctx context.Context, sched model.BackupSchedule) error {
	raw, err := json.Marshal(sched)
	if err != nil {
		return fmt.Errorf("encoding backup schedule: %w", err)
	}
	if err := m.store.SetSetting(ctx, SettingBackupSchedule, string(raw)); err != nil {
		return fmt.Errorf("persisting backup schedule: %w", err)
	}
	return nil
}

// verifySQLiteHeader checks that the file begins with the SQLite magic.
func verifySQLiteHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening for verification: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if !bytes.Equal(header, sqliteHeader) {
		return fmt.Errorf("not a SQLite database file")
	}
	return nil
}

// copyFileAtomic copies src to dst via a temporary file and rename, so a
// copy that dies partway never leaves a file under the final name.
func copyFileAtomic(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dst)
}
