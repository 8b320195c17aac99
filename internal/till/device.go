package till

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// PlatformID looks up a stable hardware or installation identifier from
// the host platform.
type PlatformID interface {
	HardwareID() (string, error)
}

// MachineID reads the host machine id. Linux keeps it in /etc/machine-id
// with an older dbus fallback location.
type MachineID struct{}

func (MachineID) HardwareID() (string, error) {
	for _, p := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("no machine id available")
}

// DeviceIdentity produces and persists a stable identifier for this
// installation. The identifier is derived once and then always served from
// the persisted copy.
type DeviceIdentity struct {
	store    Store
	platform PlatformID
	clock    Clock
	logger   Logger
	appName  string

	mu     sync.Mutex
	cached string
}

func NewDeviceIdentity(store Store, platform PlatformID, clock Clock, logger Logger, appName string) *DeviceIdentity {
	return &DeviceIdentity{
		store:    store,
		platform: platform,
		clock:    clock,
		logger:   logger,
		appName:  appName,
	}
}

// DeviceID returns the installation identifier. It never fails: platform
// lookup errors fall back to a generated identifier, and persistence
// failures are logged while the derived value is still returned.
func (d *DeviceIdentity) DeviceID(ctx context.Context) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached != "" {
		return d.cached
	}

	if v, found, err := d.store.GetSetting(ctx, SettingDeviceID); err == nil && found && v != "" {
		d.cached = v
		return v
	} else if err != nil {
		d.logger.Warn("reading persisted device id", "error", err)
	}

	id, err := d.platform.HardwareID()
	if err != nil || id == "" {
		id = fmt.Sprintf("%s-%d", d.appName, d.clock.Now().UnixMilli())
		d.logger.Info("platform id unavailable, generated device id", "deviceId", id)
	}

	if err := d.store.SetSetting(ctx, SettingDeviceID, id); err != nil {
		d.logger.Warn("persisting device id", "error", err)
	}

	d.cached = id
	return id
}
