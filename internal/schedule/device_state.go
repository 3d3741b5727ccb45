package schedule

import "sync"

// DeviceState mirrors the host conditions that gate constrained work.
// The embedding application feeds it from whatever platform signals it has;
// the queue only ever reads snapshots.
type DeviceState struct {
	mu            sync.RWMutex
	batteryNotLow bool
	idle          bool
	charging      bool
}

// NewDeviceState starts with the battery healthy and the device neither
// idle nor charging.
func NewDeviceState() *DeviceState {
	return &DeviceState{batteryNotLow: true}
}

func (d *DeviceState) SetBatteryNotLow(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batteryNotLow = v
}

func (d *DeviceState) SetIdle(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.idle = v
}

func (d *DeviceState) SetCharging(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.charging = v
}

type deviceSnapshot struct {
	batteryNotLow bool
	idle          bool
	charging      bool
}

func (d *DeviceState) snapshot() deviceSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return deviceSnapshot{
		batteryNotLow: d.batteryNotLow,
		idle:          d.idle,
		charging:      d.charging,
	}
}

// Constraints lists the device conditions that must hold before a piece of
// work may start. The zero value imposes none.
type Constraints struct {
	RequireBatteryNotLow bool
	RequireIdle          bool
	RequireCharging      bool
}

func (c Constraints) satisfiedBy(s deviceSnapshot) bool {
	if c.RequireBatteryNotLow && !s.batteryNotLow {
		return false
	}
	if c.RequireIdle && !s.idle {
		return false
	}
	if c.RequireCharging && !s.charging {
		return false
	}
	return true
}
