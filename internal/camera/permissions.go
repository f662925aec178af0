package camera

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// PermissionState of one capture device.
type PermissionState string

const (
	StateUnrequested PermissionState = "unrequested"
	StateGranted     PermissionState = "granted"
	StateDenied      PermissionState = "denied"
)

// ErrPermissionDenied is returned while a device sits in the post-denial
// cooldown window. Re-prompting before the window expires would hammer the OS
// permission dialog.
var ErrPermissionDenied = errors.New("camera permission denied")

type deviceState struct {
	state    PermissionState
	deniedAt time.Time
}

// Manager tracks capture permission per device. A granted device keeps its
// open stream across consecutive scans; a denial starts a cooldown before the
// next prompt is allowed.
type Manager struct {
	cooldown time.Duration
	now      func() time.Time

	mu      sync.Mutex
	devices map[string]deviceState
}

func NewManager(cooldown time.Duration) *Manager {
	return &Manager{
		cooldown: cooldown,
		now:      time.Now,
		devices:  make(map[string]deviceState),
	}
}

// State reports the effective permission state. A denial whose cooldown has
// expired reads as unrequested, allowing the next prompt.
func (m *Manager) State(deviceID string) PermissionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.effective(deviceID)
}

// Grant records a successful permission prompt for the device.
func (m *Manager) Grant(deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[deviceID] = deviceState{state: StateGranted}
}

// Deny records an explicit denial and starts the cooldown window.
func (m *Manager) Deny(deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[deviceID] = deviceState{state: StateDenied, deniedAt: m.now()}
}

// Authorize gates a capture attempt. Granted and unrequested devices pass
// (the latter triggers a prompt on the capture side); devices inside the
// denial cooldown are rejected with the remaining wait.
func (m *Manager) Authorize(deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.effective(deviceID) != StateDenied {
		return nil
	}

	remaining := m.cooldown - m.now().Sub(m.devices[deviceID].deniedAt)
	return fmt.Errorf("%w: retry in %s", ErrPermissionDenied, remaining.Round(time.Second))
}

func (m *Manager) effective(deviceID string) PermissionState {
	d, ok := m.devices[deviceID]
	if !ok {
		return StateUnrequested
	}
	if d.state == StateDenied && m.now().Sub(d.deniedAt) >= m.cooldown {
		return StateUnrequested
	}
	return d.state
}
