// Package netmon tracks connectivity state for the sync engine. The UI (or
// an OS-level probe) reports transitions; subscribers are notified when the
// connection comes back so queued work can be flushed.
package netmon

import "sync"

// Monitor holds the current online/offline flag and reconnect subscribers.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   []func()
}

// New creates a monitor that starts online.
func New() *Monitor {
	return &Monitor{online: true}
}

// Online reports the current connectivity flag. The flag is checked
// synchronously before each send; a request that loses connectivity
// mid-flight is classified as a network error by the caller, not offline.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a connectivity transition. Moving from offline to online
// invokes every reconnect subscriber once, in registration order.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	reconnected := online && !m.online
	m.online = online
	var subs []func()
	if reconnected {
		subs = append(subs, m.subs...)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// OnReconnect registers fn to run on every offline-to-online transition.
func (m *Monitor) OnReconnect(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}
