package mynetwork

import (
	"context"
	"sync"
)

// ManualMonitor is told about reachability instead of observing it.
// Used in tests and as the state-keeping core of the probe monitor.
type ManualMonitor struct {
	mutex          sync.Mutex
	online         bool
	listeners      map[int]func(online bool)
	nextListenerID int
}

func NewManualMonitor(online bool) *ManualMonitor {
	return &ManualMonitor{
		online:    online,
		listeners: map[int]func(online bool){},
	}
}

func (m *ManualMonitor) IsOnline(c context.Context) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.online
}

func (m *ManualMonitor) SetOnline(online bool) {
	m.mutex.Lock()

	if m.online == online {
		m.mutex.Unlock()
		return
	}
	m.online = online

	toNotify := make([]func(online bool), 0, len(m.listeners))
	for _, listener := range m.listeners {
		toNotify = append(toNotify, listener)
	}
	m.mutex.Unlock()

	// Notify outside the lock: listeners may call back into the monitor
	for _, listener := range toNotify {
		listener(online)
	}
}

func (m *ManualMonitor) Subscribe(listener func(online bool)) func() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	id := m.nextListenerID
	m.nextListenerID++
	m.listeners[id] = listener

	return func() {
		m.mutex.Lock()
		defer m.mutex.Unlock()

		delete(m.listeners, id)
	}
}
