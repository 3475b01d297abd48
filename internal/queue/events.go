package queue

import "wmm/internal/domain"

// EventKind discriminates queue notifications.
type EventKind int

const (
	// EventAdded fires once when a request enters the queue.
	EventAdded EventKind = iota
	// EventUpdated fires on every request mutation.
	EventUpdated
	// EventInstanceComplete fires when all downloads targeting an instance
	// have finished and installation has been attempted.
	EventInstanceComplete
)

// InstanceComplete is the payload of EventInstanceComplete.
type InstanceComplete struct {
	InstanceID   string
	Succeeded    bool
	CollectionID string
}

// Event is one queue notification. Download is a snapshot with internal
// linkage fields stripped; it is nil for instance events.
type Event struct {
	Kind     EventKind
	Download *domain.Download
	Instance *InstanceComplete
}

const subscriberBuffer = 256

// Subscribe registers a listener and returns its event channel plus an
// unsubscribe function. Delivery is best-effort: events are dropped rather
// than blocking the queue when a subscriber falls behind.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Event, subscriberBuffer)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}

func (m *Manager) emitLocked(kind EventKind, d *domain.Download) {
	m.broadcastLocked(Event{Kind: kind, Download: d.Snapshot()})
}

func (m *Manager) emitInstanceLocked(ev InstanceComplete) {
	m.broadcastLocked(Event{Kind: EventInstanceComplete, Instance: &ev})
}

func (m *Manager) broadcastLocked(ev Event) {
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
