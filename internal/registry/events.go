package registry

// EventKind names the connection lifecycle notifications observers receive.
type EventKind string

const (
	EventConnectionAdded        EventKind = "connection_added"
	EventConnectionRemoved      EventKind = "connection_removed"
	EventConnectionStateChanged EventKind = "connection_state_changed"
)

// Event is an immutable notification value. IsConnected is meaningful for
// state-change events only; observers must re-check the connection handle for
// anything beyond the snapshot carried here.
type Event struct {
	Kind        EventKind
	Connection  string
	IsConnected bool
}

// Observer receives events synchronously on the goroutine that completed the
// operation. Events from one connection arrive in completion order; there is
// no ordering guarantee across connections.
type Observer func(Event)

// Subscribe registers an observer and returns its unsubscribe function.
func (m *Manager) Subscribe(fn Observer) func() {
	m.obsMu.Lock()
	id := m.nextObserver
	m.nextObserver++
	m.observers[id] = fn
	m.obsMu.Unlock()

	return func() {
		m.obsMu.Lock()
		delete(m.observers, id)
		m.obsMu.Unlock()
	}
}

// emit delivers an event to every observer. Delivery happens outside the
// connection map lock so observers can call back into the manager.
func (m *Manager) emit(evt Event) {
	m.obsMu.RLock()
	observers := make([]Observer, 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.obsMu.RUnlock()

	for _, fn := range observers {
		fn(evt)
	}
}
