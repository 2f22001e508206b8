package explorer

// EventKind names the node-level notifications observers receive.
type EventKind string

const (
	EventChildrenReplaced    EventKind = "children_replaced"
	EventRefreshStateChanged EventKind = "refresh_state_changed"
)

// Event is an immutable notification value keyed by the node's slash-joined
// path. IsRefreshing is meaningful for refresh-state events only.
type Event struct {
	Kind         EventKind
	Path         string
	IsRefreshing bool
}

// Observer receives events synchronously on the goroutine that completed the
// operation. Events for one node arrive in completion order.
type Observer func(Event)

// Subscribe registers an observer and returns its unsubscribe function.
func (t *Tree) Subscribe(fn Observer) func() {
	t.obsMu.Lock()
	id := t.nextObserver
	t.nextObserver++
	t.observers[id] = fn
	t.obsMu.Unlock()

	return func() {
		t.obsMu.Lock()
		delete(t.observers, id)
		t.obsMu.Unlock()
	}
}

// emit delivers an event to every observer outside the tree lock so
// observers can call back into the tree.
func (t *Tree) emit(evt Event) {
	t.obsMu.RLock()
	observers := make([]Observer, 0, len(t.observers))
	for _, fn := range t.observers {
		observers = append(observers, fn)
	}
	t.obsMu.RUnlock()

	for _, fn := range observers {
		fn(evt)
	}
}
