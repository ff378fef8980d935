package dom

// EventKind names an event dispatched on the document.
type EventKind string

const (
	EventInput     EventKind = "input"
	EventChange    EventKind = "change"
	EventMouseMove EventKind = "mousemove"
	EventClick     EventKind = "click"
	EventKeyDown   EventKind = "keydown"
)

// Event is delivered to listeners registered on a Document.
type Event struct {
	Kind   EventKind
	Target *Element
	// Key is set for keydown events, e.g. "Escape".
	Key string

	defaultPrevented bool
}

// PreventDefault marks the event as handled by a listener.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// Listener handles a dispatched event.
type Listener func(*Event)

// ListenerHandle identifies a registration for RemoveEventListener.
type ListenerHandle int

type registeredListener struct {
	handle ListenerHandle
	kind   EventKind
	fn     Listener
}

// Notifier is the post-bind side effect that tells page-level listeners a control
// changed. Document implements it by dispatching the event to its listeners.
type Notifier interface {
	Notify(el *Element, kind EventKind)
}

// AddEventListener registers fn for events of kind and returns a handle for removal.
func (d *Document) AddEventListener(kind EventKind, fn Listener) ListenerHandle {
	d.nextHandle++
	d.listeners = append(d.listeners, registeredListener{handle: d.nextHandle, kind: kind, fn: fn})

	return d.nextHandle
}

// RemoveEventListener unregisters a listener. Unknown handles are ignored.
func (d *Document) RemoveEventListener(h ListenerHandle) {
	for i, l := range d.listeners {
		if l.handle == h {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of listeners registered for kind.
func (d *Document) ListenerCount(kind EventKind) int {
	count := 0
	for _, l := range d.listeners {
		if l.kind == kind {
			count++
		}
	}

	return count
}

// DispatchEvent delivers ev to the listeners registered for its kind, in registration
// order. Listeners added or removed during dispatch do not affect the current round.
func (d *Document) DispatchEvent(ev *Event) {
	snapshot := make([]registeredListener, len(d.listeners))
	copy(snapshot, d.listeners)

	for _, l := range snapshot {
		if l.kind == ev.Kind {
			l.fn(ev)
		}
	}
}

// Notify dispatches a bubbling-style notification for el.
func (d *Document) Notify(el *Element, kind EventKind) {
	d.DispatchEvent(&Event{Kind: kind, Target: el})
}
