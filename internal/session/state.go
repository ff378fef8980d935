package session

import (
	"sync"

	"github.com/spigell/autofiller/internal/dom"
	"github.com/spigell/autofiller/internal/form"
)

// State is the page-local session: the committed container, the last captured
// snapshot, the element it was read from and the mapping resolved for it. Snapshot
// and mapping always change together.
type State struct {
	mu        sync.RWMutex
	container *dom.Element
	root      *dom.Element
	snapshot  *form.Snapshot
	mapping   form.Mapping
	captureID string
}

// Replace installs a new snapshot and mapping atomically. root is the element the
// snapshot was extracted from.
func (s *State) Replace(root *dom.Element, snapshot form.Snapshot, mapping form.Mapping, captureID string) {
	fields := append([]form.Descriptor(nil), snapshot.Fields...)
	snapshot.Fields = fields

	values := make(form.Mapping, len(mapping))
	for k, v := range mapping {
		values[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
	s.snapshot = &snapshot
	s.mapping = values
	s.captureID = captureID
}

// Current returns the snapshot, mapping and capture id, or ok=false when nothing has
// been captured.
func (s *State) Current() (snapshot form.Snapshot, mapping form.Mapping, captureID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return form.Snapshot{}, nil, "", false
	}

	return *s.snapshot, s.mapping, s.captureID, true
}

// Commit makes el the container and drops the previous snapshot.
func (s *State) Commit(el *dom.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.container = el
	s.root = nil
	s.snapshot = nil
	s.mapping = nil
	s.captureID = ""
}

// Container returns the committed container while it is still attached.
func (s *State) Container() *dom.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.container == nil || !s.container.Attached() {
		return nil
	}

	return s.container
}

// Root returns the element the current snapshot was extracted from, or nil.
func (s *State) Root() *dom.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Clear forgets everything, as on navigation.
func (s *State) Clear() {
	s.Commit(nil)
}
