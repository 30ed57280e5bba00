package studio

import (
	"errors"
	"sync"

	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
)

// errSkip aborts an Apply without error and without publishing.
var errSkip = errors.New("skip")

// Store owns one ViewState. Every change goes through Reduce under the lock
// and the resulting snapshot is published before the lock is released, so
// observers see snapshots in order.
type Store struct {
	mu      sync.Mutex
	state   ViewState
	publish func(ViewState)
}

// NewStore creates a store. publish may be nil.
func NewStore(initial ViewState, publish func(ViewState)) *Store {
	if publish == nil {
		publish = func(ViewState) {}
	}
	return &Store{state: initial, publish: publish}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update merges p into the state.
func (s *Store) Update(p Patch) ViewState {
	v, _ := s.Apply(func(ViewState) (Patch, error) { return p, nil })
	return v
}

// UpdateIf merges p only when guard accepts the current state. It reports
// whether the patch was applied.
func (s *Store) UpdateIf(guard func(ViewState) bool, p Patch) (ViewState, bool) {
	v, err := s.Apply(func(v ViewState) (Patch, error) {
		if !guard(v) {
			return Patch{}, errSkip
		}
		return p, nil
	})
	return v, err == nil
}

// Apply builds a patch from the current state and merges it atomically. When
// fn fails nothing changes and the error is returned with the unchanged state.
func (s *Store) Apply(fn func(ViewState) (Patch, error)) (ViewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := fn(s.state)
	if err != nil {
		return s.state, err
	}
	s.state = Reduce(s.state, p)
	s.publish(s.state)
	return s.state, nil
}

// Hover sets the transient preview image without going through Reduce.
func (s *Store) Hover(img *imagecodec.Image) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Hovered = img
	s.publish(s.state)
	return s.state
}
