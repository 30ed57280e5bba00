package studio

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/events"
	"github.com/Conceptual-Machines/eternal-union/internal/logger"
)

// Topic is the event hub topic carrying a studio's snapshots.
func Topic(studioID string) string {
	return "studio:" + studioID
}

type studioEntry struct {
	studio   *Studio
	lastSeen time.Time
}

// Manager keeps one Studio per browser. Studios nobody has touched for a
// while are evicted by the sweeper; a returning browser starts a fresh one.
type Manager struct {
	deps Deps
	hub  *events.Hub
	now  func() time.Time

	mu      sync.Mutex
	studios map[string]*studioEntry

	done     chan struct{}
	stopOnce sync.Once
}

func NewManager(deps Deps, hub *events.Hub) *Manager {
	return &Manager{
		deps:    deps,
		hub:     hub,
		now:     time.Now,
		studios: make(map[string]*studioEntry),
		done:    make(chan struct{}),
	}
}

// Get returns the studio for id, creating it on first use.
func (m *Manager) Get(id string) *Studio {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.studios[id]; ok {
		e.lastSeen = m.now()
		return e.studio
	}
	st := New(id, m.deps, m.publisher(id))
	m.studios[id] = &studioEntry{studio: st, lastSeen: m.now()}
	return st
}

// StartSweeper evicts studios idle for longer than idleTTL every period,
// until Stop is called.
func (m *Manager) StartSweeper(idleTTL, period time.Duration) {
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.EvictIdle(idleTTL); n > 0 {
					logger.Info("Evicted idle studios", logger.Fields{"evicted": n, "live": m.Len()})
				}
			case <-m.done:
				return
			}
		}
	}()
}

// Stop terminates the sweeper.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

// EvictIdle drops studios not seen for longer than idleTTL and returns how
// many went. Studios with an open event stream or a single-shot call in
// flight are kept; a running batch is cancelled before its studio goes.
func (m *Manager) EvictIdle(idleTTL time.Duration) int {
	now := m.now()

	m.mu.Lock()
	var idle []*studioEntry
	for id, e := range m.studios {
		if now.Sub(e.lastSeen) <= idleTTL {
			continue
		}
		if m.hub != nil && m.hub.Subscribers(Topic(id)) > 0 {
			continue
		}
		if e.studio.Snapshot().IsGenerating {
			continue
		}
		delete(m.studios, id)
		idle = append(idle, e)
	}
	m.mu.Unlock()

	for _, e := range idle {
		e.studio.CancelBatch()
	}
	return len(idle)
}

// Dispatch pushes an auth event to a studio and its listeners.
func (m *Manager) Dispatch(ctx context.Context, id string, evt events.AuthEvent) {
	m.Get(id).HandleAuthEvent(ctx, evt)

	if m.hub == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		logger.Warn("Failed to encode auth event", logger.Fields{"studio_id": id, "error": err.Error()})
		return
	}
	m.hub.Publish(Topic(id), events.Event{Type: events.TypeAuth, Data: data})
}

// Len is the number of live studios.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.studios)
}

// Stats counts live studios by activity.
type Stats struct {
	Live       int `json:"live"`
	SignedIn   int `json:"signed_in"`
	Generating int `json:"generating"`
	Batching   int `json:"batching"`
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	studios := make([]*Studio, 0, len(m.studios))
	for _, e := range m.studios {
		studios = append(studios, e.studio)
	}
	m.mu.Unlock()

	stats := Stats{Live: len(studios)}
	for _, st := range studios {
		v := st.Snapshot()
		if v.User != nil {
			stats.SignedIn++
		}
		if v.IsGenerating {
			stats.Generating++
		}
		if v.IsBatchGenerating {
			stats.Batching++
		}
	}
	return stats
}

func (m *Manager) publisher(id string) func(ViewState) {
	if m.hub == nil {
		return nil
	}
	topic := Topic(id)
	return func(v ViewState) {
		if m.hub.Subscribers(topic) == 0 {
			return
		}
		data, err := json.Marshal(v)
		if err != nil {
			logger.Warn("Failed to encode snapshot", logger.Fields{"studio_id": id, "error": err.Error()})
			return
		}
		m.hub.Publish(topic, events.Event{Type: events.TypeSnapshot, Data: data})
	}
}
