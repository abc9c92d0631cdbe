package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Event is one pipeline observability event delivered to SSE subscribers.
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"` // "stage_started", "stage_completed", "run_completed"
	RunID   string          `json:"run_id"`
	Data    json.RawMessage `json:"data,omitempty"`
	Created time.Time       `json:"created"`
}

// Filter restricts which events a subscriber receives. Zero value matches all.
type Filter struct {
	RunID string
	Types []string
}

func (f Filter) matches(e Event) bool {
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if t == e.Type {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Bus provides pub-sub event distribution for SSE subscribers.
// It maintains a ring buffer for replay on reconnect.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]subscriber
	nextID      uint64
	seq         atomic.Uint64

	ring     []Event
	ringSize int
	ringHead int
	ringMu   sync.RWMutex
}

type subscriber struct {
	ch     chan Event
	filter Filter
}

// NewBus creates an event bus with the given ring buffer size.
// Sizes below 1 are clamped to 1.
func NewBus(ringSize int) *Bus {
	if ringSize < 1 {
		ringSize = 1
	}
	return &Bus{
		subscribers: make(map[uint64]subscriber),
		ring:        make([]Event, ringSize),
		ringSize:    ringSize,
	}
}

// Subscribe registers a new subscriber and returns a channel and cancel function.
func (b *Bus) Subscribe(filter Filter) (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, 64)
	b.subscribers[id] = subscriber{ch: ch, filter: filter}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish sends an event to all matching subscribers and adds it to the
// ring buffer. Slow subscribers drop events rather than block the pipeline.
func (b *Bus) Publish(evtType, runID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	e := Event{
		ID:      fmt.Sprintf("%d", b.seq.Add(1)),
		Type:    evtType,
		RunID:   runID,
		Data:    data,
		Created: time.Now(),
	}

	b.ringMu.Lock()
	b.ring[b.ringHead] = e
	b.ringHead = (b.ringHead + 1) % b.ringSize
	b.ringMu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		if !sub.filter.matches(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
		}
	}
}

// ReplaySince returns buffered events after the given event ID.
// An empty lastEventID returns nothing (replay is opt-in on reconnect).
func (b *Bus) ReplaySince(lastEventID string, filter Filter) []Event {
	if lastEventID == "" {
		return nil
	}

	b.ringMu.RLock()
	defer b.ringMu.RUnlock()

	var out []Event
	found := false
	for i := 0; i < b.ringSize; i++ {
		idx := (b.ringHead + i) % b.ringSize
		e := b.ring[idx]
		if e.ID == "" {
			continue
		}
		if !found {
			if e.ID == lastEventID {
				found = true
			}
			continue
		}
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out
}
