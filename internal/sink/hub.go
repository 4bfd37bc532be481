package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Hub keeps the latest reading and fans readings out to live subscribers as
// JSON. Slow subscribers drop readings instead of blocking the writer.
type Hub struct {
	mu     sync.RWMutex
	latest *Reading
	subs   map[chan []byte]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 8
	}
	return &Hub{subs: make(map[chan []byte]struct{}), buffer: buffer}
}

func (h *Hub) Name() string {
	return "stream"
}

func (h *Hub) Write(_ context.Context, r Reading) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = &r
	for ch := range h.subs {
		select {
		case ch <- body:
		default:
		}
	}
	return nil
}

// Latest returns the most recent reading, if any.
func (h *Hub) Latest() (Reading, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return Reading{}, false
	}
	return *h.latest, true
}

// Subscribe returns a channel of encoded readings and its cancel func.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, h.buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
