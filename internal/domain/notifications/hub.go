package notifications

import (
	"context"
	"sync"
	"time"

	"bistro/pkg/logger"
)

// Hub polls Counts on an interval and fans the snapshot out to subscribers.
// Slow subscribers miss intermediate snapshots rather than block the loop.
type Hub struct {
	service  *Service
	interval time.Duration

	mu     sync.RWMutex
	subs   map[chan Counts]struct{}
	latest *Counts
}

// NewHub creates a hub. A non-positive interval defaults to 10s.
func NewHub(service *Service, interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Hub{
		service:  service,
		interval: interval,
		subs:     make(map[chan Counts]struct{}),
	}
}

// Subscribe registers a listener. The returned func unsubscribes and closes the channel.
// The last known snapshot, if any, is delivered immediately.
func (h *Hub) Subscribe() (<-chan Counts, func()) {
	ch := make(chan Counts, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.latest != nil {
		ch <- *h.latest
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Run polls until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.tick(ctx)
		}
	}
}

func (h *Hub) tick(ctx context.Context) {
	counts, err := h.service.Counts(ctx)
	if err != nil {
		logger.Warn(ctx, "notification counts failed", "error", err)
		return
	}
	h.publish(counts)
}

func (h *Hub) publish(c Counts) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = &c
	for ch := range h.subs {
		select {
		case ch <- c:
		default:
			// Drop the stale value and keep the newest.
			select {
			case <-ch:
			default:
			}
			ch <- c
		}
	}
}
