package runtime

import (
	"context"
	"groupchat/contract"
	"groupchat/domain/event"
	"log/slog"
	"sync"
	"time"
)

const DefaultSinkTimeout = 2 * time.Second

// Hub is the single global room. It maps connection ids to their sinks and
// fans every broadcast out to all of them, best effort.
// A subscriber that is gone simply misses the following events.
type Hub struct {
	mu          sync.RWMutex
	log         *slog.Logger
	sinks       map[string]contract.EventSink // connection id -> sink
	sinkTimeout time.Duration
}

func NewHub(log *slog.Logger, sinkTimeout time.Duration) *Hub {
	if sinkTimeout <= 0 {
		sinkTimeout = DefaultSinkTimeout
	}
	return &Hub{
		log:         log,
		sinks:       make(map[string]contract.EventSink),
		sinkTimeout: sinkTimeout,
	}
}

// SubscribeWith registers the sink of a connection after prime has sent it
// its private events. Broadcasts wait for the whole step, so no live event
// can reach the sink ahead of what prime sends. A nil prime only subscribes.
func (h *Hub) SubscribeWith(ctx context.Context, connID string, sink contract.EventSink,
	prime func(send func(event.DomainEvent) error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prime != nil {
		prime(func(e event.DomainEvent) error {
			return h.consume(ctx, sink, e)
		})
	}
	h.sinks[connID] = sink
}

func (h *Hub) Unsubscribe(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sinks, connID)
}

// Send delivers an event to one connection only.
func (h *Hub) Send(ctx context.Context, connID string, e event.DomainEvent) error {
	h.mu.RLock()
	sink, ok := h.sinks[connID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	return h.consume(ctx, sink, e)
}

// Broadcast delivers an event to every subscriber. Sinks are consumed outside
// the lock so a slow subscriber never blocks Subscribe or Unsubscribe.
func (h *Hub) Broadcast(ctx context.Context, e event.DomainEvent) {
	h.mu.RLock()
	targets := make(map[string]contract.EventSink, len(h.sinks))
	for connID, sink := range h.sinks {
		targets[connID] = sink
	}
	h.mu.RUnlock()

	for connID, sink := range targets {
		if err := h.consume(ctx, sink, e); err != nil {
			h.log.Warn("Event dropped for subscriber", "conn_id", connID, "event", e.Name(), "error", err)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks)
}

func (h *Hub) consume(ctx context.Context, sink contract.EventSink, e event.DomainEvent) error {
	ctx, cancel := context.WithTimeout(ctx, h.sinkTimeout)
	defer cancel()
	return sink.Consume(ctx, e)
}
