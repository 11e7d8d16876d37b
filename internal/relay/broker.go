// Package relay pushes dashboard session events to the browser over SSE or
// WebSocket.
package relay

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

const subscriberBufSize = 64

// Event is one orchestrator transition or report for a session.
type Event struct {
	Session string    `json:"session_id"`
	Kind    string    `json:"kind"`
	At      time.Time `json:"at"`
	Data    any       `json:"data,omitempty"`
}

// Encode renders the event as a JSON line.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

type subscriber struct {
	session string
	ch      chan Event
}

// Broker fans out events to the subscribers of each session.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]subscriber
	nextID      atomic.Int64
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int64]subscriber),
	}
}

// Subscribe registers a client for one session's events. The channel is
// buffered; slow consumers have events dropped.
func (b *Broker) Subscribe(sessionID string) (int64, <-chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[id] = subscriber{session: sessionID, ch: ch}
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(sub.ch)
	}
	b.mu.Unlock()
}

// CloseSession drops every subscriber of sessionID, ending their streams.
func (b *Broker) CloseSession(sessionID string) {
	b.mu.Lock()
	for id, sub := range b.subscribers {
		if sub.session == sessionID {
			delete(b.subscribers, id)
			close(sub.ch)
		}
	}
	b.mu.Unlock()
}

// Publish sends evt to the subscribers of evt.Session without blocking.
func (b *Broker) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		if sub.session != evt.Session {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// ClientCount returns the number of subscribers of sessionID.
func (b *Broker) ClientCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, sub := range b.subscribers {
		if sub.session == sessionID {
			n++
		}
	}
	return n
}
