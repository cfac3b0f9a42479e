// Package sse streams index change notifications to HTTP clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	TypeFileIndexed    = "file.indexed"
	TypeFileRemoved    = "file.removed"
	TypeSummaryUpdated = "summary.updated"
	TypeCacheCleared   = "cache.cleared"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type fileChange struct {
	kind string
	path string
}

// Broker fans events out to subscribed clients. A single loop goroutine owns
// the client set and the summary throttle; public methods talk to it over
// channels.
type Broker struct {
	summaryEvery time.Duration

	subscribe   chan chan []byte
	unsubscribe chan chan []byte
	publish     chan Event
	changes     chan fileChange
	count       chan chan int

	stop    chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a Broker that emits at most one summary.updated event per
// summaryEvery.
func NewBroker(summaryEvery time.Duration) *Broker {
	if summaryEvery <= 0 {
		summaryEvery = 2 * time.Second
	}
	b := &Broker{
		summaryEvery: summaryEvery,
		subscribe:    make(chan chan []byte),
		unsubscribe:  make(chan chan []byte),
		publish:      make(chan Event, 256),
		changes:      make(chan fileChange, 256),
		count:        make(chan chan int),
		stop:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	go b.loop()
	return b
}

func encode(ev Event) ([]byte, bool) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, false
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, payload)), true
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastSummary time.Time

	send := func(ev Event) {
		msg, ok := encode(ev)
		if !ok {
			return
		}
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// Slow client: drop rather than stall every other subscriber.
			}
		}
	}

	for {
		select {
		case <-b.stop:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribe:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribe:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.publish:
			send(ev)

		case c := <-b.changes:
			data := map[string]string{"path": c.path}
			if c.kind == "deleted" {
				send(Event{Type: TypeFileRemoved, Data: data})
			} else {
				send(Event{Type: TypeFileIndexed, Data: data})
			}
			if now := time.Now(); now.Sub(lastSummary) >= b.summaryEvery {
				lastSummary = now
				send(Event{Type: TypeSummaryUpdated, Data: map[string]string{}})
			}

		case resp := <-b.count:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel. It is idempotent.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stop)
	}
	<-b.stopped
}

// Subscribe registers a client. The returned channel is closed on Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribe <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribe <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.count <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publish <- ev:
	case <-b.stopped:
	}
}

// FileChanged matches index.EventCallback: it announces a re-indexed or
// removed file plus a throttled summary.updated event.
func (b *Broker) FileChanged(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changes <- fileChange{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
