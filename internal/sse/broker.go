// Package sse streams committed note changes to browsers as Server-Sent
// Events.
package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/notesd/internal/metrics"
	"github.com/starford/notesd/internal/notes"
)

// ChangedEvent is the throttled summary event telling clients that listings
// may be stale.
const ChangedEvent = "notes.changed"

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Options configure a Broker.
type Options struct {
	// Throttle is the minimum gap between two notes.changed events.
	Throttle time.Duration
	// Heartbeat is the interval of keep-alive comments; zero disables them.
	Heartbeat time.Duration
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal loop owns the client set and the throttle timestamp.
// Public methods talk to it over channels, so no mutexes are needed.
type Broker struct {
	throttle  time.Duration
	heartbeat time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	noteEventCh   chan notes.Event
	countReqCh    chan chan int

	dropped atomic.Int64
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker and starts its loop.
func NewBroker(opts Options) *Broker {
	if opts.Throttle <= 0 {
		opts.Throttle = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	b := &Broker{
		throttle:      opts.Throttle,
		heartbeat:     opts.Heartbeat,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		noteEventCh:   make(chan notes.Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastChanged time.Time

	var tick <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	send := func(raw []byte) {
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking the loop.
			}
		}
	}
	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			b.logger.Warn("sse: marshal event", slog.String("type", event.Type), slog.String("error", err.Error()))
			return
		}
		send([]byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)))
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case e := <-b.noteEventCh:
			data := map[string]any{"id": e.NoteID}
			if e.Note != nil {
				data["note"] = e.Note
			}
			broadcast(Event{Type: string(e.Type), Data: data})

			now := time.Now()
			if now.Sub(lastChanged) >= b.throttle {
				lastChanged = now
				broadcast(Event{Type: ChangedEvent, Data: map[string]string{}})
			}

		case <-tick:
			send([]byte(": ping\n\n"))

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
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
	case b.unsubscribeCh <- ch:
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
	case b.countReqCh <- resp:
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
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// Notify forwards a committed note change followed by a throttled
// notes.changed event. It never blocks: it is registered with
// notes.Service.Subscribe and runs on the writer's goroutine, so a full
// queue drops the event.
func (b *Broker) Notify(e notes.Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.noteEventCh <- e:
	default:
		if n := b.dropped.Add(1); n == 1 || n%100 == 0 {
			b.logger.Warn("sse: event queue full, dropping", slog.Int64("dropped", n))
		}
	}
}

// ServeHTTP is the SSE endpoint handler (GET /events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)
	b.metrics.SSEClientConnected()
	defer b.metrics.SSEClientDisconnected()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
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
