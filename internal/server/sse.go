package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/laptimer/internal/events"
)

const (
	// sseRingBufferSize is how many recent events are kept for
	// Last-Event-ID replay.
	sseRingBufferSize = 256

	// sseClientBuffer is the per-client queue. A client that falls this far
	// behind misses events rather than stalling the correlator.
	sseClientBuffer = 64

	sseKeepaliveInterval = 15 * time.Second
)

// sseEvent is one event as sent to stream clients.
type sseEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// sseClient is one connected /laps/stream consumer.
type sseClient struct {
	filter topicFilter
	ch     chan *sseEvent
}

// sseHub fans published events out to stream clients and remembers the
// last sseRingBufferSize of them.
type sseHub struct {
	mu      sync.Mutex
	lastID  uint64
	clients map[*sseClient]struct{}
	replay  replayBuffer
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

func (h *sseHub) broadcast(topic string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastID++
	evt := &sseEvent{ID: h.lastID, Topic: topic, Data: payload}
	h.replay.push(evt)

	for c := range h.clients {
		if !c.filter.match(topic) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
		}
	}
}

func (h *sseHub) subscribe(topics []string) *sseClient {
	c := &sseClient{filter: topicFilter(topics), ch: make(chan *sseEvent, sseClientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// eventsSince returns the remembered events newer than lastID, oldest first.
func (h *sseHub) eventsSince(lastID uint64) []*sseEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.replay.since(lastID)
}

// replayBuffer is a fixed-size ring of the most recent events.
type replayBuffer struct {
	buf  [sseRingBufferSize]*sseEvent
	next int
	full bool
}

func (b *replayBuffer) push(evt *sseEvent) {
	b.buf[b.next] = evt
	b.next = (b.next + 1) % sseRingBufferSize
	if b.next == 0 {
		b.full = true
	}
}

func (b *replayBuffer) since(lastID uint64) []*sseEvent {
	var out []*sseEvent
	start, n := 0, b.next
	if b.full {
		start, n = b.next, sseRingBufferSize
	}
	for i := range n {
		evt := b.buf[(start+i)%sseRingBufferSize]
		if evt.ID > lastID {
			out = append(out, evt)
		}
	}
	return out
}

// topicFilter is a list of NATS-style subject patterns. Empty matches all.
type topicFilter []string

func (f topicFilter) match(topic string) bool {
	if len(f) == 0 {
		return true
	}
	for _, p := range f {
		if matchTopicPattern(p, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches dot-separated tokens. "*" matches exactly one
// token; a trailing ">" matches one or more.
func matchTopicPattern(pattern, topic string) bool {
	pat := strings.Split(pattern, ".")
	tok := strings.Split(topic, ".")
	for i, p := range pat {
		switch {
		case p == ">" && i == len(pat)-1:
			return len(tok) > i
		case i >= len(tok):
			return false
		case p != "*" && p != tok[i]:
			return false
		}
	}
	return len(pat) == len(tok)
}

// streamTopics reads ?topics=a,b. Without it only recorded laps are sent.
func streamTopics(r *http.Request) []string {
	q := r.URL.Query().Get("topics")
	if q == "" {
		return []string{events.TopicLapRecorded}
	}
	var topics []string
	for _, t := range strings.Split(q, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// handleEventStream handles GET /laps/stream.
func (s *LapServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	client := s.sseHub.subscribe(streamTopics(r))
	defer s.sseHub.unsubscribe(client)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Subscribing before replaying can deliver an event twice; clients
	// dedupe by id.
	if lastID, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		for _, evt := range s.sseHub.eventsSince(lastID) {
			if client.filter.match(evt.Topic) {
				writeSSEEvent(w, evt)
			}
		}
	}
	flusher.Flush()

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-client.ch:
			writeSSEEvent(w, evt)
		case <-keepalive.C:
			io.WriteString(w, ":keepalive\n\n")
		}
		flusher.Flush()
	}
}

func writeSSEEvent(w io.Writer, evt *sseEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}

// broadcastEvent encodes event and hands it to the SSE hub.
func (s *LapServer) broadcastEvent(topic string, event any) {
	if s.sseHub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event for SSE broadcast", "topic", topic, "err", err)
		return
	}
	s.sseHub.broadcast(topic, payload)
}
