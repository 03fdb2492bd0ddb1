package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alfredjeanlab/laptimer/internal/model"
	"github.com/nats-io/nats.go"
)

var (
	_ Publisher = (*NoopPublisher)(nil)
	_ Publisher = (*NATSPublisher)(nil)
)

func TestNoopPublisher(t *testing.T) {
	pub := &NoopPublisher{}
	if err := pub.Publish(context.Background(), TopicLapRecorded, LapRecorded{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// watch subscribes a plain client to subject and returns its message channel.
func watch(t *testing.T, url, subject string, buffer int) <-chan *nats.Msg {
	t.Helper()
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting watcher: %v", err)
	}
	t.Cleanup(nc.Close)

	ch := make(chan *nats.Msg, buffer)
	if _, err := nc.ChanSubscribe(subject, ch); err != nil {
		t.Fatalf("subscribing to %s: %v", subject, err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return ch
}

func newTestPublisher(t *testing.T, url string) *NATSPublisher {
	t.Helper()
	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	t.Cleanup(func() { pub.Close() })
	return pub
}

func receive(t *testing.T, ch <-chan *nats.Msg) *nats.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestNATSPublisher_LapRecorded(t *testing.T) {
	url := startTestNATS(t)
	ch := watch(t, url, TopicLapRecorded, 1)
	pub := newTestPublisher(t, url)

	event := LapRecorded{
		Lap:     &model.Lap{ID: 7, TagID: "tag-1", StartTimeRaw: "10:00:00.00", ElapsedMs: 61230},
		Elapsed: "1:01.23",
	}
	if err := pub.Publish(context.Background(), TopicLapRecorded, event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var got LapRecorded
	if err := json.Unmarshal(receive(t, ch).Data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Lap == nil || got.Lap.TagID != "tag-1" || got.Lap.ElapsedMs != 61230 {
		t.Fatalf("got lap=%+v", got.Lap)
	}
	if got.Elapsed != "1:01.23" {
		t.Errorf("elapsed = %q, want 1:01.23", got.Elapsed)
	}
}

func TestNATSPublisher_TopicsInOrder(t *testing.T) {
	url := startTestNATS(t)
	ch := watch(t, url, "laptimer.>", 5)
	pub := newTestPublisher(t, url)

	published := []struct {
		topic string
		event any
	}{
		{TopicLapRecorded, LapRecorded{Lap: &model.Lap{ID: 1}}},
		{TopicLapsCleared, Cleared{}},
		{TopicTagUpdated, TagUpdated{Tag: &model.Tag{UUID: "u1", Name: "Alice"}}},
		{TopicTagDeleted, TagDeleted{UUID: "u1"}},
		{TopicTagsCleared, Cleared{}},
	}
	for _, p := range published {
		if err := pub.Publish(context.Background(), p.topic, p.event); err != nil {
			t.Fatalf("Publish(%s): %v", p.topic, err)
		}
	}

	for _, p := range published {
		if msg := receive(t, ch); msg.Subject != p.topic {
			t.Fatalf("subject = %q, want %q", msg.Subject, p.topic)
		}
	}
}

func TestNATSPublisher_PublishRaw(t *testing.T) {
	url := startTestNATS(t)
	ch := watch(t, url, DefaultSubjectStart, 1)
	pub := newTestPublisher(t, url)

	if err := pub.PublishRaw(DefaultSubjectStart, []byte("10:00:00.00")); err != nil {
		t.Fatalf("PublishRaw: %v", err)
	}
	if msg := receive(t, ch); string(msg.Data) != "10:00:00.00" {
		t.Errorf("got %q, want raw payload unchanged", msg.Data)
	}
}

func TestNATSPublisher_PublishAfterClose(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := pub.Publish(context.Background(), TopicLapRecorded, LapRecorded{}); err == nil {
		t.Error("expected error publishing after close")
	}
}
