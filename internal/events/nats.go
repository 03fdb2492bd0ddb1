package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// subscriptionBuffer is the capacity of the channel shared by all subjects
// of one Subscribe call.
const subscriptionBuffer = 256

// NATSPublisher publishes events to NATS subjects as JSON.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return p.conn.Publish(topic, data)
}

// PublishRaw publishes payload unchanged. Used to simulate gate stations.
func (p *NATSPublisher) PublishRaw(subject string, payload []byte) error {
	if err := p.conn.Publish(subject, payload); err != nil {
		return err
	}
	return p.conn.Flush()
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber subscribes to gate messages on NATS subjects.
type NATSSubscriber struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSSubscriber connects to NATS with automatic reconnection support.
// Extra nats.Option values (e.g. disconnect/reconnect handlers) can be appended.
func NewNATSSubscriber(url string, logger *slog.Logger, opts ...nats.Option) (*NATSSubscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats: disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats: reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Warn("nats: async error", "subject", subject, "err", err)
		}),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSSubscriber{conn: nc, logger: logger}, nil
}

// Subscribe returns a single channel that receives messages for all the
// given subjects. Call the returned cancel function to unsubscribe and
// close the channel.
func (s *NATSSubscriber) Subscribe(subjects ...string) (<-chan Message, func(), error) {
	raw := make(chan *nats.Msg, subscriptionBuffer)
	out := make(chan Message)

	var subs []*nats.Subscription
	unsubscribeAll := func() {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
	}

	for _, subject := range subjects {
		// Channel subscriptions are fed from the connection's read loop,
		// so messages on different subjects keep their wire order. When
		// raw is full the client drops the message and reports a slow
		// consumer through the async error handler.
		sub, err := s.conn.ChanSubscribe(subject, raw)
		if err != nil {
			unsubscribeAll()
			return nil, nil, fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}
	// Flush ensures the subscriptions are registered on the server before
	// returning, so that messages published on other connections are routed.
	if err := s.conn.Flush(); err != nil {
		unsubscribeAll()
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		defer close(out)
		for {
			select {
			case <-done:
				return
			case msg := <-raw:
				select {
				case out <- Message{Subject: msg.Subject, Data: msg.Data}:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			unsubscribeAll()
			close(done)
			<-stopped
		})
	}

	return out, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
