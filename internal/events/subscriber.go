package events

// Message is a raw payload received on a subject.
type Message struct {
	Subject string
	Data    []byte
}

// Subscriber receives messages from the bus.
type Subscriber interface {
	// Subscribe delivers messages from every subject on one channel, in
	// the order they are handed over by the transport.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(subjects ...string) (<-chan Message, func(), error)
	Close() error
}
