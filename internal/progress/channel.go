package progress

import "sync"

// Message is one update delivered to the presentation side.
type Message struct {
	Snapshot Snapshot
}

// Terminal reports whether this is the final message of the batch.
func (m Message) Terminal() bool {
	return m.Snapshot.State.Terminal()
}

// Channel is an ordered, lossless conduit from one producer to one consumer.
// Post blocks rather than drops when the buffer is full; sizing the buffer
// to the number of messages a batch can emit keeps the producer from ever
// waiting on the consumer.
type Channel struct {
	ch        chan Message
	closeOnce sync.Once
}

func NewChannel(capacity int) *Channel {
	if capacity < 0 {
		capacity = 0
	}
	return &Channel{ch: make(chan Message, capacity)}
}

// Post enqueues a snapshot.
func (c *Channel) Post(snap Snapshot) {
	c.ch <- Message{Snapshot: snap}
}

// Close signals that no further messages will be posted.
func (c *Channel) Close() {
	c.closeOnce.Do(func() { close(c.ch) })
}

// Messages returns the receive side. It is closed after the terminal message.
func (c *Channel) Messages() <-chan Message {
	return c.ch
}

// Drain blocks until the channel closes and returns every message received.
func (c *Channel) Drain() []Message {
	var out []Message
	for msg := range c.ch {
		out = append(out, msg)
	}
	return out
}
