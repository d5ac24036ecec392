package bus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// ChannelClient is an in-process Client/Publisher implementation backed by a
// Go channel. Used in tests and single-process deployments.
type ChannelClient struct {
	ch          chan channelMessage
	maxAttempts int

	mu         sync.Mutex
	deadLetter [][]byte
	closed     bool
}

type channelMessage struct {
	body    []byte
	attempt int
}

// NewChannelClient creates an in-process bus with the given attempt limit.
func NewChannelClient(maxAttempts int) *ChannelClient {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &ChannelClient{
		ch:          make(chan channelMessage, 100),
		maxAttempts: maxAttempts,
	}
}

// Publish enqueues an event for delivery.
func (c *ChannelClient) Publish(_ context.Context, evt *Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if !c.enqueue(channelMessage{body: body, attempt: 1}) {
		return errors.New("bus closed")
	}
	return nil
}

// Send enqueues a raw body (for testing malformed payloads).
func (c *ChannelClient) Send(body []byte) {
	c.enqueue(channelMessage{body: body, attempt: 1})
}

// enqueue sends under the mutex so Close cannot race the send and panic.
// Reports false when the queue is already closed.
func (c *ChannelClient) enqueue(msg channelMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.ch <- msg
	return true
}

// Receive blocks until a message is available or the context is done.
func (c *ChannelClient) Receive(ctx context.Context) (*Delivery, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-c.ch:
		if !ok {
			return nil, context.Canceled
		}
		return &Delivery{
			Body:    msg.body,
			Attempt: msg.attempt,
			ack:     func(context.Context) error { return nil },
			nack: func(context.Context) error {
				c.redeliver(msg)
				return nil
			},
		}, nil
	}
}

func (c *ChannelClient) redeliver(msg channelMessage) {
	if msg.attempt >= c.maxAttempts {
		c.mu.Lock()
		c.deadLetter = append(c.deadLetter, msg.body)
		c.mu.Unlock()
		return
	}
	c.enqueue(channelMessage{body: msg.body, attempt: msg.attempt + 1})
}

// DeadLetters returns bodies diverted after exceeding the attempt limit.
func (c *ChannelClient) DeadLetters() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.deadLetter))
	copy(out, c.deadLetter)
	return out
}

// Pending returns the number of queued messages.
func (c *ChannelClient) Pending() int {
	return len(c.ch)
}

// Close closes the queue.
func (c *ChannelClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	return nil
}
