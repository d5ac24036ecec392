// Package bus provides the event bus client used by the orchestration worker.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event types and resume actions carried in the envelope.
const (
	TypeChat   = "CHAT"
	TypeResume = "RESUME"

	ActionApproved = "APPROVED"
	ActionRejected = "REJECTED"
)

// Event is the inbound envelope for worker events.
// CHAT events carry AgentID, Message and optionally DBMessageID.
// RESUME events carry TaskID, AgentID and Action.
type Event struct {
	Type        string            `json:"type"`
	TraceID     string            `json:"traceId,omitempty"`
	AgentID     string            `json:"agentId,omitempty"`
	Message     string            `json:"message,omitempty"`
	DBMessageID string            `json:"dbMessageId,omitempty"`
	TaskID      string            `json:"taskId,omitempty"`
	Action      string            `json:"action,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Timestamp   time.Time         `json:"timestamp,omitempty"`
}

// Delivery is one in-flight message. Exactly one of Ack or Nack must be
// called; Ack removes the message from the queue, Nack makes it eligible for
// redelivery until the client's attempt limit diverts it to the dead-letter
// channel.
type Delivery struct {
	Body    []byte
	Attempt int // 1-based delivery attempt

	ack  func(ctx context.Context) error
	nack func(ctx context.Context) error
}

// Decode parses the envelope from the delivery body.
func (d *Delivery) Decode() (*Event, error) {
	var evt Event
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &evt, nil
}

// Ack permanently removes the message from the queue.
func (d *Delivery) Ack(ctx context.Context) error {
	if d.ack == nil {
		return nil
	}
	return d.ack(ctx)
}

// Nack makes the message eligible for redelivery.
func (d *Delivery) Nack(ctx context.Context) error {
	if d.nack == nil {
		return nil
	}
	return d.nack(ctx)
}

// Client delivers at-most-one-in-flight message per Receive call.
type Client interface {
	// Receive blocks until a message is available or the context is done.
	Receive(ctx context.Context) (*Delivery, error)
	// Close releases bus resources.
	Close() error
}

// Publisher emits events onto the bus. The governance surface uses it to
// publish RESUME events after a human decision.
type Publisher interface {
	Publish(ctx context.Context, evt *Event) error
}
