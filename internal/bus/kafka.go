package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/segmentio/kafka-go"
)

const attemptsHeader = "delivery-attempts"

// KafkaClient implements Client and Publisher using segmentio/kafka-go.
//
// Redelivery works by republishing: Nack writes the message back to the main
// topic with an incremented attempt header and commits the original offset.
// Once the attempt count reaches the configured limit the message is written
// to the dead-letter topic instead.
type KafkaClient struct {
	reader          *kafka.Reader
	writer          *kafka.Writer
	topic           string
	deadLetterTopic string
	maxAttempts     int
}

// KafkaOptions configures a KafkaClient.
type KafkaOptions struct {
	Brokers         string // comma-separated
	Topic           string
	DeadLetterTopic string
	ConsumerGroup   string
	MaxAttempts     int
}

// NewKafkaClient creates a bus client for the given topic.
func NewKafkaClient(opts KafkaOptions) *KafkaClient {
	brokers := strings.Split(opts.Brokers, ",")
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &KafkaClient{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    opts.Topic,
			GroupID:  opts.ConsumerGroup,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
		topic:           opts.Topic,
		deadLetterTopic: opts.DeadLetterTopic,
		maxAttempts:     maxAttempts,
	}
}

// Receive fetches the next message without committing it.
func (c *KafkaClient) Receive(ctx context.Context) (*Delivery, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}

	attempt := headerInt(msg.Headers, attemptsHeader) + 1
	return &Delivery{
		Body:    msg.Value,
		Attempt: attempt,
		ack: func(ctx context.Context) error {
			return c.reader.CommitMessages(ctx, msg)
		},
		nack: func(ctx context.Context) error {
			if err := c.redeliver(ctx, msg, attempt); err != nil {
				return err
			}
			return c.reader.CommitMessages(ctx, msg)
		},
	}, nil
}

// redeliver republishes the message for another attempt, or diverts it to the
// dead-letter topic when the attempt limit is reached.
func (c *KafkaClient) redeliver(ctx context.Context, msg kafka.Message, attempt int) error {
	target := c.topic
	if attempt >= c.maxAttempts {
		target = c.deadLetterTopic
		slog.Warn("Delivery limit reached, dead-lettering message",
			"topic", c.topic, "dlq", target, "attempts", attempt)
	}
	if target == "" {
		// No dead-letter topic configured: drop with a log. Manual
		// inspection is not possible, but endless redelivery is worse.
		slog.Error("Dropping message with no dead-letter topic", "topic", c.topic)
		return nil
	}
	out := kafka.Message{
		Topic: target,
		Key:   msg.Key,
		Value: msg.Value,
		Headers: []kafka.Header{{
			Key:   attemptsHeader,
			Value: []byte(strconv.Itoa(attempt)),
		}},
	}
	if err := c.writer.WriteMessages(ctx, out); err != nil {
		return fmt.Errorf("republish to %s: %w", target, err)
	}
	return nil
}

// Publish emits an event onto the main topic.
func (c *KafkaClient) Publish(ctx context.Context, evt *Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Topic: c.topic,
		Key:   []byte(evt.AgentID),
		Value: body,
	}
	if err := c.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close stops the reader and writer.
func (c *KafkaClient) Close() error {
	rerr := c.reader.Close()
	werr := c.writer.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

func headerInt(headers []kafka.Header, key string) int {
	for _, h := range headers {
		if h.Key == key {
			if n, err := strconv.Atoi(string(h.Value)); err == nil {
				return n
			}
		}
	}
	return 0
}
