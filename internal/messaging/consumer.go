package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Handler processes a single decoded event.
type Handler[T any] func(ctx context.Context, event *T) error

// LogFielder is implemented by events that identify themselves in logs.
type LogFielder interface {
	LogFields() []zap.Field
}

// Consumer subscribes to one topic and feeds decoded events to a Handler.
// A message is acked once the handler returns nil and nacked otherwise, so
// the broker redelivers it.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates a consumer of topic.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic)),
		done:       make(chan struct{}),
	}
}

// Topic returns the topic this consumer subscribes to.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and processes messages in the background until ctx is
// cancelled or Shutdown is called.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		close(c.done)

		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}

	go func() {
		defer close(c.done)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				c.settle(msg, c.process(ctx, msg))
			}
		}
	}()

	return nil
}

// delivery is the outcome of processing one message.
type delivery struct {
	fields []zap.Field
	err    error
}

func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) delivery {
	d := delivery{fields: []zap.Field{zap.String("message_id", msg.UUID)}}

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		d.err = fmt.Errorf("decode payload: %w", err)

		return d
	}

	if f, ok := any(&event).(LogFielder); ok {
		d.fields = append(d.fields, f.LogFields()...)
	}

	if err := c.handler(ctx, &event); err != nil {
		d.err = fmt.Errorf("handle event: %w", err)
	}

	return d
}

func (c *Consumer[T]) settle(msg *message.Message, d delivery) {
	if d.err != nil {
		c.logger.Error("event not processed, nacking", append(d.fields, zap.Error(d.err))...)
		msg.Nack()

		return
	}

	msg.Ack()
	c.logger.Debug("processed event", d.fields...)
}

// Shutdown stops the consumer and waits for the in-flight message.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel != nil {
		c.cancel()
	}

	<-c.done

	return nil
}
