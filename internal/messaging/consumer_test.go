package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/translation-sim/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

func newStatusMessage(t *testing.T, event statusChanged) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

func noopHandler(context.Context, *statusChanged) error { return nil }

func (e *statusChanged) LogFields() []zap.Field {
	return []zap.Field{zap.String("job_id", e.JobID)}
}

func TestConsumer_Start(t *testing.T) {
	t.Run("starts successfully", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(sub, "jobs.events", noopHandler, zap.NewNop())

		err := consumer.Start(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "jobs.events", consumer.Topic())

		require.NoError(t, consumer.Shutdown())
	})

	t.Run("returns error when subscribe fails and still shuts down", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		consumer := messaging.NewConsumer(sub, "jobs.events", noopHandler, zap.NewNop())

		err := consumer.Start(context.Background())

		require.Error(t, err)
		assert.NoError(t, consumer.Shutdown())
	})
}

func TestConsumer_HandleMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload func(t *testing.T) *message.Message
		handler messaging.Handler[statusChanged]
		wantAck bool
	}{
		{
			name: "acks on successful handling",
			payload: func(t *testing.T) *message.Message {
				return newStatusMessage(t, statusChanged{JobID: "job123", Status: "completed"})
			},
			handler: func(_ context.Context, event *statusChanged) error {
				if event.JobID != "job123" || event.Status != "completed" {
					return errors.New("unexpected event")
				}

				return nil
			},
			wantAck: true,
		},
		{
			name: "nacks on unmarshal error",
			payload: func(_ *testing.T) *message.Message {
				return message.NewMessage(uuid.NewString(), []byte("invalid json"))
			},
			handler: noopHandler,
			wantAck: false,
		},
		{
			name: "nacks on handler error",
			payload: func(t *testing.T) *message.Message {
				return newStatusMessage(t, statusChanged{JobID: "job123"})
			},
			handler: func(context.Context, *statusChanged) error { return errors.New("handler error") },
			wantAck: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := newMockSubscriber()
			consumer := messaging.NewConsumer(sub, "jobs.events", tt.handler, zap.NewNop())
			require.NoError(t, consumer.Start(context.Background()))

			msg := tt.payload(t)
			sub.msgChan <- msg

			select {
			case <-msg.Acked():
				assert.True(t, tt.wantAck, "message should have been nacked")
			case <-msg.Nacked():
				assert.False(t, tt.wantAck, "message should have been acked")
			case <-time.After(time.Second):
				t.Fatal("timeout waiting for ack or nack")
			}

			_ = consumer.Shutdown()
		})
	}
}

func TestConsumer_StopsWhenChannelCloses(t *testing.T) {
	sub := newMockSubscriber()
	consumer := messaging.NewConsumer(sub, "jobs.events", noopHandler, zap.NewNop())
	require.NoError(t, consumer.Start(context.Background()))

	require.NoError(t, sub.Close())

	done := make(chan struct{})

	go func() {
		_ = consumer.Shutdown()

		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not return")
	}
}

func TestConsumer_LogsEventFields(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	sub := newMockSubscriber()
	handler := func(context.Context, *statusChanged) error { return errors.New("insert failed") }
	consumer := messaging.NewConsumer(sub, "jobs.events", handler, zap.New(core))
	require.NoError(t, consumer.Start(context.Background()))

	msg := newStatusMessage(t, statusChanged{JobID: "job123", Status: "error"})
	sub.msgChan <- msg

	select {
	case <-msg.Nacked():
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for nack")
	}

	require.NoError(t, consumer.Shutdown())

	entries := logs.FilterMessage("event not processed, nacking").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "job123", fields["job_id"])
	assert.Equal(t, "jobs.events", fields["topic"])
	assert.Equal(t, msg.UUID, fields["message_id"])
	assert.Contains(t, fields["error"], "insert failed")
}
