package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/translation-sim/internal/audit"
	"github.com/serroba/translation-sim/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingStore struct {
	events []*jobs.Event
	err    error
}

func (s *recordingStore) SaveJobEvent(_ context.Context, event *jobs.Event) error {
	if s.err != nil {
		return s.err
	}

	s.events = append(s.events, event)

	return nil
}

func TestNewHandler(t *testing.T) {
	t.Run("saves valid events", func(t *testing.T) {
		store := &recordingStore{}
		handler := audit.NewHandler(store, zap.NewNop())

		event := &jobs.Event{
			JobID:      "job123",
			Type:       jobs.EventCompleted,
			Status:     jobs.StatusCompleted,
			OccurredAt: time.Now(),
		}

		require.NoError(t, handler(context.Background(), event))
		require.Len(t, store.events, 1)
		assert.Same(t, event, store.events[0])
	})

	t.Run("returns store errors so the message is nacked", func(t *testing.T) {
		storeErr := errors.New("insert failed")
		handler := audit.NewHandler(&recordingStore{err: storeErr}, zap.NewNop())

		err := handler(context.Background(), &jobs.Event{JobID: "job123", Type: jobs.EventFailed})

		assert.ErrorIs(t, err, storeErr)
	})

	tests := []struct {
		name  string
		event *jobs.Event
	}{
		{name: "missing job id", event: &jobs.Event{Type: jobs.EventCompleted}},
		{name: "unknown type", event: &jobs.Event{JobID: "job123", Type: "deleted"}},
	}

	for _, tt := range tests {
		t.Run("drops "+tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			store := &recordingStore{}
			handler := audit.NewHandler(store, zap.New(core))

			require.NoError(t, handler(context.Background(), tt.event))
			assert.Empty(t, store.events)
			assert.Equal(t, 1, logs.FilterMessage("dropping malformed job event").Len())
		})
	}
}
