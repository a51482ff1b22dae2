package consumer

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/xpkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAck struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue bool
}

func (f *fakeAck) Ack(bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked++
	return nil
}

func (f *fakeAck) Nack(_, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked++
	f.requeue = requeue
	return nil
}

func TestProcessPrintsAndAcks(t *testing.T) {
	out := &bytes.Buffer{}
	s := NewSubscriber(nil, out, 0, logger.Discard())

	event := dto.RefreshEvent{
		Event:     dto.EventTableSessionsUpdated,
		SessionID: uuid.New(),
		TableID:   uuid.New(),
		Timestamp: time.Date(2026, 10, 17, 20, 15, 0, 0, time.UTC),
	}
	body, err := json.Marshal(event)
	require.NoError(t, err)

	ack := &fakeAck{}
	s.process(body, ack)

	assert.Equal(t, 1, ack.acked)
	assert.Zero(t, ack.nacked)
	assert.Contains(t, out.String(), "[20:15:00] table-sessions-updated")
	assert.Contains(t, out.String(), event.SessionID.String())
}

func TestProcessDropsGarbage(t *testing.T) {
	out := &bytes.Buffer{}
	s := NewSubscriber(nil, out, 2, logger.Discard())

	ack := &fakeAck{}
	s.process([]byte("{not json"), ack)

	assert.Zero(t, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
	assert.Empty(t, out.String())
}
