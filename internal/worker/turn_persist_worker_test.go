package worker

import (
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Gopikaa27/Rag-Agent/internal/model"
)

type fakeTurnWriter struct {
	failures int
	calls    int
	written  [][]model.Turn
}

func (f *fakeTurnWriter) CreateBatch(turns []model.Turn) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("mysql gone")
	}
	f.written = append(f.written, turns)
	return nil
}

type fakeToucher struct {
	touched []uint
}

func (f *fakeToucher) Touch(sessionID uint) error {
	f.touched = append(f.touched, sessionID)
	return nil
}

type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func pairDelivery(t *testing.T, ack amqp.Acknowledger) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal([]model.Turn{
		{SessionID: 7, UserID: 1, Role: model.RoleUser, Content: "q"},
		{SessionID: 7, UserID: 1, Role: model.RoleAssistant, Content: "a"},
	})
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func newTestWorker(writer TurnWriter, toucher SessionToucher) *TurnPersistWorker {
	return NewTurnPersistWorker(nil, writer, toucher, "turns", zap.NewNop())
}

func TestHandleWritesPairAsOneBatch(t *testing.T) {
	writer := &fakeTurnWriter{}
	toucher := &fakeToucher{}
	ack := &fakeAcknowledger{}

	newTestWorker(writer, toucher).handle(pairDelivery(t, ack))

	require.Len(t, writer.written, 1)
	require.Len(t, writer.written[0], 2)
	assert.Equal(t, model.RoleUser, writer.written[0][0].Role)
	assert.Equal(t, model.RoleAssistant, writer.written[0][1].Role)
	assert.Equal(t, []uint{7}, toucher.touched)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestHandleRetriesTransientWriteFailure(t *testing.T) {
	writer := &fakeTurnWriter{failures: 2}
	toucher := &fakeToucher{}
	ack := &fakeAcknowledger{}

	newTestWorker(writer, toucher).handle(pairDelivery(t, ack))

	assert.Equal(t, 3, writer.calls)
	require.Len(t, writer.written, 1)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestHandleGivesUpAfterRetriesExhausted(t *testing.T) {
	writer := &fakeTurnWriter{failures: persistAttempts}
	toucher := &fakeToucher{}
	ack := &fakeAcknowledger{}

	newTestWorker(writer, toucher).handle(pairDelivery(t, ack))

	assert.Equal(t, persistAttempts, writer.calls)
	assert.Empty(t, writer.written)
	assert.Empty(t, toucher.touched)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
	assert.False(t, ack.acked)
}

func TestHandleRejectsMalformedBody(t *testing.T) {
	writer := &fakeTurnWriter{}
	ack := &fakeAcknowledger{}

	newTestWorker(writer, &fakeToucher{}).handle(amqp.Delivery{Acknowledger: ack, Body: []byte("not json")})

	assert.Zero(t, writer.calls)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}
