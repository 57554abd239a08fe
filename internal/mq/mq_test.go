package mq

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload_StepEvent(t *testing.T) {
	unblocked := uuid.New()
	payload := StepEventPayload{
		UserID:     uuid.New(),
		StepID:     uuid.New(),
		FlowID:     uuid.New(),
		Status:     "COMPLETED",
		OccurredAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		Unblocked:  []uuid.UUID{unblocked},
	}

	// Сообщение проходит через JSON так же, как в consumer
	body, err := json.Marshal(NewMessage(MessageTypeStepCompleted, payload))
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(body, &msg))
	assert.Equal(t, MessageTypeStepCompleted, msg.Type)

	got, err := ParsePayload[StepEventPayload](&msg)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestParsePayload_WrongShape(t *testing.T) {
	msg := &Message{Payload: map[string]any{"user_id": 42}}

	_, err := ParsePayload[StepEventPayload](msg)
	assert.Error(t, err)
}

func TestNewMessage(t *testing.T) {
	a := NewMessage(MessageTypeStepStarted, nil)
	b := NewMessage(MessageTypeStepStarted, nil)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.Timestamp.Location())
}

func TestDecide(t *testing.T) {
	transient := errors.New("db down")

	assert.Equal(t, outcomeAck, decide(nil, false))
	assert.Equal(t, outcomeAck, decide(nil, true))
	assert.Equal(t, outcomeRequeue, decide(transient, false))
	assert.Equal(t, outcomeDeadLetter, decide(transient, true))
	assert.Equal(t, outcomeDeadLetter, decide(Permanent(transient), false))
}

func TestPermanent(t *testing.T) {
	base := errors.New("bad payload")
	err := Permanent(base)

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
	assert.NoError(t, Permanent(nil))
}

func TestTopology_CompletedQueueHasDLQ(t *testing.T) {
	var found bool
	for _, q := range topologyQueues {
		if q.name != QueueStepCompleted {
			continue
		}
		found = true
		assert.Equal(t, string(ExchangeDLQ), q.args["x-dead-letter-exchange"])
	}
	assert.True(t, found)

	for _, b := range topologyBindings {
		assert.NotEqual(t, RoutingKeyStepStarted, b.routingKey)
	}
}
