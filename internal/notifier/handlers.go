package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/engine"
	"github.com/shaiso/Procedura/internal/mq"
	"github.com/shaiso/Procedura/internal/procedure"
	"github.com/shaiso/Procedura/internal/telemetry"
)

// Handle обрабатывает одно сообщение из очереди progress.step_completed.
func (n *Notifier) Handle(ctx context.Context, delivery *mq.Delivery) error {
	if delivery.Message.Type != mq.MessageTypeStepCompleted {
		n.logger.Debug("ignoring message", "type", delivery.Message.Type)
		return nil
	}

	payload, err := mq.ParsePayload[mq.StepEventPayload](&delivery.Message)
	if err != nil {
		return mq.Permanent(fmt.Errorf("parse step_completed payload: %w", err))
	}
	if payload.UserID == uuid.Nil || payload.FlowID == uuid.Nil {
		return mq.Permanent(fmt.Errorf("%w: message %s", ErrInvalidEvent, delivery.Message.ID))
	}

	logger := telemetry.WithFlowID(telemetry.WithUserID(n.logger, payload.UserID), payload.FlowID)

	detail, err := n.flows.GetFlowDetail(ctx, payload.FlowID, uuid.Nil, &payload.UserID)
	switch {
	case errors.Is(err, procedure.ErrNotFound):
		logger.Warn("flow not found for completed step, skipping", "step_id", payload.StepID)
		return nil
	case engine.IsConfigurationError(err):
		return mq.Permanent(err)
	case err != nil:
		return fmt.Errorf("resolve flow: %w", err)
	}

	note := Notification{
		UserID:        payload.UserID,
		FlowID:        payload.FlowID,
		FlowName:      detail.Flow.Name,
		CompletedStep: payload.StepID,
		Startable:     stillStartable(detail.Resolution, payload.Unblocked),
		FlowComplete:  detail.Stats.IsComplete,
	}
	if len(note.Startable) == 0 && !note.FlowComplete {
		logger.Debug("nothing to notify", "step_id", payload.StepID)
		return nil
	}

	if err := n.sink.Notify(ctx, note); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	telemetry.UnlockNotifications.Inc()
	return nil
}

// stillStartable оставляет из ids шаги, которые по-прежнему можно начать.
func stillStartable(res *engine.Resolution, ids []uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range ids {
		if state, ok := res.Step(id); ok && state.CanStart {
			out = append(out, id)
		}
	}
	return out
}
