package notifier

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/mq"
	"github.com/shaiso/Procedura/internal/procedure"
)

const defaultPrefetch = 10

// FlowResolver разрешает процедуру для пользователя.
// Реализуется *procedure.Service.
type FlowResolver interface {
	GetFlowDetail(ctx context.Context, flowID, universityID uuid.UUID, userID *uuid.UUID) (*procedure.FlowDetail, error)
}

// Notification — уведомление пользователю.
type Notification struct {
	UserID uuid.UUID
	FlowID uuid.UUID

	// FlowName — название процедуры для текста уведомления.
	FlowName string

	// Startable — шаги, ставшие доступными после завершения CompletedStep.
	Startable []uuid.UUID

	CompletedStep uuid.UUID

	// FlowComplete — все обязательные шаги завершены.
	FlowComplete bool
}

// Sink доставляет уведомления.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// LogSink пишет уведомления в лог.
type LogSink struct {
	Logger *slog.Logger
}

// Notify реализует Sink.
func (s LogSink) Notify(_ context.Context, n Notification) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("steps available",
		"user_id", n.UserID,
		"flow_id", n.FlowID,
		"flow", n.FlowName,
		"completed_step_id", n.CompletedStep,
		"startable", n.Startable,
		"flow_complete", n.FlowComplete,
	)
	return nil
}

// Notifier потребляет события завершения шагов.
type Notifier struct {
	flows    FlowResolver
	sink     Sink
	conn     *mq.Connection
	prefetch int
	logger   *slog.Logger

	consumer *mq.Consumer
}

// Config — конфигурация Notifier.
type Config struct {
	Flows FlowResolver

	// Sink — получатель уведомлений (default: LogSink).
	Sink Sink

	// Conn — соединение с RabbitMQ. Нужно только для Run.
	Conn *mq.Connection

	// Prefetch — prefetch consumer'а (default: 10).
	Prefetch int

	Logger *slog.Logger
}

// New создаёт Notifier.
func New(cfg Config) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = LogSink{Logger: logger}
	}
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	return &Notifier{
		flows:    cfg.Flows,
		sink:     sink,
		conn:     cfg.Conn,
		prefetch: prefetch,
		logger:   logger.With("component", "notifier"),
	}
}

// Run потребляет progress.step_completed до отмены ctx.
func (n *Notifier) Run(ctx context.Context) error {
	n.consumer = mq.NewConsumer(n.conn, n.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueStepCompleted),
		Handler:  n.Handle,
		Prefetch: n.prefetch,
	})

	n.logger.Info("notifier started", "prefetch", n.prefetch)
	err := n.consumer.Run(ctx)
	n.logger.Info("notifier stopped")
	return err
}

// Stop останавливает consumer.
func (n *Notifier) Stop() {
	if n.consumer != nil {
		n.consumer.Stop()
	}
}
