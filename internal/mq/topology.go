package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeProgress Exchange = "procedura.progress"
	ExchangeDLQ      Exchange = "procedura.dlq"
)

// Queues — имена очередей.
const (
	QueueStepCompleted Queue = "progress.step_completed"
	QueueDLQProgress   Queue = "dlq.progress"
)

// Routing keys.
const (
	RoutingKeyStepStarted   RoutingKey = "step.started"
	RoutingKeyStepCompleted RoutingKey = "step.completed"
	RoutingKeyDLQProgress   RoutingKey = "progress"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// Объявления, применяемые SetupTopology.
var (
	topologyExchanges = []exchangeDecl{
		{ExchangeProgress, "topic"},
		{ExchangeDLQ, "direct"},
	}

	topologyQueues = []queueDecl{
		// progress.step_completed — с DLQ: событие, не обработанное повторно,
		// уходит в dlq.progress
		{QueueStepCompleted, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQProgress),
		}},
		{QueueDLQProgress, nil},
	}

	// step.started никуда не привязан: внешние потребители
	// объявляют свои очереди на procedura.progress сами
	topologyBindings = []bindingDecl{
		{QueueStepCompleted, RoutingKeyStepCompleted, ExchangeProgress},
		{QueueDLQProgress, RoutingKeyDLQProgress, ExchangeDLQ},
	}
)

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range topologyExchanges {
			err := ch.ExchangeDeclare(
				string(ex.name), // name
				ex.kind,         // type
				true,            // durable
				false,           // auto-deleted
				false,           // internal
				false,           // no-wait
				nil,             // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}

		for _, q := range topologyQueues {
			_, err := ch.QueueDeclare(
				string(q.name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		for _, b := range topologyBindings {
			err := ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(b.exchange),   // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}
		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Procedura RabbitMQ Topology:

    procedura.progress (topic)
    ├── [routing: step.started]      no queue, external subscribers
    └── progress.step_completed [routing: step.completed]
            Consumer: procedura-worker (unlock notifier)
            DLQ: dlq.progress

    procedura.dlq (direct)
    └── dlq.progress [routing: progress]
            Manual processing
`
}
