// Package mq предоставляет инфраструктуру для событий прогресса в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий прогресса
//   - consumer.go   — потребление событий
//
// Типы сообщений:
//   - progress.step_started   — пользователь начал шаг
//   - progress.step_completed — пользователь завершил шаг (с разблокированными шагами)
//
// Exchanges:
//   - procedura.progress — события прогресса (topic)
//   - procedura.dlq      — dead letter queue
package mq
