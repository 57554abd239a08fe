// Package notifier сообщает пользователям о шагах, ставших доступными.
//
// # Обзор
//
// Notifier — stateless компонент procedura-worker. Он потребляет события
// progress.step_completed из RabbitMQ и для каждого:
//
//   - заново разрешает процедуру для пользователя (прогресс мог измениться
//     после публикации события);
//   - оставляет из unblocked_step_ids только шаги, которые всё ещё можно начать;
//   - передаёт уведомление в Sink и увеличивает procedura_unlock_notifications_total.
//
// Несколько экземпляров могут потреблять из одной очереди.
//
//	n := notifier.New(notifier.Config{
//	    Flows:  service,
//	    Conn:   mqConn,
//	    Logger: logger,
//	})
//	if err := n.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    logger.Error("notifier stopped", "error", err)
//	}
//
// # Ошибки
//
// Неразбираемое событие и сломанная конфигурация процедуры помечаются
// mq.Permanent и уходят в DLQ. Исчезнувшая процедура подтверждается (ack).
// Недоступность хранилища возвращается как есть: сообщение будет
// доставлено повторно.
package notifier
