// Package procedure — Transition API и чтение процедур с прогрессом.
//
// Service — единственный путь изменения прогресса:
//   - StartStep    — NOT_STARTED → IN_PROGRESS (шаг должен быть доступен)
//   - CompleteStep — IN_PROGRESS → COMPLETED
//
// Чтение:
//   - GetFlowDetail    — процедура с разрешёнными статусами и статистикой
//   - ListFlows        — каталог процедур
//   - ValidateFlow     — проверка графа зависимостей
//   - ListUserProgress — все записи прогресса пользователя
//
// Переходы для одной пары (user, step) сериализуются локальной блокировкой
// и compare-and-swap в хранилище. Граф строится заново на каждый запрос.
package procedure
