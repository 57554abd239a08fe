// Package engine содержит движок зависимостей и прогресса процедур.
//
// Включает:
//   - graph.go     — построение и валидация графа шагов (Step Graph Model)
//   - resolver.go  — вычисление статуса и canStart каждого шага (Status Resolver)
//   - aggregate.go — агрегированные счётчики процедуры (Completion Aggregator)
//
// Всё в пакете — чистые функции без I/O: граф строится заново на каждый
// запрос, прогресс передаётся снимком. Ошибки конфигурации (циклы, висячие
// ссылки) возвращаются как *ConfigurationError при построении графа;
// бизнес-состояния (BLOCKED, NOT_STARTED) ошибками не являются.
package engine
