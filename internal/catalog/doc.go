// Package catalog — источник определений процедур и шагов.
//
// Source читают движок и Transition API. Реализации:
//   - MemCatalog — каталог в памяти, загружается из JSON-файла;
//   - repo.FlowRepo — таблицы procedure_flows и procedure_steps.
//
// Каталог не проверяет граф зависимостей: ошибки конфигурации
// обнаруживаются при построении графа (engine.BuildGraph).
package catalog
