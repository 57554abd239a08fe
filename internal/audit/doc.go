// Package audit периодически проверяет конфигурацию активных процедур.
//
// Auditor по cron-расписанию строит граф каждой активной процедуры
// (procedure.Service.ValidateFlow), логирует найденные ошибки конфигурации
// (циклы, ссылки на несуществующие шаги) и выставляет gauge
// procedura_flows_misconfigured. Переходы по сломанной процедуре и так
// отклоняются; аудит нужен, чтобы о поломке узнали до первого запроса.
//
// Ошибка проверки одной процедуры не останавливает проверку остальных.
package audit
