// Package cli реализует инструмент командной строки Procedura.
//
// # Обзор
//
// CLI — клиентская утилита для Procedura API. Работает через HTTP и
// не импортирует internal/api: типы ответов продублированы в client.go.
// Исключение — flow validate FILE: файл каталога проверяется локально
// через internal/catalog и internal/engine, сервер для этого не нужен.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент API. Инкапсулирует запросы, заголовки X-User-ID/X-User-Role,
// разбор конвертов {data}, {data,total} и {error}. Ошибка API
// возвращается как *APIError.
//
//	client := cli.NewClient("http://localhost:8080")
//	res, err := client.StartStep(stepID, cli.Identity{UserID: user}, "")
//
// ## Output
//
// Таблицы (text/tabwriter) по умолчанию, JSON с флагом --json.
// Данные пишутся в stdout, сообщения — в stderr:
// procedura flow list --json | jq .
//
// ## Commands
//
//   - flow: list, show, validate
//   - step: start, complete
//   - progress: list
//
// Каждая группа создаётся фабрикой (NewFlowCmd и т.д.), принимающей
// clientFn и outputFn — замыкания для ленивого создания Client и Output
// после разбора PersistentFlags.
package cli
