// Package progress описывает хранилище прогресса пользователей по шагам.
//
// Store — единственная граница, через которую читается и изменяется
// состояние шагов. Правил зависимостей внутри хранилища нет: оно только
// хранит записи и гарантирует атомарный compare-and-swap в Upsert.
//
// Реализации:
//   - MemStore — в памяти процесса (тесты, режим storage = "memory");
//   - repo.ProgressRepo — PostgreSQL (таблица procedure_progress).
package progress
