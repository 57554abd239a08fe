package repo

import (
	"errors"

	"github.com/shaiso/Procedura/internal/progress"
)

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrConflict — compare-and-swap не прошёл. Совпадает с progress.ErrConflict,
	// чтобы вызывающий код не зависел от конкретного хранилища.
	ErrConflict = progress.ErrConflict
)

// nullString возвращает nil для пустой строки.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefString возвращает "" для NULL.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
