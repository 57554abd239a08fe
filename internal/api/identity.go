package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/procedure"
)

// Заголовки идентификации пользователя. Аутентификацию выполняет шлюз
// перед API; сюда приходят уже проверенные значения.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// optionalUser возвращает пользователя из X-User-ID или query user_id.
// nil — анонимный запрос.
func optionalUser(r *http.Request) (*uuid.UUID, error) {
	raw := r.Header.Get(HeaderUserID)
	if raw == "" {
		raw = r.URL.Query().Get("user_id")
	}
	if raw == "" {
		return nil, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errors.New("invalid user id")
	}
	return &id, nil
}

// actorFromRequest возвращает пользователя для Transition API.
func actorFromRequest(r *http.Request) (procedure.Actor, error) {
	raw := r.Header.Get(HeaderUserID)
	if raw == "" {
		return procedure.Actor{}, errors.New(HeaderUserID + " header is required")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return procedure.Actor{}, errors.New("invalid user id")
	}
	return procedure.Actor{UserID: id, Role: r.Header.Get(HeaderUserRole)}, nil
}
