package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Procedura/internal/engine"
	"github.com/shaiso/Procedura/internal/procedure"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeNotStartable       ErrorCode = "NOT_STARTABLE"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrCodeConfigurationError ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeStoreUnavailable   ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string, details any) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message, nil)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error", nil)
}

// HandleError преобразует ошибку сервиса в HTTP ответ.
// Возвращает false, если err == nil.
//
//	ErrNotFound          → 404 NOT_FOUND
//	ErrNotStartable      → 409 NOT_STARTABLE
//	ErrInvalidTransition → 422 INVALID_TRANSITION
//	ConfigurationError   → 500 CONFIGURATION_ERROR
//	ErrStoreUnavailable  → 503 STORE_UNAVAILABLE
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	var te *procedure.TransitionError
	switch {
	case errors.Is(err, procedure.ErrNotFound):
		Error(w, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)

	case errors.Is(err, procedure.ErrNotStartable):
		var details any
		if errors.As(err, &te) && len(te.WaitingFor) > 0 {
			details = map[string]any{"waiting_for": te.WaitingFor}
		}
		Error(w, http.StatusConflict, ErrCodeNotStartable, err.Error(), details)

	case errors.Is(err, procedure.ErrInvalidTransition):
		Error(w, http.StatusUnprocessableEntity, ErrCodeInvalidTransition, err.Error(), nil)

	case engine.IsConfigurationError(err):
		logger.Error("flow configuration error", "error", err)
		var details any
		if cfgErr := engine.AsConfigurationError(err); cfgErr != nil {
			details = ConfigurationErrorFromEngine(cfgErr)
		}
		Error(w, http.StatusInternalServerError, ErrCodeConfigurationError, err.Error(), details)

	case errors.Is(err, procedure.ErrStoreUnavailable):
		logger.Error("store unavailable", "error", err)
		Error(w, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "progress store unavailable", nil)

	default:
		InternalError(w, logger, err)
	}
	return true
}
