package api

import (
	"net/http"

	"github.com/google/uuid"
)

// ListUserProgress возвращает все записи прогресса пользователя.
// GET /api/v1/users/{user_id}/progress
func (h *Handler) ListUserProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	records, err := h.service.ListUserProgress(r.Context(), userID)
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]ProgressResponse, len(records))
	for i, p := range records {
		result[i] = ProgressFromDomain(p)
	}
	List(w, result, len(result))
}
