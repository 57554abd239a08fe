package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
)

// ListFlows возвращает каталог процедур.
// GET /api/v1/flows?university_id=&flow_type=&active=
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	var filter domain.FlowFilter
	q := r.URL.Query()

	if v := q.Get("university_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			BadRequest(w, "invalid university_id")
			return
		}
		filter.UniversityID = &id
	}
	filter.FlowType = q.Get("flow_type")
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			BadRequest(w, "invalid active flag")
			return
		}
		filter.IsActive = &active
	}

	flows, err := h.service.ListFlows(r.Context(), filter)
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]FlowResponse, len(flows))
	for i, f := range flows {
		result[i] = FlowFromDomain(f)
	}
	List(w, result, len(result))
}

// GetFlowDetail возвращает процедуру с разрешёнными статусами шагов.
// GET /api/v1/universities/{university_id}/flows/{id}
//
// Без X-User-ID (и user_id в query) — анонимный просмотр.
func (h *Handler) GetFlowDetail(w http.ResponseWriter, r *http.Request) {
	universityID, err := uuid.Parse(r.PathValue("university_id"))
	if err != nil {
		BadRequest(w, "invalid university id")
		return
	}
	flowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid flow id")
		return
	}

	userID, err := optionalUser(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	detail, err := h.service.GetFlowDetail(r.Context(), flowID, universityID, userID)
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, FlowDetailFromService(detail))
}

// ValidateFlow проверяет граф шагов процедуры.
// GET /api/v1/flows/{id}/validate
//
// Ошибка конфигурации возвращается в теле с 200: сама проверка прошла.
func (h *Handler) ValidateFlow(w http.ResponseWriter, r *http.Request) {
	flowID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid flow id")
		return
	}

	v, err := h.service.ValidateFlow(r.Context(), flowID)
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, ValidationFromService(v))
}
