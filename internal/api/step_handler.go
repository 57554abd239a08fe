package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/procedure"
)

type transitionFunc func(ctx context.Context, actor procedure.Actor, stepID uuid.UUID, notes string) (*procedure.TransitionResult, error)

// StartStep начинает шаг.
// POST /api/v1/steps/{id}/start
func (h *Handler) StartStep(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.StartStep)
}

// CompleteStep завершает шаг.
// POST /api/v1/steps/{id}/complete
func (h *Handler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CompleteStep)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	stepID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid step id")
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	result, err := fn(r.Context(), actor, stepID, req.Notes)
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, TransitionFromService(result))
}
