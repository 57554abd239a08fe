package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Metrics(),
		Logging(h.logger),
	)

	// Flows
	mux.Handle("GET /api/v1/flows", chain(http.HandlerFunc(h.ListFlows)))
	mux.Handle("GET /api/v1/universities/{university_id}/flows/{id}", chain(http.HandlerFunc(h.GetFlowDetail)))
	mux.Handle("GET /api/v1/flows/{id}/validate", chain(http.HandlerFunc(h.ValidateFlow)))

	// Transition API
	mux.Handle("POST /api/v1/steps/{id}/start", chain(http.HandlerFunc(h.StartStep)))
	mux.Handle("POST /api/v1/steps/{id}/complete", chain(http.HandlerFunc(h.CompleteStep)))

	// Progress
	mux.Handle("GET /api/v1/users/{user_id}/progress", chain(http.HandlerFunc(h.ListUserProgress)))
}
