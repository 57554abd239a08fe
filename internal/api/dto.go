package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
	"github.com/shaiso/Procedura/internal/engine"
	"github.com/shaiso/Procedura/internal/procedure"
)

// Flow DTOs

// FlowResponse — процедура без шагов.
type FlowResponse struct {
	ID           uuid.UUID `json:"id"`
	UniversityID uuid.UUID `json:"university_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	FlowType     string    `json:"flow_type"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// FlowFromDomain конвертирует domain.Flow в FlowResponse.
func FlowFromDomain(f domain.Flow) FlowResponse {
	return FlowResponse{
		ID:           f.ID,
		UniversityID: f.UniversityID,
		Name:         f.Name,
		Description:  f.Description,
		FlowType:     f.FlowType,
		IsActive:     f.IsActive,
		CreatedAt:    f.CreatedAt,
	}
}

// FlowDetailResponse — процедура с шагами и прогрессом пользователя.
type FlowDetailResponse struct {
	FlowResponse
	Steps []StepResponse `json:"steps"`
	Stats engine.Stats   `json:"stats"`
}

// StepResponse — шаг с разрешённым статусом (ProcedureStepWithProgress).
type StepResponse struct {
	ID           uuid.UUID   `json:"id"`
	FlowID       uuid.UUID   `json:"flow_id"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	StepOrder    int         `json:"step_order"`
	RequiredRole string      `json:"required_role,omitempty"`
	IsRequired   bool        `json:"is_required"`
	DependsOn    []uuid.UUID `json:"depends_on_step_ids"`

	Status domain.StepStatus `json:"status"`

	// CanStart не передаётся для анонимного просмотра.
	CanStart *bool `json:"can_start,omitempty"`

	WaitingFor []uuid.UUID       `json:"waiting_for,omitempty"`
	Progress   *ProgressResponse `json:"progress,omitempty"`
}

// StepFromState конвертирует engine.StepState в StepResponse.
func StepFromState(s engine.StepState, anonymous bool) StepResponse {
	resp := StepResponse{
		ID:           s.Step.ID,
		FlowID:       s.Step.FlowID,
		Name:         s.Step.Name,
		Description:  s.Step.Description,
		StepOrder:    s.Step.StepOrder,
		RequiredRole: s.Step.RequiredRole,
		IsRequired:   s.Step.IsRequired,
		DependsOn:    s.Step.DependsOn,
		Status:       s.Status,
		WaitingFor:   s.WaitingFor,
	}
	if resp.DependsOn == nil {
		resp.DependsOn = []uuid.UUID{}
	}
	if !anonymous {
		canStart := s.CanStart
		resp.CanStart = &canStart
	}
	if s.Progress != nil {
		p := ProgressFromDomain(*s.Progress)
		resp.Progress = &p
	}
	return resp
}

// FlowDetailFromService конвертирует procedure.FlowDetail в FlowDetailResponse.
func FlowDetailFromService(d *procedure.FlowDetail) FlowDetailResponse {
	steps := make([]StepResponse, len(d.Resolution.Steps))
	for i, s := range d.Resolution.Steps {
		steps[i] = StepFromState(s, d.Anonymous)
	}

	stats := d.Stats
	stats.CompletionRate = stats.RoundedCompletionRate()

	return FlowDetailResponse{
		FlowResponse: FlowFromDomain(*d.Flow),
		Steps:        steps,
		Stats:        stats,
	}
}

// Progress DTOs

// ProgressResponse — запись прогресса.
type ProgressResponse struct {
	UserID      uuid.UUID         `json:"user_id"`
	StepID      uuid.UUID         `json:"step_id"`
	FlowID      uuid.UUID         `json:"flow_id"`
	Status      domain.StepStatus `json:"status"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ProgressFromDomain конвертирует domain.Progress в ProgressResponse.
func ProgressFromDomain(p domain.Progress) ProgressResponse {
	return ProgressResponse{
		UserID:      p.UserID,
		StepID:      p.StepID,
		FlowID:      p.FlowID,
		Status:      p.Status,
		StartedAt:   p.StartedAt,
		CompletedAt: p.CompletedAt,
		Notes:       p.Notes,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Transition DTOs

// TransitionRequest — тело запроса start/complete (необязательное).
type TransitionRequest struct {
	Notes string `json:"notes,omitempty"`
}

// TransitionResponse — результат перехода.
type TransitionResponse struct {
	Step      StepResponse `json:"step"`
	Stats     engine.Stats `json:"stats"`
	Unblocked []uuid.UUID  `json:"unblocked_step_ids,omitempty"`
}

// TransitionFromService конвертирует procedure.TransitionResult в TransitionResponse.
func TransitionFromService(r *procedure.TransitionResult) TransitionResponse {
	stats := r.Stats
	stats.CompletionRate = stats.RoundedCompletionRate()
	return TransitionResponse{
		Step:      StepFromState(r.Step, false),
		Stats:     stats,
		Unblocked: r.Unblocked,
	}
}

// Validation DTOs

// ConfigurationErrorResponse — описание ошибки конфигурации процедуры.
type ConfigurationErrorResponse struct {
	FlowID  uuid.UUID   `json:"flow_id"`
	StepID  *uuid.UUID  `json:"step_id,omitempty"`
	Field   string      `json:"field,omitempty"`
	Cycle   []uuid.UUID `json:"cycle,omitempty"`
	Message string      `json:"message"`
}

// ConfigurationErrorFromEngine конвертирует engine.ConfigurationError.
func ConfigurationErrorFromEngine(e *engine.ConfigurationError) ConfigurationErrorResponse {
	resp := ConfigurationErrorResponse{
		FlowID:  e.FlowID,
		Field:   e.Field,
		Cycle:   e.Cycle,
		Message: e.Message,
	}
	if e.StepID != uuid.Nil {
		id := e.StepID
		resp.StepID = &id
	}
	return resp
}

// ValidationResponse — результат проверки графа процедуры.
type ValidationResponse struct {
	FlowID uuid.UUID                   `json:"flow_id"`
	Valid  bool                        `json:"valid"`
	Steps  int                         `json:"steps"`
	Order  []uuid.UUID                 `json:"order,omitempty"`
	Error  *ConfigurationErrorResponse `json:"error,omitempty"`
}

// ValidationFromService конвертирует procedure.Validation.
func ValidationFromService(v *procedure.Validation) ValidationResponse {
	resp := ValidationResponse{
		FlowID: v.Flow.ID,
		Valid:  v.Valid(),
		Steps:  v.Steps,
		Order:  v.Order,
	}
	if v.Err != nil {
		e := ConfigurationErrorFromEngine(v.Err)
		resp.Error = &e
	}
	return resp
}
