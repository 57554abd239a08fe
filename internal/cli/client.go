package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// FlowResponse — процедура из API.
type FlowResponse struct {
	ID           string `json:"id"`
	UniversityID string `json:"university_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	FlowType     string `json:"flow_type"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
}

// StatsResponse — агрегированный прогресс.
type StatsResponse struct {
	TotalSteps             int     `json:"total_steps"`
	CompletedSteps         int     `json:"completed_steps"`
	InProgressSteps        int     `json:"in_progress_steps"`
	NotStartedSteps        int     `json:"not_started_steps"`
	BlockedSteps           int     `json:"blocked_steps"`
	SkippedSteps           int     `json:"skipped_steps"`
	CompletionRate         float64 `json:"completion_rate"`
	RequiredSteps          int     `json:"required_steps"`
	RequiredCompletedSteps int     `json:"required_completed_steps"`
	IsComplete             bool    `json:"is_complete"`
}

// ProgressResponse — запись прогресса из API.
type ProgressResponse struct {
	UserID      string `json:"user_id"`
	StepID      string `json:"step_id"`
	FlowID      string `json:"flow_id"`
	Status      string `json:"status"`
	StartedAt   string `json:"started_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	Notes       string `json:"notes,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

// StepResponse — шаг с разрешённым статусом.
type StepResponse struct {
	ID           string            `json:"id"`
	FlowID       string            `json:"flow_id"`
	Name         string            `json:"name"`
	StepOrder    int               `json:"step_order"`
	RequiredRole string            `json:"required_role,omitempty"`
	IsRequired   bool              `json:"is_required"`
	DependsOn    []string          `json:"depends_on_step_ids"`
	Status       string            `json:"status"`
	CanStart     *bool             `json:"can_start,omitempty"`
	WaitingFor   []string          `json:"waiting_for,omitempty"`
	Progress     *ProgressResponse `json:"progress,omitempty"`
}

// FlowDetailResponse — процедура с шагами и статистикой.
type FlowDetailResponse struct {
	FlowResponse
	Steps []StepResponse `json:"steps"`
	Stats StatsResponse  `json:"stats"`
}

// TransitionResponse — результат start/complete.
type TransitionResponse struct {
	Step      StepResponse  `json:"step"`
	Stats     StatsResponse `json:"stats"`
	Unblocked []string      `json:"unblocked_step_ids,omitempty"`
}

// ConfigurationErrorResponse — ошибка конфигурации процедуры.
type ConfigurationErrorResponse struct {
	FlowID  string   `json:"flow_id"`
	StepID  string   `json:"step_id,omitempty"`
	Field   string   `json:"field,omitempty"`
	Cycle   []string `json:"cycle,omitempty"`
	Message string   `json:"message"`
}

// ValidationResponse — результат проверки процедуры.
type ValidationResponse struct {
	FlowID string                      `json:"flow_id"`
	Valid  bool                        `json:"valid"`
	Steps  int                         `json:"steps"`
	Order  []string                    `json:"order,omitempty"`
	Error  *ConfigurationErrorResponse `json:"error,omitempty"`
}

// --- Request types ---

// TransitionRequest — тело start/complete.
type TransitionRequest struct {
	Notes string `json:"notes,omitempty"`
}

// ListFlowsOpts — параметры фильтрации процедур.
type ListFlowsOpts struct {
	UniversityID string
	FlowType     string
	Active       string
}

// Identity — пользователь, от имени которого выполняется запрос.
type Identity struct {
	UserID string
	Role   string
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, возвращённая API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для Procedura API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Flows ---

// ListFlows возвращает процедуры по фильтру.
func (c *Client) ListFlows(opts ListFlowsOpts) ([]FlowResponse, error) {
	params := url.Values{}
	if opts.UniversityID != "" {
		params.Set("university_id", opts.UniversityID)
	}
	if opts.FlowType != "" {
		params.Set("flow_type", opts.FlowType)
	}
	if opts.Active != "" {
		params.Set("active", opts.Active)
	}

	var flows []FlowResponse
	err := c.list("/api/v1/flows", params, &flows)
	return flows, err
}

// GetFlowDetail возвращает процедуру с шагами. Пустой userID — анонимный просмотр.
func (c *Client) GetFlowDetail(universityID, flowID, userID string) (*FlowDetailResponse, error) {
	var detail FlowDetailResponse
	path := "/api/v1/universities/" + url.PathEscape(universityID) + "/flows/" + url.PathEscape(flowID)
	err := c.doData(http.MethodGet, path, nil, Identity{UserID: userID}, &detail)
	return &detail, err
}

// ValidateFlow проверяет граф шагов процедуры на сервере.
func (c *Client) ValidateFlow(flowID string) (*ValidationResponse, error) {
	var v ValidationResponse
	err := c.doData(http.MethodGet, "/api/v1/flows/"+url.PathEscape(flowID)+"/validate", nil, Identity{}, &v)
	return &v, err
}

// --- Steps ---

// StartStep переводит шаг в IN_PROGRESS.
func (c *Client) StartStep(stepID string, who Identity, notes string) (*TransitionResponse, error) {
	return c.transition(stepID, "start", who, notes)
}

// CompleteStep переводит шаг в COMPLETED.
func (c *Client) CompleteStep(stepID string, who Identity, notes string) (*TransitionResponse, error) {
	return c.transition(stepID, "complete", who, notes)
}

func (c *Client) transition(stepID, op string, who Identity, notes string) (*TransitionResponse, error) {
	var result TransitionResponse
	path := "/api/v1/steps/" + url.PathEscape(stepID) + "/" + op
	err := c.doData(http.MethodPost, path, TransitionRequest{Notes: notes}, who, &result)
	return &result, err
}

// --- Progress ---

// ListUserProgress возвращает все записи прогресса пользователя.
func (c *Client) ListUserProgress(userID string) ([]ProgressResponse, error) {
	var records []ProgressResponse
	err := c.list("/api/v1/users/"+url.PathEscape(userID)+"/progress", nil, &records)
	return records, err
}

// --- HTTP helpers ---

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil, Identity{})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, who Identity, result any) error {
	resp, err := c.do(method, path, body, who)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any, who Identity) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who.UserID != "" {
		req.Header.Set("X-User-ID", who.UserID)
	}
	if who.Role != "" {
		req.Header.Set("X-User-Role", who.Role)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return &APIError{Status: resp.StatusCode}
	}

	return &APIError{Status: resp.StatusCode, Code: er.Error.Code, Message: er.Error.Message}
}
