package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
)

// File — формат JSON-файла каталога.
//
//	{
//	  "flows": [{
//	    "id": "...", "university_id": "...", "name": "Поступление",
//	    "flow_type": "admission", "is_active": true,
//	    "steps": [{"id": "...", "name": "Подать заявление", "step_order": 1,
//	               "depends_on_step_ids": "id1,id2"}]
//	  }]
//	}
//
// depends_on_step_ids хранится так же, как в БД: строкой через запятую.
type File struct {
	Flows []FileFlow `json:"flows"`
}

// FileFlow — процедура в файле каталога.
type FileFlow struct {
	ID           uuid.UUID  `json:"id"`
	UniversityID uuid.UUID  `json:"university_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	FlowType     string     `json:"flow_type"`
	IsActive     *bool      `json:"is_active,omitempty"`
	CreatedAt    time.Time  `json:"created_at,omitzero"`
	Steps        []FileStep `json:"steps"`
}

// FileStep — шаг в файле каталога.
type FileStep struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	StepOrder    int       `json:"step_order"`
	RequiredRole string    `json:"required_role,omitempty"`
	IsRequired   *bool     `json:"is_required,omitempty"`
	DependsOn    string    `json:"depends_on_step_ids,omitempty"`
}

// Entry — процедура с шагами, готовая к загрузке в Source.
type Entry struct {
	Flow  domain.Flow
	Steps []domain.Step
}

// ReadFile читает и разбирает файл каталога.
//
// is_active и is_required по умолчанию true. Некорректный
// depends_on_step_ids возвращается с domain.ErrMalformedStepIDs.
func ReadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return f.Entries()
}

// Entries переводит содержимое файла в доменные типы.
func (f *File) Entries() ([]Entry, error) {
	entries := make([]Entry, 0, len(f.Flows))
	for _, ff := range f.Flows {
		flow := domain.Flow{
			ID:           ff.ID,
			UniversityID: ff.UniversityID,
			Name:         ff.Name,
			Description:  ff.Description,
			FlowType:     ff.FlowType,
			IsActive:     boolOr(ff.IsActive, true),
			CreatedAt:    ff.CreatedAt,
		}
		if flow.CreatedAt.IsZero() {
			flow.CreatedAt = time.Now().UTC()
		}

		steps := make([]domain.Step, 0, len(ff.Steps))
		for _, fs := range ff.Steps {
			deps, err := domain.ParseStepIDs(fs.DependsOn)
			if err != nil {
				return nil, fmt.Errorf("flow %s: step %s: %w", ff.ID, fs.ID, err)
			}
			steps = append(steps, domain.Step{
				ID:           fs.ID,
				FlowID:       ff.ID,
				Name:         fs.Name,
				Description:  fs.Description,
				StepOrder:    fs.StepOrder,
				RequiredRole: fs.RequiredRole,
				IsRequired:   boolOr(fs.IsRequired, true),
				DependsOn:    deps,
			})
		}
		entries = append(entries, Entry{Flow: flow, Steps: steps})
	}
	return entries, nil
}

// LoadFile читает файл каталога в новый MemCatalog.
func LoadFile(path string) (*MemCatalog, error) {
	entries, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := NewMemCatalog()
	for _, e := range entries {
		if err := c.Add(e.Flow, e.Steps); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
