package engine

import (
	"math"

	"github.com/shaiso/Procedura/internal/domain"
)

// Stats — агрегированные счётчики процедуры для пользователя.
type Stats struct {
	TotalSteps      int `json:"total_steps"`
	CompletedSteps  int `json:"completed_steps"`
	InProgressSteps int `json:"in_progress_steps"`

	// NotStartedSteps включает BLOCKED шаги.
	NotStartedSteps int `json:"not_started_steps"`

	// BlockedSteps — часть NotStartedSteps, ожидающая зависимостей.
	BlockedSteps int `json:"blocked_steps"`

	// SkippedSteps не попадают ни в completed, ни в not started,
	// но входят в TotalSteps.
	SkippedSteps int `json:"skipped_steps"`

	// CompletionRate = CompletedSteps / TotalSteps * 100; 0 для пустой процедуры.
	CompletionRate float64 `json:"completion_rate"`

	RequiredSteps          int `json:"required_steps"`
	RequiredCompletedSteps int `json:"required_completed_steps"`

	// IsComplete — все обязательные шаги завершены или пропущены
	// (все шаги, если обязательных нет).
	IsComplete bool `json:"is_complete"`
}

// Aggregate сводит разрешённые статусы шагов в счётчики процедуры.
func Aggregate(res *Resolution) Stats {
	stats := Stats{TotalSteps: len(res.Steps)}

	requiredDone := 0
	for _, s := range res.Steps {
		switch s.Status {
		case domain.StepStatusCompleted:
			stats.CompletedSteps++
		case domain.StepStatusInProgress:
			stats.InProgressSteps++
		case domain.StepStatusBlocked:
			stats.BlockedSteps++
			stats.NotStartedSteps++
		case domain.StepStatusSkipped:
			stats.SkippedSteps++
		default:
			stats.NotStartedSteps++
		}

		if s.Step.IsRequired {
			stats.RequiredSteps++
			switch s.Status {
			case domain.StepStatusCompleted:
				stats.RequiredCompletedSteps++
				requiredDone++
			case domain.StepStatusSkipped:
				requiredDone++
			}
		}
	}

	if stats.TotalSteps > 0 {
		stats.CompletionRate = float64(stats.CompletedSteps) / float64(stats.TotalSteps) * 100
	}
	switch {
	case stats.TotalSteps == 0:
		stats.IsComplete = false
	case stats.RequiredSteps > 0:
		stats.IsComplete = requiredDone == stats.RequiredSteps
	default:
		// Без обязательных шагов процедура завершена, когда закрыты все шаги
		stats.IsComplete = stats.CompletedSteps+stats.SkippedSteps == stats.TotalSteps
	}

	return stats
}

// RoundedCompletionRate возвращает CompletionRate с точностью до сотых.
func (s Stats) RoundedCompletionRate() float64 {
	return math.Round(s.CompletionRate*100) / 100
}
