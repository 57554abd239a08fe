package engine

import (
	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
)

var testFlowID = uuid.MustParse("0b8f5c8e-3c57-4d3a-9f1e-6a0c2a7d1b10")

// sid возвращает детерминированный ID шага по имени.
func sid(name string) uuid.UUID {
	return uuid.NewSHA1(testFlowID, []byte(name))
}

// step создаёт шаг процедуры testFlowID с зависимостями по именам.
func step(name string, order int, deps ...string) domain.Step {
	s := domain.Step{
		ID:         sid(name),
		FlowID:     testFlowID,
		Name:       name,
		StepOrder:  order,
		IsRequired: true,
	}
	for _, d := range deps {
		s.DependsOn = append(s.DependsOn, sid(d))
	}
	return s
}

// progressOf создаёт запись прогресса со статусом.
func progressOf(name string, status domain.StepStatus) domain.Progress {
	return domain.Progress{StepID: sid(name), FlowID: testFlowID, Status: status}
}

// snapshotOf собирает снимок прогресса.
func snapshotOf(records ...domain.Progress) map[uuid.UUID]domain.Progress {
	m := make(map[uuid.UUID]domain.Progress, len(records))
	for _, r := range records {
		m[r.StepID] = r
	}
	return m
}
