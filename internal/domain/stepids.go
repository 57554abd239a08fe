package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrMalformedStepIDs — в depends_on_step_ids есть значение, не являющееся UUID.
var ErrMalformedStepIDs = errors.New("malformed step id list")

// stepIDSeparators — разделители, встречающиеся в старых записях.
const stepIDSeparators = ",; \t\n"

// ParseStepIDs разбирает список идентификаторов шагов из колонки
// depends_on_step_ids ("id1,id2").
//
// Пустые элементы игнорируются, дубликаты схлопываются с сохранением
// порядка первого вхождения.
func ParseStepIDs(raw string) ([]uuid.UUID, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(stepIDSeparators, r)
	})
	if len(fields) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(fields))
	seen := make(map[uuid.UUID]bool, len(fields))
	for _, f := range fields {
		id, err := uuid.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedStepIDs, f)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatStepIDs сериализует список идентификаторов для хранения.
func FormatStepIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}
