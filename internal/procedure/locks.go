package procedure

import (
	"sync"

	"github.com/google/uuid"
)

type lockKey struct {
	userID uuid.UUID
	stepID uuid.UUID
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedLock — мьютекс на пару (user, step). Записи удаляются,
// когда их никто не держит и не ждёт.
type keyedLock struct {
	mu      sync.Mutex
	entries map[lockKey]*lockEntry
}

func newKeyedLock() *keyedLock {
	return &keyedLock{entries: make(map[lockKey]*lockEntry)}
}

// lock захватывает блокировку ключа и возвращает функцию освобождения.
func (l *keyedLock) lock(userID, stepID uuid.UUID) func() {
	k := lockKey{userID, stepID}

	l.mu.Lock()
	e, ok := l.entries[k]
	if !ok {
		e = &lockEntry{}
		l.entries[k] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, k)
		}
		l.mu.Unlock()
	}
}

func (l *keyedLock) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
