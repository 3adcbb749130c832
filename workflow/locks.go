package workflow

import "sync"

// contextLocks serializes request/decision handling per context. Different
// contexts proceed concurrently; the same context is single-flight, which
// makes the registry's check-then-act safe and gives first-writer-wins on
// racing decisions.
type contextLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newContextLocks() *contextLocks {
	return &contextLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *contextLocks) acquire(contextID string) func() {
	l.mu.Lock()
	m, ok := l.locks[contextID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[contextID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
