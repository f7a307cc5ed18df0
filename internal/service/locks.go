package service

import "sync"

// GoalLocks serialises read-compute-write cycles per goal id. Different goals
// never block each other.
type GoalLocks struct {
	mu    sync.Mutex
	locks map[string]*goalLock
}

type goalLock struct {
	mu   sync.Mutex
	refs int
}

func NewGoalLocks() *GoalLocks {
	return &GoalLocks{locks: make(map[string]*goalLock)}
}

// Lock blocks until goalID is free and returns the matching unlock func.
func (l *GoalLocks) Lock(goalID string) func() {
	l.mu.Lock()
	gl, ok := l.locks[goalID]
	if !ok {
		gl = &goalLock{}
		l.locks[goalID] = gl
	}
	gl.refs++
	l.mu.Unlock()

	gl.mu.Lock()

	return func() {
		gl.mu.Unlock()

		l.mu.Lock()
		gl.refs--
		if gl.refs == 0 {
			delete(l.locks, goalID)
		}
		l.mu.Unlock()
	}
}
