package pipeline

import "sync"

// Locker tracks which users have a run in progress
type Locker struct {
	mu           sync.Mutex
	inProcessMap map[string]bool
}

func NewLocker() *Locker {
	return &Locker{
		inProcessMap: make(map[string]bool),
	}
}

// TryLock marks the user as processing. It returns false when the user
// already has a run in progress.
func (l *Locker) TryLock(userId string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inProcessMap[userId] {
		return false
	}
	l.inProcessMap[userId] = true
	return true
}

// IsProcessing checks if the user has a run in progress
func (l *Locker) IsProcessing(userId string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inProcessMap[userId]
}

func (l *Locker) Unlock(userId string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inProcessMap, userId)
}
