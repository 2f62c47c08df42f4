package service

import (
	"sort"
	"sync"
)

// FundLocker serializes engine invocations per fund ID. The engines mutate
// shared state in place (committed capital, investor positions) without
// internal locking, so the calling layer must hold the fund's lock for the
// duration of a calculation.
type FundLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFundLocker creates an empty FundLocker.
func NewFundLocker() *FundLocker {
	return &FundLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for a fund, creating it on first use.
// The returned function releases the lock.
func (l *FundLocker) Lock(fundID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[fundID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[fundID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// LockMany acquires the locks for a set of funds, deduplicated and in
// sorted order so concurrent callers taking overlapping sets cannot
// deadlock. The returned function releases all of them.
func (l *FundLocker) LockMany(fundIDs []string) func() {
	ids := make([]string, 0, len(fundIDs))
	seen := make(map[string]bool, len(fundIDs))
	for _, id := range fundIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	unlocks := make([]func(), len(ids))
	for i, id := range ids {
		unlocks[i] = l.Lock(id)
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}
