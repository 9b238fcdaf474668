package ledger

import "sync"

// scopeLocks hands out one lock per scope, created on demand.
//
// The locking discipline: a single-delta writer holds the scope lock shared
// plus the mutex for its unordered pair, so deltas on different pairs run
// concurrently while deltas on the same pair (either direction) serialize.
// Batch writers and scope-wide scans take the scope lock exclusively, which
// gives them both atomicity against all deltas and a consistent snapshot.
type scopeLocks struct {
	mu     sync.Mutex
	scopes map[string]*scopeLock
}

type scopeLock struct {
	mu sync.RWMutex

	pairMu sync.Mutex
	pairs  map[pairKey]*sync.Mutex
}

// pairKey identifies an unordered user pair.
type pairKey struct {
	a, b string
}

func newPairKey(u, v string) pairKey {
	if u < v {
		return pairKey{u, v}
	}
	return pairKey{v, u}
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{scopes: make(map[string]*scopeLock)}
}

func (l *scopeLocks) get(groupID string) *scopeLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl, ok := l.scopes[groupID]
	if !ok {
		sl = &scopeLock{pairs: make(map[pairKey]*sync.Mutex)}
		l.scopes[groupID] = sl
	}
	return sl
}

func (s *scopeLock) pair(u, v string) *sync.Mutex {
	key := newPairKey(u, v)
	s.pairMu.Lock()
	defer s.pairMu.Unlock()
	pm, ok := s.pairs[key]
	if !ok {
		pm = &sync.Mutex{}
		s.pairs[key] = pm
	}
	return pm
}
