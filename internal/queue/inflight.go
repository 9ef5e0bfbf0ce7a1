package queue

import "sync"

// syncSet is the in-flight guard: the set of job IDs currently being
// processed. add is the check-and-mark; it fails when the ID is already
// present so the same job can never run twice concurrently.
type syncSet struct {
	mu  *sync.Mutex
	ids map[string]struct{}
}

func newSyncSet() syncSet {
	return syncSet{mu: &sync.Mutex{}, ids: make(map[string]struct{})}
}

func (s syncSet) add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s syncSet) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}
