package queue

import (
	"sync"

	"github.com/reelforge/ingest-worker/api/types"
)

// Store is the backing job store. It is injected into the queue so tests can
// run isolated instances and so a durable backend can replace the in-memory
// one without touching the queue's contract.
//
// Get and List return snapshot copies; the only way to mutate a stored job
// is through Update, which runs the mutator under the store lock.
type Store interface {
	Put(job *types.VideoProcessingJob)
	Get(id string) (types.VideoProcessingJob, bool)
	Update(id string, mutate func(*types.VideoProcessingJob)) bool
	List() []types.VideoProcessingJob
	Delete(id string)
	Len() int
}

// MemoryStore is a process-local Store. Job state is lost on restart; that
// is an accepted property of this queue, not an oversight.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*types.VideoProcessingJob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*types.VideoProcessingJob)}
}

func (s *MemoryStore) Put(job *types.VideoProcessingJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *MemoryStore) Get(id string) (types.VideoProcessingJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return types.VideoProcessingJob{}, false
	}
	return snapshot(job), true
}

func (s *MemoryStore) Update(id string, mutate func(*types.VideoProcessingJob)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	mutate(job)
	return true
}

func (s *MemoryStore) List() []types.VideoProcessingJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.VideoProcessingJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, snapshot(job))
	}
	return out
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// snapshot deep-copies the pointer fields so callers can never reach back
// into queue-owned state.
func snapshot(job *types.VideoProcessingJob) types.VideoProcessingJob {
	out := *job
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		out.CompletedAt = &t
	}
	if job.Result != nil {
		r := *job.Result
		out.Result = &r
	}
	return out
}
