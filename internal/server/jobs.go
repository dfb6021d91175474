package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/tierplan/pkg/planner"
)

// jobStore tracks asynchronous solves. Finished tasks are dropped once they
// have been finished for longer than the retention period.
type jobStore struct {
	mu        sync.Mutex
	tasks     map[uuid.UUID]*planner.Task
	retention time.Duration
	now       func() time.Time
}

func newJobStore(retention time.Duration) *jobStore {
	return &jobStore{
		tasks:     make(map[uuid.UUID]*planner.Task),
		retention: retention,
		now:       time.Now,
	}
}

func (s *jobStore) add(t *planner.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.tasks[t.ID()] = t
}

func (s *jobStore) get(id uuid.UUID) (*planner.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	t, ok := s.tasks[id]
	return t, ok
}

func (s *jobStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *jobStore) pruneLocked() {
	now := s.now()
	for id, t := range s.tasks {
		if !t.Finished() {
			continue
		}
		if now.Sub(t.Started().Add(t.Duration())) > s.retention {
			delete(s.tasks, id)
		}
	}
}
