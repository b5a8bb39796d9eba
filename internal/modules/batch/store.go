package batch

import (
	"sync"
	"time"

	"github.com/jinzhu/copier"

	"github.com/reusedev/batch-hub/internal/consts"
	"github.com/reusedev/batch-hub/internal/modules/logs"
	"github.com/reusedev/batch-hub/internal/modules/observer"
)

type entry struct {
	task   GenerationTask
	result GenerationResult
}

// Store keeps every cell of the working set in insertion order. A
// removed pending cell leaves a stale marker behind, the marker eats
// the cell's in-flight settlement so it cannot resurrect the entry.
type Store struct {
	mu        sync.Mutex
	entries   map[string]*entry
	order     []string
	stale     map[string]struct{}
	observers []observer.Observer
}

var _ observer.Subject = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		stale:   make(map[string]struct{}),
	}
}

func (s *Store) Attach(o observer.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Store) Notify(event consts.Event, data interface{}) {
	s.mu.Lock()
	obs := make([]observer.Observer, len(s.observers))
	copy(obs, s.observers)
	s.mu.Unlock()
	for _, o := range obs {
		o.Update(event, data)
	}
}

// Put registers a cell as pending. Re-putting an existing key resets it.
func (s *Store) Put(task GenerationTask, key Key) {
	s.mu.Lock()
	ks := key.String()
	now := time.Now()
	if e, ok := s.entries[ks]; ok {
		e.task = task
		created := e.result.CreatedAt
		e.result = GenerationResult{Key: key, Status: StatusPending, Prompt: task.Prompt, CreatedAt: created, UpdatedAt: now}
	} else {
		s.entries[ks] = &entry{
			task:   task,
			result: GenerationResult{Key: key, Status: StatusPending, Prompt: task.Prompt, CreatedAt: now, UpdatedAt: now},
		}
		s.order = append(s.order, ks)
	}
	progress := s.progressLocked()
	s.mu.Unlock()
	s.Notify(consts.EventProgress, progress)
}

// Settle applies a run outcome. It reports false when the outcome was
// dropped because the cell was removed while the run was in flight.
func (s *Store) Settle(key Key, outcome Outcome) bool {
	s.mu.Lock()
	ks := key.String()
	if _, ok := s.stale[ks]; ok {
		delete(s.stale, ks)
		s.mu.Unlock()
		logs.Logger.Debug().Str("key", ks).Msg("dropping settlement for removed cell")
		return false
	}
	e, ok := s.entries[ks]
	if !ok {
		s.mu.Unlock()
		return false
	}
	e.result.Status = outcome.Status
	e.result.URLs = outcome.URLs
	e.result.Message = outcome.Message
	e.result.Supplier = outcome.Supplier
	e.result.Model = outcome.Model
	if outcome.WorkflowID != "" {
		e.result.WorkflowID = outcome.WorkflowID
	}
	e.result.Attempts = outcome.Attempts
	e.result.UpdatedAt = time.Now()
	result := snapshotResult(e.result)
	progress := s.progressLocked()
	s.mu.Unlock()
	s.Notify(consts.EventResult, result)
	s.Notify(consts.EventProgress, progress)
	return true
}

// MarkWorkflow records the async workflow id on a still-pending cell.
func (s *Store) MarkWorkflow(key Key, workflowID string) {
	s.mu.Lock()
	if e, ok := s.entries[key.String()]; ok {
		e.result.WorkflowID = workflowID
		e.result.UpdatedAt = time.Now()
	}
	s.mu.Unlock()
}

func (s *Store) Remove(key Key) bool {
	s.mu.Lock()
	ks := key.String()
	e, ok := s.entries[ks]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if e.result.Status == StatusPending {
		s.stale[ks] = struct{}{}
	}
	delete(s.entries, ks)
	for i, o := range s.order {
		if o == ks {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	progress := s.progressLocked()
	s.mu.Unlock()
	s.Notify(consts.EventProgress, progress)
	return true
}

// Clear wipes the working set. Cells still running become stale so
// their settlements are swallowed.
func (s *Store) Clear() int {
	s.mu.Lock()
	n := len(s.entries)
	fresh := make(map[string]struct{})
	for ks, e := range s.entries {
		if e.result.Status == StatusPending {
			fresh[ks] = struct{}{}
		}
	}
	s.stale = fresh
	s.entries = make(map[string]*entry)
	s.order = nil
	progress := s.progressLocked()
	s.mu.Unlock()
	s.Notify(consts.EventProgress, progress)
	return n
}

// ResetPending rearms a settled cell for a retry. keepWorkflow retains
// the async workflow id and attempt count so polling can resume.
func (s *Store) ResetPending(key Key, keepWorkflow bool) bool {
	s.mu.Lock()
	e, ok := s.entries[key.String()]
	if !ok || e.result.Status == StatusPending {
		s.mu.Unlock()
		return false
	}
	e.result.Status = StatusPending
	e.result.URLs = nil
	e.result.Message = ""
	if !keepWorkflow {
		e.result.WorkflowID = ""
		e.result.Attempts = 0
	}
	e.result.UpdatedAt = time.Now()
	progress := s.progressLocked()
	s.mu.Unlock()
	s.Notify(consts.EventProgress, progress)
	return true
}

func (s *Store) Get(key Key) (GenerationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key.String()]
	if !ok {
		return GenerationResult{}, false
	}
	return snapshotResult(e.result), true
}

func (s *Store) Task(key Key) (GenerationTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key.String()]
	if !ok {
		return GenerationTask{}, false
	}
	return e.task, true
}

// Results returns the working set in insertion order.
func (s *Store) Results() []GenerationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GenerationResult, 0, len(s.order))
	for _, ks := range s.order {
		if e, ok := s.entries[ks]; ok {
			out = append(out, snapshotResult(e.result))
		}
	}
	return out
}

func (s *Store) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

func (s *Store) progressLocked() Progress {
	total := len(s.entries)
	completed := 0
	for _, e := range s.entries {
		if e.result.Status.Terminal() {
			completed++
		}
	}
	percent := 0.0
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
	}
	return Progress{Total: total, Completed: completed, Percent: percent}
}

func snapshotResult(in GenerationResult) GenerationResult {
	var out GenerationResult
	if err := copier.Copy(&out, &in); err != nil {
		return in
	}
	return out
}
