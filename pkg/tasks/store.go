// Package tasks holds the in-memory task records the task tools operate on.
package tasks

import (
	"errors"
	"strconv"
	"sync"
	"time"
)

var (
	ErrTaskNotFound    = errors.New("tasks: task not found")
	ErrInvalidStatus   = errors.New("tasks: invalid task status")
	ErrInvalidPriority = errors.New("tasks: invalid task priority")
)

// Store exclusively owns all task records. Ids come from a store-owned counter and
// are never reused. Any status may follow any other; there is no transition graph.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	order []string // insertion order
	seq   int64
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		tasks: map[string]*Task{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new todo task and returns a copy. An empty priority means medium.
// Input validity is the caller's concern; Create does not fail.
func (s *Store) Create(title, description string, priority Priority) Task {
	if priority == "" {
		priority = PriorityMedium
	}
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := "task-" + strconv.FormatInt(s.seq, 10)
	task := &Task{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      StatusTodo,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks[id] = task
	s.order = append(s.order, id)
	return *task
}

// List returns tasks in creation order. An empty filter or StatusAll returns every task.
func (s *Store) List(filter Status) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		task := s.tasks[id]
		if task == nil {
			continue
		}
		if filter != "" && filter != StatusAll && task.Status != filter {
			continue
		}
		out = append(out, *task)
	}
	return out
}

// Get returns a copy of the task with id.
func (s *Store) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task := s.tasks[id]
	if task == nil {
		return Task{}, ErrTaskNotFound
	}
	return *task, nil
}

// UpdateStatus overwrites the status of id and refreshes UpdatedAt. UpdatedAt always
// moves forward, even when the clock has not advanced since the last write.
func (s *Store) UpdateStatus(id string, status Status) (Task, error) {
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	task := s.tasks[id]
	if task == nil {
		return Task{}, ErrTaskNotFound
	}
	if !now.After(task.UpdatedAt) {
		now = task.UpdatedAt.Add(time.Millisecond)
	}
	task.Status = status
	task.UpdatedAt = now
	return *task, nil
}

// Len reports how many tasks exist.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
