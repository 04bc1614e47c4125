package taskstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used when no POSTGRES_DSN is configured
// and by tests. Tasks are kept in a map for O(1) lookup plus a per-owner id
// slice to preserve creation order for List. All access goes through the
// mutex, which also gives read-your-writes within the process.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]*Task
	order  map[string][]int64 // ownerID -> ids in creation order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		tasks:  make(map[int64]*Task),
		order:  make(map[string][]int64),
	}
}

func (s *MemoryStore) Create(_ context.Context, ownerID, title string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	t := &Task{
		ID:        s.nextID,
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.tasks[t.ID] = t
	s.order[ownerID] = append(s.order[ownerID], t.ID)
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, ownerID string) ([]*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tasks []*Task
	for _, id := range s.order[ownerID] {
		if t, ok := s.tasks[id]; ok {
			cp := *t
			tasks = append(tasks, &cp)
		}
	}
	return tasks, nil
}

func (s *MemoryStore) Get(_ context.Context, ownerID string, id int64) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) SetCompleted(_ context.Context, ownerID string, id int64, completed bool) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	t.Completed = completed
	t.UpdatedAt = time.Now()
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) UpdateTitle(_ context.Context, ownerID string, id int64, title string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	t.Title = title
	t.UpdatedAt = time.Now()
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, ownerID string, id int64, title *string, completed *bool) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	if title != nil {
		t.Title = *title
	}
	if completed != nil {
		t.Completed = *completed
	}
	t.UpdatedAt = time.Now()
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, ownerID string, id int64) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	delete(s.tasks, id)
	ids := s.order[ownerID]
	for i, v := range ids {
		if v == id {
			s.order[ownerID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	cp := *t
	return &cp, nil
}

// lookup must be called with the mutex held.
func (s *MemoryStore) lookup(ownerID string, id int64) (*Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return t, nil
}
