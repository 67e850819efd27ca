package tasks

import (
	"context"
	"slices"
	"sync"
)

// InMemoryRepo keeps tasks in a map indexed by id plus an ordered id list
// for List. One mutex covers every operation.
type InMemoryRepo struct {
	mu     sync.Mutex
	tasks  map[int64]Task
	order  []int64
	lastID int64
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{tasks: make(map[int64]Task)}
}

func (r *InMemoryRepo) Create(_ context.Context, f Fields) (Task, error) {
	f, err := f.Normalize()
	if err != nil {
		return Task{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastID++
	t := Task{ID: r.lastID, Fields: f}
	r.tasks[t.ID] = t
	r.order = append(r.order, t.ID)
	return t, nil
}

func (r *InMemoryRepo) List(_ context.Context, skip, limit int) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	from, to := window(len(r.order), skip, limit)
	out := make([]Task, 0, to-from)
	for _, id := range r.order[from:to] {
		out = append(out, r.tasks[id])
	}
	return out, nil
}

func (r *InMemoryRepo) Get(_ context.Context, id int64) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *InMemoryRepo) Update(_ context.Context, id int64, f Fields) (Task, error) {
	f, err := f.Normalize()
	if err != nil {
		return Task{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return Task{}, ErrNotFound
	}
	t := Task{ID: id, Fields: f}
	r.tasks[id] = t
	return t, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return nil
}

func (r *InMemoryRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks), nil
}
