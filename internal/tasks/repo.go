package tasks

import "context"

// Repository is implemented by the in-memory and SQL stores. Fields passed
// to Create and Update are validated by the store.
type Repository interface {
	Create(ctx context.Context, f Fields) (Task, error)
	// List returns tasks in insertion order. Out of range skip/limit clamp
	// to an empty or shorter result, never an error.
	List(ctx context.Context, skip, limit int) ([]Task, error)
	Get(ctx context.Context, id int64) (Task, error)
	// Update replaces every mutable field of task id.
	Update(ctx context.Context, id int64, f Fields) (Task, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}
