package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// AUTOINCREMENT keeps sqlite from handing out the id of a deleted row again.
const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT    NOT NULL,
	status   TEXT    NOT NULL,
	priority TEXT    NOT NULL,
	capacity INTEGER NOT NULL,
	effort   INTEGER NOT NULL,
	subject  TEXT    NOT NULL,
	due_date TEXT    NOT NULL DEFAULT ''
)`

const taskColumns = `id, name, status, priority, capacity, effort, subject, due_date`

// SQLRepo stores tasks in sqlite through sqlx.
type SQLRepo struct {
	db *sqlx.DB
}

// OpenSQLite opens dsn with the pure-Go sqlite driver and creates the
// schema. A single connection serializes every statement, which also keeps
// ":memory:" databases from splitting across connections.
func OpenSQLite(ctx context.Context, dsn string) (*SQLRepo, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLRepo{db: db}, nil
}

func (r *SQLRepo) Close() error {
	return r.db.Close()
}

func (r *SQLRepo) Create(ctx context.Context, f Fields) (Task, error) {
	f, err := f.Normalize()
	if err != nil {
		return Task{}, err
	}
	res, err := r.db.NamedExecContext(ctx,
		`INSERT INTO tasks (name, status, priority, capacity, effort, subject, due_date)
		 VALUES (:name, :status, :priority, :capacity, :effort, :subject, :due_date)`, f)
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return Task{ID: id, Fields: f}, nil
}

func (r *SQLRepo) List(ctx context.Context, skip, limit int) ([]Task, error) {
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}
	out := []Task{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+taskColumns+` FROM tasks ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func (r *SQLRepo) Get(ctx context.Context, id int64) (Task, error) {
	var t Task
	err := r.db.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLRepo) Update(ctx context.Context, id int64, f Fields) (Task, error) {
	f, err := f.Normalize()
	if err != nil {
		return Task{}, err
	}
	t := Task{ID: id, Fields: f}
	res, err := r.db.NamedExecContext(ctx,
		`UPDATE tasks SET name = :name, status = :status, priority = :priority,
		 capacity = :capacity, effort = :effort, subject = :subject, due_date = :due_date
		 WHERE id = :id`, t)
	if err != nil {
		return Task{}, fmt.Errorf("update task %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return Task{}, fmt.Errorf("update task %d: %w", id, err)
	} else if n == 0 {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *SQLRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tasks`); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}
