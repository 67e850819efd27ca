// Package tasks stores task records. Ids are assigned from a strictly
// increasing sequence and are never reused, even after deletes.
package tasks

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("task not found")
	ErrInvalidTask = errors.New("invalid task")
)

type Status string

const (
	StatusNotStarted Status = "Pas commencé"
	StatusInProgress Status = "En cours"
	StatusDone       Status = "Terminé"
	StatusBlocked    Status = "Bloqué"
)

var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusDone, StatusBlocked}

type Priority string

const (
	PriorityLow    Priority = "Basse"
	PriorityNormal Priority = "Normal"
	PriorityHigh   Priority = "Haute"
	PriorityUrgent Priority = "Urgente"
)

var Priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

const DefaultSubject = "Général"

// Fields are the mutable parts of a task.
type Fields struct {
	Name     string   `json:"name" db:"name"`
	Status   Status   `json:"status" db:"status"`
	Priority Priority `json:"priority" db:"priority"`
	Capacity int      `json:"capacity" db:"capacity"`
	Effort   int      `json:"effort" db:"effort"`
	Subject  string   `json:"subject" db:"subject"`
	DueDate  string   `json:"due_date,omitempty" db:"due_date"` // YYYY-MM-DD
}

type Task struct {
	ID int64 `json:"id" db:"id"`
	Fields
}

// Normalize fills defaults and validates f. Errors wrap ErrInvalidTask.
func (f Fields) Normalize() (Fields, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Subject = strings.TrimSpace(f.Subject)
	f.DueDate = strings.TrimSpace(f.DueDate)
	if f.Subject == "" {
		f.Subject = DefaultSubject
	}

	var problems []string
	if f.Name == "" {
		problems = append(problems, "name is required")
	}
	if !slices.Contains(Statuses, f.Status) {
		problems = append(problems, fmt.Sprintf("unknown status %q", f.Status))
	}
	if !slices.Contains(Priorities, f.Priority) {
		problems = append(problems, fmt.Sprintf("unknown priority %q", f.Priority))
	}
	if f.Capacity < 0 {
		problems = append(problems, "capacity must not be negative")
	}
	if f.Effort < 0 {
		problems = append(problems, "effort must not be negative")
	}
	if f.DueDate != "" {
		if _, err := time.Parse(time.DateOnly, f.DueDate); err != nil {
			problems = append(problems, fmt.Sprintf("due_date %q is not YYYY-MM-DD", f.DueDate))
		}
	}
	if len(problems) > 0 {
		return Fields{}, fmt.Errorf("%w: %s", ErrInvalidTask, strings.Join(problems, "; "))
	}
	return f, nil
}

// window clamps skip and limit to [0, n] and returns the slice bounds.
func window(n, skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}
	if skip > n {
		skip = n
	}
	end := n
	if limit < n-skip {
		end = skip + limit
	}
	return skip, end
}
