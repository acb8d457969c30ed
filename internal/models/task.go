package models

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Priority is a task priority label. Low, Medium and High are the known
// values; anything else is kept verbatim and ranks below Low.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// NormalizePriority capitalises a user supplied label: first letter upper
// case, the rest lower case. "hIGH" becomes "High", "" stays "".
func NormalizePriority(label string) Priority {
	r, size := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return Priority(label)
	}
	return Priority(string(unicode.ToUpper(r)) + strings.ToLower(label[size:]))
}

// Rank orders priorities for sorting. Unknown labels rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// Known reports whether p is one of Low, Medium or High.
func (p Priority) Known() bool {
	return p.Rank() > 0
}

func (p Priority) String() string {
	return string(p)
}

// Task is a single to-do record. ID only lives in memory: it is assigned
// when a task is loaded or created and is never written to the store.
type Task struct {
	ID        string   `json:"-" yaml:"-"`
	Name      string   `json:"task" yaml:"task"`
	Priority  Priority `json:"priority" yaml:"priority"`
	DueDate   Date     `json:"due_date" yaml:"due_date"`
	Completed bool     `json:"completed" yaml:"completed"`
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Name     string `json:"task"`
	Priority string `json:"priority"`
	DueDate  string `json:"due_date"`
}

// UpdateTaskRequest is the body of PATCH /tasks/{id}. Absent fields are
// left unchanged.
type UpdateTaskRequest struct {
	Name     *string `json:"task,omitempty"`
	Priority *string `json:"priority,omitempty"`
	DueDate  *string `json:"due_date,omitempty"`
}
