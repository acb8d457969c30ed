package manager

import (
	"fmt"
	"slices"
	"strings"

	"task-tracker/internal/models"
)

// StatusFilter selects tasks by completion state.
type StatusFilter string

const (
	StatusAll       StatusFilter = ""
	StatusCompleted StatusFilter = "completed"
	StatusPending   StatusFilter = "pending"
)

// SortKey selects the view order. SortNone keeps stored order.
type SortKey string

const (
	SortNone     SortKey = ""
	SortDueDate  SortKey = "due_date"
	SortPriority SortKey = "priority"
)

type ViewOptions struct {
	Status StatusFilter
	SortBy SortKey
}

func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(s)); f {
	case StatusAll, StatusCompleted, StatusPending:
		return f, nil
	case "all":
		return StatusAll, nil
	default:
		return StatusAll, fmt.Errorf("unknown status filter %q (use completed or pending)", s)
	}
}

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(s)); k {
	case SortNone, SortDueDate, SortPriority:
		return k, nil
	default:
		return SortNone, fmt.Errorf("unknown sort key %q (use due_date or priority)", s)
	}
}

// ApplyView filters and sorts a copy of tasks; tasks itself is not touched.
// Both sorts are stable. Tasks without a due date come first in due date
// order, and unknown priorities come before Low.
func ApplyView(tasks []models.Task, opts ViewOptions) []models.Task {
	view := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		switch opts.Status {
		case StatusCompleted:
			if !t.Completed {
				continue
			}
		case StatusPending:
			if t.Completed {
				continue
			}
		}
		view = append(view, t)
	}

	switch opts.SortBy {
	case SortDueDate:
		slices.SortStableFunc(view, func(a, b models.Task) int {
			return a.DueDate.Time().Compare(b.DueDate.Time())
		})
	case SortPriority:
		slices.SortStableFunc(view, func(a, b models.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		})
	}
	return view
}
