// Package menu runs the interactive numbered menu on top of a TaskManager.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"task-tracker/internal/logger"
	"task-tracker/internal/manager"
	"task-tracker/internal/models"
	"task-tracker/internal/ui"
)

type state int

const (
	running state = iota
	exited
)

// Menu choices, matched exactly against the input line.
const (
	ChoiceAdd           = "1"
	ChoiceView          = "2"
	ChoiceComplete      = "3"
	ChoiceEdit          = "4"
	ChoiceDelete        = "5"
	ChoiceViewCompleted = "6"
	ChoiceViewPending   = "7"
	ChoiceSortDueDate   = "8"
	ChoiceSortPriority  = "9"
	ChoiceExit          = "10"
)

var menuItems = []struct{ key, label string }{
	{ChoiceAdd, "Add Task"},
	{ChoiceView, "View Tasks"},
	{ChoiceComplete, "Complete Task"},
	{ChoiceEdit, "Edit Task"},
	{ChoiceDelete, "Delete Task"},
	{ChoiceViewCompleted, "View Completed Tasks"},
	{ChoiceViewPending, "View Pending Tasks"},
	{ChoiceSortDueDate, "Sort Tasks by Due Date"},
	{ChoiceSortPriority, "Sort Tasks by Priority"},
	{ChoiceExit, "Exit"},
}

type Menu struct {
	tm    *manager.TaskManager
	in    *bufio.Reader
	out   io.Writer
	theme ui.Theme
}

func New(tm *manager.TaskManager, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		tm:    tm,
		in:    bufio.NewReader(in),
		out:   out,
		theme: ui.NewTheme(out),
	}
}

// Run loops until the exit choice or end of input. Errors from the store
// end the loop and are returned; everything else is reported and the loop
// goes on.
func (m *Menu) Run(ctx context.Context) error {
	for st := running; st == running; {
		m.printMenu()

		choice, err := m.prompt("\nEnter your choice: ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(m.out)
			return nil
		}
		if err != nil {
			return err
		}

		st, err = m.dispatch(ctx, choice)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(m.out)
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Menu) printMenu() {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, m.theme.Title.Render("Task Tracker Menu:"))
	for _, item := range menuItems {
		fmt.Fprintln(m.out, m.theme.Key.Render(item.key+".")+" "+item.label)
	}
}

func (m *Menu) dispatch(ctx context.Context, choice string) (state, error) {
	ctx = logger.WithFields(ctx, "choice", choice)
	logger.Debug(ctx, "menu choice")

	var err error
	switch choice {
	case ChoiceAdd:
		err = m.addTask(ctx)
	case ChoiceView:
		m.viewTasks(manager.ViewOptions{})
	case ChoiceComplete:
		err = m.completeTask(ctx)
	case ChoiceEdit:
		err = m.editTask(ctx)
	case ChoiceDelete:
		err = m.deleteTask(ctx)
	case ChoiceViewCompleted:
		m.viewTasks(manager.ViewOptions{Status: manager.StatusCompleted})
	case ChoiceViewPending:
		m.viewTasks(manager.ViewOptions{Status: manager.StatusPending})
	case ChoiceSortDueDate:
		m.viewTasks(manager.ViewOptions{SortBy: manager.SortDueDate})
	case ChoiceSortPriority:
		m.viewTasks(manager.ViewOptions{SortBy: manager.SortPriority})
	case ChoiceExit:
		fmt.Fprintln(m.out, "Exiting Task Tracker. Goodbye!")
		return exited, nil
	default:
		fmt.Fprintln(m.out, m.theme.Warn.Render("Invalid choice. Please select a valid option."))
	}
	return running, err
}

// prompt prints p and reads one line without its line terminator. A final
// line without a newline is still returned; io.EOF only comes with no input.
func (m *Menu) prompt(p string) (string, error) {
	fmt.Fprint(m.out, p)
	line, err := m.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// viewTasks prints the view with 1-based positions and returns it.
func (m *Menu) viewTasks(opts manager.ViewOptions) []models.Task {
	view := m.tm.ListTasks(opts)
	if len(view) == 0 {
		fmt.Fprintln(m.out, "No tasks found!")
		return nil
	}

	for i, task := range view {
		due := task.DueDate.Display()
		if task.DueDate.IsZero() {
			due = m.theme.Muted.Render(due)
		}
		fmt.Fprintf(m.out, "%d. %s - %s - Due: %s - %s\n",
			i+1, task.Name, task.Priority, due, m.theme.StatusMark(task.Completed))
	}
	return view
}

// readPosition asks for a 1-based position in a view of n tasks and returns
// it 0-based. ok is false when the input was not a usable position; the
// reason has already been printed.
func (m *Menu) readPosition(p string, n int) (pos int, ok bool, err error) {
	line, err := m.prompt(p)
	if err != nil {
		return 0, false, err
	}

	num, convErr := strconv.Atoi(strings.TrimSpace(line))
	if convErr != nil {
		fmt.Fprintln(m.out, m.theme.Warn.Render("Invalid input. Please enter a number."))
		return 0, false, nil
	}
	if num < 1 || num > n {
		fmt.Fprintln(m.out, m.theme.Bad.Render("Invalid task number."))
		return 0, false, nil
	}
	return num - 1, true, nil
}

func (m *Menu) addTask(ctx context.Context) error {
	name, err := m.prompt("Enter the task name: ")
	if err != nil {
		return err
	}
	priority, err := m.prompt("Enter task priority (Low/Medium/High): ")
	if err != nil {
		return err
	}
	dueInput, err := m.prompt("Enter due date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}

	// An empty answer means "no due date" and is not reported as a bad date.
	var due models.Date
	if dueInput != "" {
		if due, err = models.ParseDate(dueInput); err != nil {
			logger.Warn(ctx, "rejected due date", "input", dueInput)
			fmt.Fprintln(m.out, m.theme.Warn.Render("Invalid date format. Task will be added without a due date."))
		}
	}

	task, err := m.tm.AddTask(ctx, name, priority, due)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Task %q added with priority %s and due date %s.\n",
		task.Name, task.Priority, task.DueDate.Display())
	return nil
}

// completeTask offers only pending tasks. The chosen position is resolved
// through the task id, so completed tasks earlier in the collection do not
// shift the selection.
func (m *Menu) completeTask(ctx context.Context) error {
	view := m.viewTasks(manager.ViewOptions{Status: manager.StatusPending})
	if len(view) == 0 {
		return nil
	}

	pos, ok, err := m.readPosition("Enter the task number to mark as completed: ", len(view))
	if err != nil || !ok {
		return err
	}

	task, err := m.tm.CompleteTask(logger.WithFields(ctx, "position", pos+1), view[pos].ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Task %q marked as completed.\n", task.Name)
	return nil
}

func (m *Menu) deleteTask(ctx context.Context) error {
	view := m.viewTasks(manager.ViewOptions{})
	if len(view) == 0 {
		return nil
	}

	pos, ok, err := m.readPosition("Enter the task number to delete: ", len(view))
	if err != nil || !ok {
		return err
	}

	task, err := m.tm.DeleteTask(logger.WithFields(ctx, "position", pos+1), view[pos].ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Task %q deleted.\n", task.Name)
	return nil
}

func (m *Menu) editTask(ctx context.Context) error {
	view := m.viewTasks(manager.ViewOptions{})
	if len(view) == 0 {
		return nil
	}

	pos, ok, err := m.readPosition("Enter the task number to edit: ", len(view))
	if err != nil || !ok {
		return err
	}
	task := view[pos]
	fmt.Fprintf(m.out, "Editing task: %s\n", task.Name)

	name, err := m.prompt(fmt.Sprintf("Enter new name (or leave empty to keep '%s'): ", task.Name))
	if err != nil {
		return err
	}
	priority, err := m.prompt(fmt.Sprintf("Enter new priority (Low/Medium/High) or leave empty to keep '%s': ", task.Priority))
	if err != nil {
		return err
	}
	dueInput, err := m.prompt(fmt.Sprintf("Enter new due date (YYYY-MM-DD) or leave empty to keep '%s': ", task.DueDate.Display()))
	if err != nil {
		return err
	}

	var req manager.UpdateTaskRequest
	if name != "" {
		req.Name = &name
	}
	if priority != "" {
		req.Priority = &priority
	}
	if dueInput != "" {
		if due, err := models.ParseDate(dueInput); err == nil {
			req.DueDate = &due
		} else {
			fmt.Fprintln(m.out, m.theme.Warn.Render("Invalid date format. Due date not changed."))
		}
	}

	updated, err := m.tm.UpdateTask(logger.WithFields(ctx, "position", pos+1), task.ID, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Task %q updated.\n", updated.Name)
	return nil
}
