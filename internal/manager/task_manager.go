package manager

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"task-tracker/internal/logger"
	"task-tracker/internal/models"
	"task-tracker/internal/storage"
)

var (
	addTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_tasks_added_total",
			Help: "Total number of AddTask operations",
		},
		[]string{"status"},
	)

	updateTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_tasks_updated_total",
			Help: "Total number of UpdateTask operations",
		},
		[]string{"status"},
	)

	completeTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_tasks_completed_total",
			Help: "Total number of CompleteTask operations",
		},
		[]string{"status"},
	)

	deleteTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_tasks_deleted_total",
			Help: "Total number of DeleteTask operations",
		},
		[]string{"status"},
	)

	taskNameLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tasktracker_task_name_length_bytes",
			Help:    "Length distribution of task names",
			Buckets: []float64{10, 50, 100, 500, 1000},
		},
	)

	saveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tasktracker_store_save_duration_seconds",
			Help:    "Duration of a full store write in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	tasksGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tasktracker_tasks",
			Help: "Number of tasks in the collection by state",
		},
		[]string{"state"},
	)
)

// ErrTaskNotFound is returned when an id does not match any task.
var ErrTaskNotFound = errors.New("task not found")

// UpdateTaskRequest carries an edit. Nil fields keep the current value.
type UpdateTaskRequest struct {
	Name     *string
	Priority *string
	DueDate  *models.Date
}

// TaskManager owns the in-memory collection and writes it back to storage
// after every mutation. The collection only changes once the write succeeded.
type TaskManager struct {
	storage storage.Storage
	tasks   []models.Task
	mu      sync.Mutex
}

// NewTaskManager loads the collection from st and assigns every task an id.
func NewTaskManager(ctx context.Context, st storage.Storage) (*TaskManager, error) {
	tasks, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].ID = uuid.NewString()
	}

	tm := &TaskManager{storage: st, tasks: tasks}
	tm.updateGauges()
	logger.Info(ctx, "tasks loaded", "count", len(tasks))
	return tm, nil
}

// AddTask appends a pending task. The priority label is capitalised; a zero
// due date means "no date". Names are not validated and may repeat.
func (tm *TaskManager) AddTask(ctx context.Context, name, priority string, due models.Date) (models.Task, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	task := models.Task{
		ID:        uuid.NewString(),
		Name:      name,
		Priority:  models.NormalizePriority(priority),
		DueDate:   due,
		Completed: false,
	}

	if !task.Priority.Known() {
		logger.Debug(ctx, "keeping non-standard priority label", "priority", task.Priority)
	}

	next := append(slices.Clone(tm.tasks), task)
	if err := tm.commit(ctx, next); err != nil {
		addTaskCount.WithLabelValues("error").Inc()
		return models.Task{}, err
	}

	addTaskCount.WithLabelValues("success").Inc()
	taskNameLength.Observe(float64(len(name)))
	logger.Info(ctx, "task added", "id", task.ID, "priority", task.Priority, "due_date", task.DueDate.String())
	return task, nil
}

// UpdateTask applies req to the task with the given id.
func (tm *TaskManager) UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (models.Task, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	i := tm.indexOf(id)
	if i < 0 {
		updateTaskCount.WithLabelValues("error").Inc()
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	next := slices.Clone(tm.tasks)
	task := &next[i]
	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Priority != nil {
		task.Priority = models.NormalizePriority(*req.Priority)
	}
	if req.DueDate != nil {
		task.DueDate = *req.DueDate
	}

	if err := tm.commit(ctx, next); err != nil {
		updateTaskCount.WithLabelValues("error").Inc()
		return models.Task{}, err
	}

	updateTaskCount.WithLabelValues("success").Inc()
	logger.Info(ctx, "task updated", "id", id)
	return next[i], nil
}

// CompleteTask marks the task as completed. There is no way back to pending.
func (tm *TaskManager) CompleteTask(ctx context.Context, id string) (models.Task, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	i := tm.indexOf(id)
	if i < 0 {
		completeTaskCount.WithLabelValues("error").Inc()
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	next := slices.Clone(tm.tasks)
	next[i].Completed = true

	if err := tm.commit(ctx, next); err != nil {
		completeTaskCount.WithLabelValues("error").Inc()
		return models.Task{}, err
	}

	completeTaskCount.WithLabelValues("success").Inc()
	logger.Info(ctx, "task completed", "id", id)
	return next[i], nil
}

// DeleteTask removes the task; every later task moves up one position.
func (tm *TaskManager) DeleteTask(ctx context.Context, id string) (models.Task, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	i := tm.indexOf(id)
	if i < 0 {
		deleteTaskCount.WithLabelValues("error").Inc()
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	removed := tm.tasks[i]
	next := slices.Delete(slices.Clone(tm.tasks), i, i+1)

	if err := tm.commit(ctx, next); err != nil {
		deleteTaskCount.WithLabelValues("error").Inc()
		return models.Task{}, err
	}

	deleteTaskCount.WithLabelValues("success").Inc()
	logger.Info(ctx, "task deleted", "id", id)
	return removed, nil
}

func (tm *TaskManager) GetTask(id string) (models.Task, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	i := tm.indexOf(id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return tm.tasks[i], nil
}

// GetAllTasks returns a copy of the collection in stored order.
func (tm *TaskManager) GetAllTasks() []models.Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	return slices.Clone(tm.tasks)
}

// ListTasks returns a filtered and sorted copy of the collection.
func (tm *TaskManager) ListTasks(opts ViewOptions) []models.Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	return ApplyView(tm.tasks, opts)
}

func (tm *TaskManager) indexOf(id string) int {
	return slices.IndexFunc(tm.tasks, func(t models.Task) bool {
		return t.ID == id
	})
}

// commit writes next to storage and makes it the current collection. The
// caller holds tm.mu.
func (tm *TaskManager) commit(ctx context.Context, next []models.Task) error {
	startTime := time.Now()
	err := tm.storage.Save(ctx, next)
	saveDuration.Observe(time.Since(startTime).Seconds())
	if err != nil {
		logger.Error(ctx, err, "save tasks")
		return fmt.Errorf("save tasks: %w", err)
	}

	tm.tasks = next
	tm.updateGauges()
	return nil
}

func (tm *TaskManager) updateGauges() {
	var completed int
	for _, t := range tm.tasks {
		if t.Completed {
			completed++
		}
	}
	tasksGauge.WithLabelValues("completed").Set(float64(completed))
	tasksGauge.WithLabelValues("pending").Set(float64(len(tm.tasks) - completed))
}
