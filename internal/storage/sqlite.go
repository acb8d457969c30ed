package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"task-tracker/internal/logger"
	"task-tracker/internal/models"

	_ "modernc.org/sqlite"
)

// DefaultSQLitePath is used by the sqlite driver when no path is configured.
const DefaultSQLitePath = "data/tasks.db"

// SQLiteStorage keeps the collection in a single table ordered by position.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		dbPath = DefaultSQLitePath
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A second connection to ":memory:" would see a different database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStorage{db: db}, nil
}

func createTables(db *sql.DB) error {
	createTasksTable := `
	CREATE TABLE IF NOT EXISTS tasks (
		position INTEGER PRIMARY KEY,
		task TEXT NOT NULL,
		priority TEXT NOT NULL DEFAULT '',
		due_date TEXT,
		completed BOOLEAN NOT NULL DEFAULT FALSE
	)`

	if _, err := db.Exec(createTasksTable); err != nil {
		return fmt.Errorf("create table tasks: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Load(ctx context.Context) ([]models.Task, error) {
	query := `
	SELECT task, priority, due_date, completed
	FROM tasks ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "tasks loaded", "driver", DriverSQLite, "count", len(tasks))
	return tasks, nil
}

func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		var priority string
		var dueDate sql.NullString

		if err := rows.Scan(&task.Name, &priority, &dueDate, &task.Completed); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}

		task.Priority = models.Priority(priority)

		if dueDate.Valid && dueDate.String != "" {
			d, err := models.ParseDate(dueDate.String)
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", task.Name, err)
			}
			task.DueDate = d
		}

		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	return tasks, nil
}

// Save replaces every row in one transaction.
func (s *SQLiteStorage) Save(ctx context.Context, tasks []models.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO tasks (position, task, priority, due_date, completed)
	VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, task := range tasks {
		var dueDate any
		if !task.DueDate.IsZero() {
			dueDate = task.DueDate.String()
		}
		if _, err := stmt.ExecContext(ctx, i, task.Name, task.Priority.String(), dueDate, task.Completed); err != nil {
			return fmt.Errorf("insert task %q: %w", task.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Debug(ctx, "tasks saved", "driver", DriverSQLite, "count", len(tasks))
	return nil
}
