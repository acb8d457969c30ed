package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"task-tracker/internal/models"
)

// Storage loads and saves the whole task collection at once. There are no
// partial writes: Save always replaces everything that was stored before.
type Storage interface {
	Load(ctx context.Context) ([]models.Task, error)
	Save(ctx context.Context, tasks []models.Task) error
	Close() error
}

// Supported drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open returns the storage backend for driver. path is ignored by the
// memory driver.
func Open(driver, path string) (Storage, error) {
	switch driver {
	case "", DriverJSON:
		return NewJSONStorage(path), nil
	case DriverSQLite:
		return NewSQLiteStorage(path)
	case DriverMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q (use json, sqlite or memory)", driver)
	}
}

// MemoryStorage keeps the collection in memory. It is used by tests and by
// the memory driver.
type MemoryStorage struct {
	tasks []models.Task
	saves int
	mu    sync.Mutex
	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

func NewMemoryStorage(tasks ...models.Task) *MemoryStorage {
	return &MemoryStorage{tasks: slices.Clone(tasks)}
}

func (m *MemoryStorage) Load(ctx context.Context) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.tasks), nil
}

func (m *MemoryStorage) Save(ctx context.Context, tasks []models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.tasks = slices.Clone(tasks)
	m.saves++
	return nil
}

// Saves reports how many successful Save calls were made.
func (m *MemoryStorage) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saves
}

func (m *MemoryStorage) Close() error {
	return nil
}
