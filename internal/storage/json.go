package storage

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"task-tracker/internal/logger"
	"task-tracker/internal/models"
)

// DefaultJSONPath is the store location when nothing else is configured.
const DefaultJSONPath = "tasks.json"

//go:embed tasks.schema.json
var schemaJSON string

const schemaURL = "tasks.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func taskSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// ValidationError describes the first schema violation found in a task file.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "invalid task file: " + e.Message
	}
	return fmt.Sprintf("invalid task file at %s: %s", e.Path, e.Message)
}

// JSONStorage keeps the collection in a single pretty-printed JSON file.
// Reads and writes hold an advisory lock on a sibling ".lock" file, which
// Close removes.
type JSONStorage struct {
	path string
	flk  *flock.Flock
}

func NewJSONStorage(path string) *JSONStorage {
	if path == "" {
		path = DefaultJSONPath
	}
	return &JSONStorage{
		path: path,
		flk:  flock.New(path + ".lock"),
	}
}

// Load returns an empty collection when the file does not exist yet.
func (s *JSONStorage) Load(ctx context.Context) ([]models.Task, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		logger.Debug(ctx, "task file not found, starting empty", "path", s.path)
		return []models.Task{}, nil
	}

	if err := s.flk.RLock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", s.path, err)
	}
	defer func() { _ = s.flk.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Task{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	tasks, err := decodeTasks(data)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "tasks loaded", "path", s.path, "count", len(tasks))
	return tasks, nil
}

func decodeTasks(data []byte) ([]models.Task, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Task{}, nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode task file: %w", err)
	}

	sch, err := taskSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(doc); err != nil {
		return nil, toValidationError(err)
	}

	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decode task file: %w", err)
	}
	return tasks, nil
}

func toValidationError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ValidationError{Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[len(ve.Causes)-1]
	}
	path := ve.InstanceLocation
	if path == "" {
		path = "/"
	}
	return &ValidationError{Path: path, Message: ve.Message}
}

// Save overwrites the file with the whole collection. The write is not
// atomic: a failure part way through can leave a truncated file.
func (s *JSONStorage) Save(ctx context.Context, tasks []models.Task) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", s.path, err)
	}
	defer func() { _ = s.flk.Unlock() }()

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	if err := models.WriteJSON(f, tasks); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}

	logger.Debug(ctx, "tasks saved", "path", s.path, "count", len(tasks))
	return nil
}

// Close releases the lock and removes the lock file, leaving only the task
// file behind.
func (s *JSONStorage) Close() error {
	if err := s.flk.Close(); err != nil {
		return fmt.Errorf("unlock %s: %w", s.path, err)
	}
	if err := os.Remove(s.flk.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
