package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"task-tracker/internal/models"
)

func sampleTasks() []models.Task {
	return []models.Task{
		{Name: "Buy milk", Priority: models.PriorityLow, DueDate: models.NewDate(2024, 1, 1)},
		{Name: "Write report", Priority: "Urgent", Completed: true},
		{Name: "Call mom", Priority: models.PriorityHigh, DueDate: models.NewDate(2023, 12, 24)},
	}
}

// backends returns every Storage implementation rooted in a fresh temp dir.
func backends(t *testing.T) map[string]Storage {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := NewSQLiteStorage(filepath.Join(dir, "db", "tasks.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}

	all := map[string]Storage{
		"json":   NewJSONStorage(filepath.Join(dir, "tasks.json")),
		"sqlite": sqlite,
		"memory": NewMemoryStorage(),
	}
	t.Cleanup(func() {
		for _, s := range all {
			_ = s.Close()
		}
	})
	return all
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			tasks, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load on empty store: %v", err)
			}
			if len(tasks) != 0 {
				t.Fatalf("expected empty store, got %d tasks", len(tasks))
			}

			want := sampleTasks()
			if err := s.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("got %d tasks, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("task %d: got %+v, want %+v", i, got[i], want[i])
				}
			}

			// Save overwrites rather than appends.
			if err := s.Save(ctx, want[:1]); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err = s.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got) != 1 || got[0] != want[0] {
				t.Errorf("expected only the first task, got %+v", got)
			}
		})
	}
}

func TestJSONStorageFileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	s := NewJSONStorage(path)
	defer s.Close()

	task := models.Task{Name: "Buy milk", Priority: models.PriorityLow, DueDate: models.NewDate(2024, 1, 1)}
	if err := s.Save(context.Background(), []models.Task{task}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `[
    {
        "task": "Buy milk",
        "priority": "Low",
        "due_date": "2024-01-01",
        "completed": false
    }
]
`
	if string(data) != want {
		t.Errorf("unexpected file content:\n%s", data)
	}
}

func TestJSONStorageCloseRemovesLockFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	s := NewJSONStorage(path)

	if err := s.Save(context.Background(), []models.Task{{Name: "Buy milk"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Fatalf("lock file should exist while the store is open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "tasks.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only tasks.json after Close, got %v", names)
	}
}

func TestJSONStorageLoadMalformed(t *testing.T) {
	cases := []struct {
		name    string
		content string
		path    string
	}{
		{"bad due date", `[{"task":"a","priority":"Low","due_date":"2024-13-45","completed":false}]`, "/0/due_date"},
		{"missing completed", `[{"task":"a","priority":"Low"}]`, "/0"},
		{"completed not bool", `[{"task":"a","priority":"Low","completed":"yes"}]`, "/0/completed"},
		{"not an array", `{"task":"a"}`, "/"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tasks.json")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := NewJSONStorage(path).Load(context.Background())
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Path != tc.path {
				t.Errorf("path = %q, want %q (%v)", ve.Path, tc.path, ve)
			}
		})
	}

	t.Run("not json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tasks.json")
		if err := os.WriteFile(path, []byte("[{"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := NewJSONStorage(path).Load(context.Background())
		if err == nil || !strings.Contains(err.Error(), "decode task file") {
			t.Errorf("expected decode error, got %v", err)
		}
	})
}

func TestJSONStorageAcceptsHandEditedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	content := `[
  {"task": "a", "priority": "low", "due_date": null, "completed": false},
  {"task": "b", "priority": "High", "due_date": "", "completed": true},
  {"task": "c", "priority": "Medium", "completed": false}
]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	tasks, err := NewJSONStorage(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks", len(tasks))
	}
	for _, task := range tasks {
		if !task.DueDate.IsZero() {
			t.Errorf("task %q: expected no due date", task.Name)
		}
	}
	if tasks[0].Priority != "low" {
		t.Errorf("priority must be kept verbatim on load, got %q", tasks[0].Priority)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(DriverJSON, filepath.Join(dir, "tasks.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*JSONStorage); !ok {
		t.Errorf("json driver returned %T", s)
	}

	s, err = Open(DriverSQLite, filepath.Join(dir, "tasks.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStorage); !ok {
		t.Errorf("sqlite driver returned %T", s)
	}

	if _, err := Open("postgres", ""); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestMemoryStorageSaveErr(t *testing.T) {
	s := NewMemoryStorage(sampleTasks()...)
	s.SaveErr = errors.New("disk full")

	if err := s.Save(context.Background(), nil); !errors.Is(err, s.SaveErr) {
		t.Fatalf("expected SaveErr, got %v", err)
	}
	tasks, _ := s.Load(context.Background())
	if len(tasks) != 3 || s.Saves() != 0 {
		t.Errorf("failed save must not change contents")
	}
}
