package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"task-tracker/internal/storage"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "task-tracker.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Driver != storage.DriverJSON || cfg.Storage.Path != "tasks.json" {
		t.Errorf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Server.Addr != DefaultServerAddr || cfg.Source != "" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	content := "[log]\nlevel = \"debug\"\n"
	if err := os.WriteFile(".task-tracker.toml", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" || cfg.Source != ".task-tracker.toml" {
		t.Errorf("project file not applied: %+v", cfg)
	}
	if cfg.Storage.Path != "tasks.json" {
		t.Errorf("unset keys must keep defaults: %+v", cfg.Storage)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	path := writeConfig(t, `
[storage]
driver = "SQLite"

[log]
format = "json"
file = "tracker.log"

[server]
addr = ":9090"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Driver != storage.DriverSQLite || cfg.Storage.Path != storage.DefaultSQLitePath {
		t.Errorf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.Log.Format != "json" || cfg.Log.File != "tracker.log" || cfg.Server.Addr != ":9090" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"bad driver": "[storage]\ndriver = \"redis\"\n",
		"bad level":  "[log]\nlevel = \"loud\"\n",
		"bad format": "[log]\nformat = \"xml\"\n",
		"bad toml":   "[storage\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "missing.toml") {
		t.Errorf("expected error naming the missing file, got %v", err)
	}
}

// chdir changes the working directory for the duration of the test, like
// testing.T.Chdir (Go 1.24+), and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
