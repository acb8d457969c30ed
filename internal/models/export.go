package models

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	yaml "gopkg.in/yaml.v3"
)

// Export formats understood by WriteTasks.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// WriteTasks writes tasks in the given format.
func WriteTasks(w io.Writer, format string, tasks []Task) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, tasks)
	case FormatCSV:
		return WriteCSV(w, tasks)
	case FormatYAML:
		return WriteYAML(w, tasks)
	default:
		return fmt.Errorf("unsupported format %q (use json, csv or yaml)", format)
	}
}

// WriteJSON writes the store layout: a JSON array indented with four spaces.
// An empty collection is written as [].
func WriteJSON(w io.Writer, tasks []Task) error {
	if tasks == nil {
		tasks = []Task{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(tasks)
}

func WriteCSV(w io.Writer, tasks []Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"task", "priority", "due_date", "completed"}); err != nil {
		return err
	}
	for _, task := range tasks {
		record := []string{
			task.Name,
			task.Priority.String(),
			task.DueDate.String(),
			strconv.FormatBool(task.Completed),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteYAML(w io.Writer, tasks []Task) error {
	if tasks == nil {
		tasks = []Task{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tasks); err != nil {
		return err
	}
	return enc.Close()
}
