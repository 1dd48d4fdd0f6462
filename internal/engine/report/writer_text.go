// Package report writes periodic task snapshots as human-readable text
// files, one directory per snapshot timestamp.
package report

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"StreamSketch/internal/engine/card"
	"StreamSketch/internal/engine/exact"
	"StreamSketch/internal/engine/freq"
	"StreamSketch/internal/model"
)

// TextWriter implements model.Writer on top of plain text files.
type TextWriter struct {
	rootPath string
	interval time.Duration
}

// NewTextWriter creates a writer rooted at rootPath.
func NewTextWriter(rootPath string, interval time.Duration) model.Writer {
	return &TextWriter{rootPath: rootPath, interval: interval}
}

// GetInterval returns the snapshot interval.
func (w *TextWriter) GetInterval() time.Duration {
	return w.interval
}

// Write renders one task snapshot into <root>/<timestamp>/<task>.txt.
func (w *TextWriter) Write(payload interface{}, timestamp, taskName string) error {
	dir := filepath.Join(w.rootPath, timestamp)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	filePath := filepath.Join(dir, taskName+".txt")
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", filePath, err)
	}
	defer file.Close()

	switch p := payload.(type) {
	case freq.Snapshot:
		fmt.Fprintf(file, "task %s total %d heavy_hitters %d\n", p.TaskName, p.Total, len(p.HeavyHitters))
		for _, hh := range p.HeavyHitters {
			fmt.Fprintf(file, "%s %d\n", hh.Display, hh.Count)
		}
	case card.Snapshot:
		fmt.Fprintf(file, "task %s distinct %d expected_error %.4f\n", p.TaskName, p.Distinct, p.StandardError)
	case exact.Snapshot:
		fmt.Fprintf(file, "task %s total %d distinct %d\n", p.TaskName, p.Total, p.Distinct)
	default:
		return fmt.Errorf("invalid payload type for TextWriter: %T", payload)
	}

	log.Printf("Wrote snapshot for task %s to %s", taskName, filePath)
	return nil
}
