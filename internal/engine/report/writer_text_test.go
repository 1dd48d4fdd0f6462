package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"StreamSketch/internal/engine/card"
	"StreamSketch/internal/engine/exact"
	"StreamSketch/internal/engine/freq"
)

func TestTextWriter(t *testing.T) {
	root := t.TempDir()
	w := NewTextWriter(root, 10*time.Second)

	if w.GetInterval() != 10*time.Second {
		t.Errorf("GetInterval() = %v", w.GetInterval())
	}

	snap := freq.Snapshot{
		TaskName: "per_src_freq",
		Total:    1234,
		HeavyHitters: []freq.HeavyHitter{
			{Display: "10.0.0.1", Count: 800},
			{Display: "10.0.0.2", Count: 400},
		},
	}
	if err := w.Write(snap, "2026-01-02_15-04-05", "per_src_freq"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(root, "2026-01-02_15-04-05", "per_src_freq.txt"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "total 1234") || !strings.Contains(text, "10.0.0.1 800") {
		t.Errorf("unexpected freq snapshot contents:\n%s", text)
	}

	if err := w.Write(card.Snapshot{TaskName: "c", Distinct: 42, StandardError: 0.0325},
		"2026-01-02_15-04-05", "c"); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(exact.Snapshot{TaskName: "o", Total: 10, Distinct: 3},
		"2026-01-02_15-04-05", "o"); err != nil {
		t.Fatal(err)
	}

	if err := w.Write("not a snapshot", "2026-01-02_15-04-05", "bad"); err == nil {
		t.Error("unknown payload type accepted")
	}
}
