// Package card implements the cardinality-estimation task: one HyperLogLog
// shard per worker, merged by register maxima when an estimate is needed.
package card

import (
	"fmt"
	"log"
	"sync"

	"StreamSketch/internal/config"
	"StreamSketch/internal/factory"
	"StreamSketch/internal/metrics"
	"StreamSketch/internal/model"
	"StreamSketch/pkg/sketch"
)

func init() {
	factory.Register("card", func(def config.TaskDef, numWorkers int) (model.Task, error) {
		return New(def, numWorkers)
	})
}

// Snapshot is the payload returned by Task.Snapshot.
type Snapshot struct {
	TaskName string
	Distinct uint64
	// Expected relative standard error of the estimate, 1.04/sqrt(m).
	StandardError float64
}

type shard struct {
	mu      sync.Mutex
	hll     *sketch.HyperLogLog
	scratch []byte
}

// Task estimates the number of distinct keys in the stream.
type Task struct {
	name    string
	fields  []string
	keySize int
	shards  []*shard
}

// New creates a cardinality task with one HyperLogLog shard per worker.
func New(def config.TaskDef, numWorkers int) (*Task, error) {
	if err := model.ValidateFields(def.KeyFields); err != nil {
		return nil, fmt.Errorf("card task '%s': %w", def.Name, err)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	t := &Task{
		name:    def.Name,
		fields:  def.KeyFields,
		keySize: model.KeySize(def.KeyFields),
		shards:  make([]*shard, numWorkers),
	}
	for i := range t.shards {
		hll, err := sketch.NewHyperLogLog(nil, def.Precision)
		if err != nil {
			return nil, fmt.Errorf("card task '%s': %w", def.Name, err)
		}
		t.shards[i] = &shard{hll: hll, scratch: make([]byte, t.keySize)}
	}

	log.Printf("Created card task '%s' for fields %v: %d shards of %d registers (expected error %.2f%%)",
		def.Name, def.KeyFields, numWorkers, t.shards[0].hll.RegisterCount(),
		100*sketch.StandardError(t.shards[0].hll.RegisterCount()))
	return t, nil
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Fields returns the key fields this task aggregates on.
func (t *Task) Fields() []string { return t.fields }

// Process folds one packet into the calling worker's sketch shard.
func (t *Task) Process(worker int, pkt *model.Packet) {
	s := t.shards[worker%len(t.shards)]
	s.mu.Lock()
	s.hll.Add(model.EncodeKey(s.scratch, t.fields, pkt))
	s.mu.Unlock()

	metrics.UpdatesApplied.WithLabelValues(t.name).Inc()
}

// Cardinality merges the worker shards and estimates the distinct-key count
// of the whole stream. Register merging takes maxima, so the merged sketch
// is exactly the one a single ingestion loop would have produced.
func (t *Task) Cardinality() uint64 {
	t.shards[0].mu.Lock()
	merged := t.shards[0].hll.Clone()
	t.shards[0].mu.Unlock()

	for _, s := range t.shards[1:] {
		s.mu.Lock()
		err := merged.Merge(s.hll)
		s.mu.Unlock()
		if err != nil {
			// Shards are constructed with identical precision.
			log.Printf("card task '%s': shard merge failed: %v", t.name, err)
		}
	}
	return merged.Estimate()
}

// Snapshot reports the current distinct-key estimate.
func (t *Task) Snapshot() interface{} {
	return Snapshot{
		TaskName:      t.name,
		Distinct:      t.Cardinality(),
		StandardError: sketch.StandardError(t.shards[0].hll.RegisterCount()),
	}
}

// Reset clears all shards for a new measurement period.
func (t *Task) Reset() {
	for _, s := range t.shards {
		s.mu.Lock()
		s.hll.Reset()
		s.mu.Unlock()
	}
}
