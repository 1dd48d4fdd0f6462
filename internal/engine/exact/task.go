// Package exact implements the exact-counting oracle task: worker-private
// hash maps holding true per-key counts. It exists for accuracy harnesses
// and reports; the sketch code never depends on it.
package exact

import (
	"fmt"
	"log"
	"sync"

	"StreamSketch/internal/config"
	"StreamSketch/internal/factory"
	"StreamSketch/internal/metrics"
	"StreamSketch/internal/model"
)

func init() {
	factory.Register("exact", func(def config.TaskDef, numWorkers int) (model.Task, error) {
		return New(def, numWorkers)
	})
}

// Snapshot is the payload returned by Task.Snapshot: a merged copy of the
// exact counts.
type Snapshot struct {
	TaskName string
	Total    uint64
	Distinct uint64
	Counts   map[string]uint64
}

type shard struct {
	mu      sync.Mutex
	counts  map[string]uint64
	total   uint64
	scratch []byte
}

// Task keeps exact per-key counts. Memory grows with the number of
// distinct keys, which is the cost the sketches exist to avoid.
type Task struct {
	name    string
	fields  []string
	keySize int
	shards  []*shard
}

// New creates an exact oracle task with one count map per worker.
func New(def config.TaskDef, numWorkers int) (*Task, error) {
	if err := model.ValidateFields(def.KeyFields); err != nil {
		return nil, fmt.Errorf("exact task '%s': %w", def.Name, err)
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
		t.shards[i] = &shard{
			counts:  make(map[string]uint64),
			scratch: make([]byte, t.keySize),
		}
	}

	log.Printf("Created exact task '%s' for fields %v with %d shards", def.Name, def.KeyFields, numWorkers)
	return t, nil
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Fields returns the key fields this task aggregates on.
func (t *Task) Fields() []string { return t.fields }

// Process counts one packet in the calling worker's shard.
func (t *Task) Process(worker int, pkt *model.Packet) {
	s := t.shards[worker%len(t.shards)]
	s.mu.Lock()
	key := model.EncodeKey(s.scratch, t.fields, pkt)
	s.counts[string(key)]++
	s.total++
	s.mu.Unlock()

	metrics.UpdatesApplied.WithLabelValues(t.name).Inc()
}

// Frequency returns the true count of key across all shards.
func (t *Task) Frequency(key []byte) uint64 {
	k := string(key)
	var count uint64
	for _, s := range t.shards {
		s.mu.Lock()
		count += s.counts[k]
		s.mu.Unlock()
	}
	return count
}

// Cardinality returns the true number of distinct keys observed.
func (t *Task) Cardinality() uint64 {
	return uint64(len(t.Counts()))
}

// Counts returns a merged copy of the per-key counts across all shards.
func (t *Task) Counts() map[string]uint64 {
	merged := make(map[string]uint64)
	for _, s := range t.shards {
		s.mu.Lock()
		for k, v := range s.counts {
			merged[k] += v
		}
		s.mu.Unlock()
	}
	return merged
}

// Total returns the number of packets counted.
func (t *Task) Total() uint64 {
	var total uint64
	for _, s := range t.shards {
		s.mu.Lock()
		total += s.total
		s.mu.Unlock()
	}
	return total
}

// Snapshot returns a consistent merged copy of the oracle's state.
func (t *Task) Snapshot() interface{} {
	counts := t.Counts()
	var total uint64
	for _, v := range counts {
		total += v
	}
	return Snapshot{
		TaskName: t.name,
		Total:    total,
		Distinct: uint64(len(counts)),
		Counts:   counts,
	}
}

// Reset clears all shards for a new measurement period.
func (t *Task) Reset() {
	for _, s := range t.shards {
		s.mu.Lock()
		s.counts = make(map[string]uint64)
		s.total = 0
		s.mu.Unlock()
	}
}
