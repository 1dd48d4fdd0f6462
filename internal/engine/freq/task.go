// Package freq implements the frequency-estimation task: one Count-Min
// sketch shard per worker, combined on query, with heavy-hitter candidate
// tracking on the update path.
package freq

import (
	"fmt"
	"log"
	"slices"
	"sync"

	"StreamSketch/internal/config"
	"StreamSketch/internal/factory"
	"StreamSketch/internal/metrics"
	"StreamSketch/internal/model"
	"StreamSketch/pkg/sketch"
)

func init() {
	factory.Register("freq", func(def config.TaskDef, numWorkers int) (model.Task, error) {
		return New(def, numWorkers)
	})
}

// HeavyHitter is one key whose estimated frequency reached the task's
// threshold.
type HeavyHitter struct {
	Key     []byte
	Display string
	Count   uint64
}

// Snapshot is the payload returned by Task.Snapshot.
type Snapshot struct {
	TaskName     string
	Total        uint64
	HeavyHitters []HeavyHitter
}

// shard is the worker-private slice of the task. Only its owning worker
// touches it on the hot path; the mutex makes queries and snapshots safe to
// run concurrently with updates.
type shard struct {
	mu         sync.Mutex
	cm         *sketch.CountMin
	candidates map[string]struct{}
	scratch    []byte
}

// Task estimates per-key frequencies over the stream.
type Task struct {
	name string
	// key fields and the byte size of an encoded key
	fields  []string
	keySize int
	// global heavy-hitter threshold and its per-shard share
	threshold   uint64
	shardTarget uint64
	shards      []*shard
}

// New creates a frequency task with one sketch shard per worker. The sketch
// dimensions come from the definition's width/depth when set, otherwise
// from its epsilon/delta error targets.
func New(def config.TaskDef, numWorkers int) (*Task, error) {
	if err := model.ValidateFields(def.KeyFields); err != nil {
		return nil, fmt.Errorf("freq task '%s': %w", def.Name, err)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	t := &Task{
		name:      def.Name,
		fields:    def.KeyFields,
		keySize:   model.KeySize(def.KeyFields),
		threshold: def.HeavyHitterThreshold,
		shards:    make([]*shard, numWorkers),
	}
	// A key whose global count reaches the threshold must reach the
	// per-worker share in at least one shard, so shards screen candidates
	// against threshold/numWorkers and the snapshot re-checks the combined
	// estimate against the full threshold.
	t.shardTarget = def.HeavyHitterThreshold / uint64(numWorkers)
	if t.shardTarget == 0 {
		t.shardTarget = 1
	}

	for i := range t.shards {
		var cm *sketch.CountMin
		var err error
		if def.Width > 0 || def.Depth > 0 {
			cm, err = sketch.NewCountMin(nil, def.Width, def.Depth)
		} else {
			cm, err = sketch.NewCountMinWithEstimates(nil, def.Epsilon, def.Delta)
		}
		if err != nil {
			return nil, fmt.Errorf("freq task '%s': %w", def.Name, err)
		}
		t.shards[i] = &shard{
			cm:         cm,
			candidates: make(map[string]struct{}),
			scratch:    make([]byte, t.keySize),
		}
	}

	log.Printf("Created freq task '%s' for fields %v: %d shards of %dx%d counters, heavy-hitter threshold %d",
		def.Name, def.KeyFields, numWorkers, t.shards[0].cm.Depth(), t.shards[0].cm.Width(), def.HeavyHitterThreshold)
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
	key := model.EncodeKey(s.scratch, t.fields, pkt)
	s.cm.Update(key, 1)
	if t.threshold > 0 && s.cm.Query(key) >= t.shardTarget {
		s.candidates[string(key)] = struct{}{}
	}
	s.mu.Unlock()

	metrics.UpdatesApplied.WithLabelValues(t.name).Inc()
}

// Frequency returns the combined estimate for key: the sum of the shard
// estimates. Each shard never underestimates its slice of the stream, so
// the sum never underestimates the whole.
func (t *Task) Frequency(key []byte) uint64 {
	var est uint64
	for _, s := range t.shards {
		s.mu.Lock()
		est += s.cm.Query(key)
		s.mu.Unlock()
	}
	return est
}

// Total returns the total stream mass observed across all shards.
func (t *Task) Total() uint64 {
	var total uint64
	for _, s := range t.shards {
		s.mu.Lock()
		total += s.cm.Total()
		s.mu.Unlock()
	}
	return total
}

// Snapshot gathers the heavy-hitter candidates from all shards, re-checks
// them against the combined estimate, and returns them sorted by estimated
// count, descending.
func (t *Task) Snapshot() interface{} {
	candidates := make(map[string]struct{})
	for _, s := range t.shards {
		s.mu.Lock()
		for k := range s.candidates {
			candidates[k] = struct{}{}
		}
		s.mu.Unlock()
	}

	hitters := make([]HeavyHitter, 0, len(candidates))
	for k := range candidates {
		key := []byte(k)
		count := t.Frequency(key)
		if count < t.threshold {
			continue
		}
		hitters = append(hitters, HeavyHitter{
			Key:     key,
			Display: model.FormatKey(key, t.fields),
			Count:   count,
		})
	}
	slices.SortFunc(hitters, func(a, b HeavyHitter) int {
		return int(b.Count) - int(a.Count)
	})

	return Snapshot{TaskName: t.name, Total: t.Total(), HeavyHitters: hitters}
}

// Reset clears all shards for a new measurement period.
func (t *Task) Reset() {
	for _, s := range t.shards {
		s.mu.Lock()
		s.cm.Reset()
		clear(s.candidates)
		s.mu.Unlock()
	}
}
