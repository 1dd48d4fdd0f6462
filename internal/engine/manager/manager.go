// Package manager orchestrates the estimation tasks: a worker pool fans
// incoming packets out to every task, a snapshotter periodically hands task
// snapshots to the configured writers, and an optional resetter starts new
// measurement periods.
package manager

import (
	"fmt"
	"log"
	"sync"
	"time"

	"StreamSketch/internal/config"
	_ "StreamSketch/internal/engine/card"  // registers the card task type
	_ "StreamSketch/internal/engine/exact" // registers the exact task type
	_ "StreamSketch/internal/engine/freq"  // registers the freq task type
	"StreamSketch/internal/factory"
	"StreamSketch/internal/metrics"
	"StreamSketch/internal/model"
)

// Manager owns the task set, the worker pool and the snapshot loops.
type Manager struct {
	tasks   []model.Task
	writers []model.Writer

	packetChannel chan *model.Packet
	numWorkers    int
	workerWg      sync.WaitGroup

	period        time.Duration
	done          chan struct{}
	snapshotterWg sync.WaitGroup
	resetterWg    sync.WaitGroup
}

// New builds a manager from the configuration.
func New(cfg *config.Config, writers []model.Writer) (*Manager, error) {
	tasks, err := factory.Create(cfg)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks configured")
	}

	var period time.Duration
	if cfg.Engine.Period != "" && cfg.Engine.Period != "0" {
		period, err = time.ParseDuration(cfg.Engine.Period)
		if err != nil {
			return nil, fmt.Errorf("invalid engine period: %w", err)
		}
	}

	return &Manager{
		tasks:         tasks,
		writers:       writers,
		packetChannel: make(chan *model.Packet, cfg.Engine.SizeOfPacketChannel),
		numWorkers:    cfg.Engine.NumWorkers,
		period:        period,
		done:          make(chan struct{}),
	}, nil
}

// Tasks returns the managed tasks, for query surfaces and harnesses.
func (m *Manager) Tasks() []model.Task { return m.tasks }

// Input returns the channel packets should be sent to.
func (m *Manager) Input() chan<- *model.Packet { return m.packetChannel }

// Start launches the worker pool, one snapshotter per writer, and the
// resetter when a measurement period is configured.
func (m *Manager) Start() {
	for _, writer := range m.writers {
		m.snapshotterWg.Add(1)
		go m.runSnapshotter(writer)
		log.Printf("Started snapshotter with interval %s for %d tasks.", writer.GetInterval(), len(m.tasks))
	}

	if m.period > 0 {
		m.resetterWg.Add(1)
		go m.runResetter()
		log.Printf("Started resetter with period %s", m.period)
	}

	m.workerWg.Add(m.numWorkers)
	for i := 0; i < m.numWorkers; i++ {
		go m.worker(i)
	}
	log.Printf("Manager started with %d workers.", m.numWorkers)
}

// Stop drains the packet channel, takes a final snapshot and shuts all
// loops down.
func (m *Manager) Stop() {
	log.Println("Manager stopping...")
	close(m.packetChannel)
	m.workerWg.Wait()

	close(m.done)
	m.snapshotterWg.Wait()
	m.resetterWg.Wait()
	log.Println("Manager stopped.")
}

func (m *Manager) worker(id int) {
	defer m.workerWg.Done()
	for pkt := range m.packetChannel {
		for _, task := range m.tasks {
			task.Process(id, pkt)
		}
	}
}

func (m *Manager) runSnapshotter(writer model.Writer) {
	defer m.snapshotterWg.Done()
	interval := writer.GetInterval()
	if interval <= 0 {
		log.Printf("Invalid snapshot interval %s, snapshotter will not run.", interval)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.takeSnapshot(writer)
		case <-m.done:
			m.takeSnapshot(writer)
			return
		}
	}
}

func (m *Manager) takeSnapshot(writer model.Writer) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")

	var wg sync.WaitGroup
	wg.Add(len(m.tasks))
	for _, task := range m.tasks {
		go func(t model.Task) {
			defer wg.Done()
			if err := writer.Write(t.Snapshot(), timestamp, t.Name()); err != nil {
				log.Printf("Error writing snapshot for task %s: %v", t.Name(), err)
			}
		}(task)
	}
	wg.Wait()

	metrics.SnapshotsTaken.Inc()
}

func (m *Manager) runResetter() {
	defer m.resetterWg.Done()
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.resetAllTasks()
		case <-m.done:
			return
		}
	}
}

func (m *Manager) resetAllTasks() {
	log.Printf("Resetting all tasks for new measurement period")
	var wg sync.WaitGroup
	wg.Add(len(m.tasks))
	for _, task := range m.tasks {
		go func(t model.Task) {
			defer wg.Done()
			t.Reset()
		}(task)
	}
	wg.Wait()
}
