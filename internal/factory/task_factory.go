package factory

import (
	"fmt"

	"StreamSketch/internal/config"
	"StreamSketch/internal/model"
)

// TaskFactory builds one task from its definition. numWorkers tells the
// factory how many worker-private sketch shards to allocate.
type TaskFactory func(def config.TaskDef, numWorkers int) (model.Task, error)

// registry maps task types to their factory functions.
var registry = make(map[string]TaskFactory)

// Register registers a new task type. Implementations call this from their
// package init.
func Register(taskType string, factory TaskFactory) {
	if _, exists := registry[taskType]; exists {
		panic(fmt.Sprintf("task type '%s' already registered", taskType))
	}
	registry[taskType] = factory
}

// Create instantiates every task listed in the config.
func Create(cfg *config.Config) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(cfg.Tasks))
	for _, def := range cfg.Tasks {
		factory, ok := registry[def.Type]
		if !ok {
			return nil, fmt.Errorf("unknown task type '%s' for task '%s'", def.Type, def.Name)
		}
		task, err := factory(def, cfg.Engine.NumWorkers)
		if err != nil {
			return nil, fmt.Errorf("error creating task '%s': %w", def.Name, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
