// Package api exposes the read-only HTTP query surface: per-key frequency
// estimates, distinct-count estimates, heavy hitters and Prometheus
// metrics. It serves estimates only; sketch state never leaves the
// process.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"StreamSketch/internal/engine/freq"
	"StreamSketch/internal/model"
)

// Server is the HTTP query server.
type Server struct {
	tasks map[string]model.Task
	srv   *http.Server
}

// NewServer builds a server over the given tasks.
func NewServer(listenAddr string, tasks []model.Task) *Server {
	s := &Server{tasks: make(map[string]model.Task, len(tasks))}
	for _, t := range tasks {
		s.tasks[t.Name()] = t
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/frequency", s.frequencyHandler).Methods("GET")
	r.HandleFunc("/api/v1/cardinality", s.cardinalityHandler).Methods("GET")
	r.HandleFunc("/api/v1/heavyhitters", s.heavyHittersHandler).Methods("GET")
	r.HandleFunc("/api/v1/stats", s.statsHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{Addr: listenAddr, Handler: r}
	return s
}

// Start runs the server in the background.
func (s *Server) Start() {
	go func() {
		log.Printf("API server starting on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", s.srv.Addr, err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) lookupTask(w http.ResponseWriter, r *http.Request) (model.Task, bool) {
	name := r.URL.Query().Get("task")
	task, ok := s.tasks[name]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown task %q", name), http.StatusNotFound)
		return nil, false
	}
	return task, true
}

func (s *Server) frequencyHandler(w http.ResponseWriter, r *http.Request) {
	task, ok := s.lookupTask(w, r)
	if !ok {
		return
	}
	fq, ok := task.(model.FrequencyQuerier)
	if !ok {
		http.Error(w, fmt.Sprintf("task %q does not answer frequency queries", task.Name()), http.StatusBadRequest)
		return
	}

	keyText := r.URL.Query().Get("key")
	key, err := model.ParseKey(keyText, task.Fields())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{
		"task":     task.Name(),
		"key":      keyText,
		"estimate": fq.Frequency(key),
	})
}

func (s *Server) cardinalityHandler(w http.ResponseWriter, r *http.Request) {
	task, ok := s.lookupTask(w, r)
	if !ok {
		return
	}
	cq, ok := task.(model.CardinalityQuerier)
	if !ok {
		http.Error(w, fmt.Sprintf("task %q does not answer cardinality queries", task.Name()), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{
		"task":     task.Name(),
		"distinct": cq.Cardinality(),
	})
}

func (s *Server) heavyHittersHandler(w http.ResponseWriter, r *http.Request) {
	task, ok := s.lookupTask(w, r)
	if !ok {
		return
	}
	snap, ok := task.Snapshot().(freq.Snapshot)
	if !ok {
		http.Error(w, fmt.Sprintf("task %q does not track heavy hitters", task.Name()), http.StatusBadRequest)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	snapshots := make(map[string]interface{}, len(s.tasks))
	for name, task := range s.tasks {
		snapshots[name] = task.Snapshot()
	}
	writeJSON(w, snapshots)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
