package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PacketsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamsketch_packets_ingested_total",
		Help: "The total number of packets read from the record source",
	})

	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamsketch_parse_errors_total",
		Help: "The total number of packets dropped because they could not be parsed",
	})

	UpdatesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamsketch_updates_applied_total",
		Help: "The total number of sketch updates applied, per task",
	}, []string{"task"})

	SnapshotsTaken = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamsketch_snapshots_taken_total",
		Help: "The total number of snapshots written",
	})
)
