package model

import (
	"net"
	"time"
)

// Packet holds the metadata extracted from a single observed packet. It is
// the unit the ingestion loop feeds to the estimation tasks; each task
// derives its own key bytes from the fields it is configured on.
type Packet struct {
	Timestamp time.Time
	SrcIP     net.IP
	DstIP     net.IP
	SrcPort   uint16
	DstPort   uint16
	Protocol  uint8
	Length    int
}

// Task is one self-contained estimation task (frequency sketch, cardinality
// sketch, exact oracle). Process is called with the index of the worker
// delivering the packet, so tasks can keep worker-private sketch shards and
// avoid cross-worker contention on the hot path.
type Task interface {
	Process(worker int, pkt *Packet)
	Snapshot() interface{}
	Reset()
	Name() string
	Fields() []string
}

// FrequencyQuerier is implemented by tasks that estimate per-key frequency.
type FrequencyQuerier interface {
	Frequency(key []byte) uint64
}

// CardinalityQuerier is implemented by tasks that estimate the number of
// distinct keys observed.
type CardinalityQuerier interface {
	Cardinality() uint64
}

// Writer emits task snapshots somewhere a human can read them.
type Writer interface {
	Write(payload interface{}, timestamp string, taskName string) error
	GetInterval() time.Duration
}
