package card

import (
	"encoding/binary"
	"math"
	"net"
	"testing"

	"StreamSketch/internal/config"
	"StreamSketch/internal/model"
	"StreamSketch/pkg/sketch"
)

func hostPacket(host uint32) *model.Packet {
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, 0x0A000000|host)
	return &model.Packet{SrcIP: ip, DstIP: net.IPv4(1, 2, 3, 4), SrcPort: 1000, DstPort: 80, Protocol: 17}
}

func TestCardTaskAccuracy(t *testing.T) {
	task, err := New(config.TaskDef{
		Name: "t", KeyFields: []string{"SrcIP"}, Precision: 12,
	}, 4)
	if err != nil {
		t.Fatal(err)
	}

	const distinct = 20_000
	for i := 0; i < distinct; i++ {
		// Each host appears three times, spread across workers; repeats must
		// not inflate the estimate.
		for rep := 0; rep < 3; rep++ {
			task.Process((i+rep)%4, hostPacket(uint32(i)))
		}
	}

	est := float64(task.Cardinality())
	se := sketch.StandardError(1 << 12)
	if relErr := math.Abs(est-distinct) / distinct; relErr > 3*se {
		t.Errorf("estimate %v for %d distinct hosts: relative error %.4f exceeds %.4f",
			est, distinct, relErr, 3*se)
	}
}

func TestCardTaskShardingMatchesSingleShard(t *testing.T) {
	sharded, err := New(config.TaskDef{Name: "s", KeyFields: []string{"SrcIP"}, Precision: 10}, 4)
	if err != nil {
		t.Fatal(err)
	}
	single, err := New(config.TaskDef{Name: "1", KeyFields: []string{"SrcIP"}, Precision: 10}, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5_000; i++ {
		sharded.Process(i%4, hostPacket(uint32(i)))
		single.Process(0, hostPacket(uint32(i)))
	}
	// Worker sharding must be invisible: merged registers equal the
	// single-loop sketch, so the estimates match exactly.
	if got, want := sharded.Cardinality(), single.Cardinality(); got != want {
		t.Errorf("sharded estimate %d, single-shard estimate %d", got, want)
	}
}

func TestCardTaskSnapshot(t *testing.T) {
	task, err := New(config.TaskDef{Name: "t", KeyFields: []string{"SrcIP"}, Precision: 10}, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 300; i++ {
		task.Process(i%2, hostPacket(uint32(i)))
	}

	snap, ok := task.Snapshot().(Snapshot)
	if !ok {
		t.Fatalf("Snapshot() returned %T", task.Snapshot())
	}
	if snap.TaskName != "t" {
		t.Errorf("snapshot task name %q", snap.TaskName)
	}
	if snap.Distinct == 0 {
		t.Error("snapshot distinct count is zero")
	}
	want := sketch.StandardError(1 << 10)
	if snap.StandardError != want {
		t.Errorf("snapshot standard error %v, want %v", snap.StandardError, want)
	}
}

func TestCardTaskRejectsBadConfig(t *testing.T) {
	if _, err := New(config.TaskDef{Name: "t", KeyFields: []string{"SrcIP"}, Precision: 3}, 1); err == nil {
		t.Error("precision 3 accepted")
	}
	if _, err := New(config.TaskDef{Name: "t", KeyFields: []string{"SrcIP"}, Precision: 19}, 1); err == nil {
		t.Error("precision 19 accepted")
	}
	if _, err := New(config.TaskDef{Name: "t", KeyFields: nil, Precision: 10}, 1); err == nil {
		t.Error("empty key fields accepted")
	}
}

func TestCardTaskReset(t *testing.T) {
	task, err := New(config.TaskDef{Name: "t", KeyFields: []string{"SrcIP"}, Precision: 10}, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		task.Process(i%2, hostPacket(uint32(i)))
	}
	task.Reset()
	if got := task.Cardinality(); got != 0 {
		t.Errorf("Cardinality() after Reset = %d, want 0", got)
	}
}
