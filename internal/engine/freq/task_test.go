package freq

import (
	"encoding/binary"
	"math/rand/v2"
	"net"
	"testing"

	"StreamSketch/internal/config"
	"StreamSketch/internal/model"
)

func hostPacket(host uint32) *model.Packet {
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, 0x0A000000|host)
	return &model.Packet{SrcIP: ip, DstIP: net.IPv4(1, 2, 3, 4), SrcPort: 1000, DstPort: 80, Protocol: 6}
}

func hostKey(t *testing.T, task *Task, host uint32) []byte {
	t.Helper()
	buf := make([]byte, model.KeySize(task.Fields()))
	return append([]byte(nil), model.EncodeKey(buf, task.Fields(), hostPacket(host))...)
}

func TestFreqTaskNeverUnderestimates(t *testing.T) {
	task, err := New(config.TaskDef{
		Name: "t", KeyFields: []string{"SrcIP"}, Epsilon: 0.005, Delta: 0.01,
	}, 4)
	if err != nil {
		t.Fatal(err)
	}

	truth := make(map[uint32]uint64)
	r := rand.New(rand.NewPCG(11, 13))
	for i := 0; i < 30_000; i++ {
		host := uint32(r.IntN(500))
		task.Process(i%4, hostPacket(host))
		truth[host]++
	}

	if task.Total() != 30_000 {
		t.Fatalf("Total() = %d, want 30000", task.Total())
	}
	for host, actual := range truth {
		if est := task.Frequency(hostKey(t, task, host)); est < actual {
			t.Fatalf("host %d: estimate %d below true count %d", host, est, actual)
		}
	}
}

func TestFreqTaskHeavyHitters(t *testing.T) {
	task, err := New(config.TaskDef{
		Name: "t", KeyFields: []string{"SrcIP"},
		Width: 4096, Depth: 4, HeavyHitterThreshold: 500,
	}, 2)
	if err != nil {
		t.Fatal(err)
	}

	// Hosts 1 and 2 cross the threshold, the tail does not.
	for i := 0; i < 800; i++ {
		task.Process(i%2, hostPacket(1))
	}
	for i := 0; i < 600; i++ {
		task.Process(i%2, hostPacket(2))
	}
	for host := uint32(100); host < 200; host++ {
		task.Process(int(host)%2, hostPacket(host))
	}

	snap, ok := task.Snapshot().(Snapshot)
	if !ok {
		t.Fatalf("Snapshot() returned %T", task.Snapshot())
	}
	if len(snap.HeavyHitters) != 2 {
		t.Fatalf("got %d heavy hitters, want 2: %+v", len(snap.HeavyHitters), snap.HeavyHitters)
	}
	if snap.HeavyHitters[0].Display != "10.0.0.1" || snap.HeavyHitters[1].Display != "10.0.0.2" {
		t.Errorf("heavy hitters not sorted by count: %+v", snap.HeavyHitters)
	}
	if snap.HeavyHitters[0].Count < 800 || snap.HeavyHitters[1].Count < 600 {
		t.Errorf("heavy-hitter counts underestimate: %+v", snap.HeavyHitters)
	}
	if snap.Total != 800+600+100 {
		t.Errorf("snapshot total = %d", snap.Total)
	}
}

func TestFreqTaskExplicitDimensions(t *testing.T) {
	task, err := New(config.TaskDef{
		Name: "t", KeyFields: []string{"SrcIP"}, Width: 100, Depth: 5,
	}, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		task.Process(0, hostPacket(7))
	}
	if est := task.Frequency(hostKey(t, task, 7)); est < 50 {
		t.Errorf("estimate %d below true count 50", est)
	}
}

func TestFreqTaskRejectsBadConfig(t *testing.T) {
	if _, err := New(config.TaskDef{Name: "t", KeyFields: []string{"SrcIP"}, Width: 0, Depth: 5}, 1); err == nil {
		t.Error("zero width with set depth accepted")
	}
	if _, err := New(config.TaskDef{Name: "t", KeyFields: []string{"SrcIP"}, Width: -1, Depth: 5}, 1); err == nil {
		t.Error("negative width accepted")
	}
	if _, err := New(config.TaskDef{Name: "t", KeyFields: []string{"SrcIP"}, Epsilon: 2, Delta: 0.01}, 1); err == nil {
		t.Error("epsilon >= 1 accepted")
	}
	if _, err := New(config.TaskDef{Name: "t", KeyFields: []string{"Bogus"}, Width: 10, Depth: 2}, 1); err == nil {
		t.Error("unknown key field accepted")
	}
}

func TestFreqTaskReset(t *testing.T) {
	task, err := New(config.TaskDef{
		Name: "t", KeyFields: []string{"SrcIP"}, Width: 256, Depth: 3, HeavyHitterThreshold: 5,
	}, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		task.Process(i%2, hostPacket(3))
	}
	task.Reset()

	if task.Total() != 0 {
		t.Errorf("Total() after Reset = %d", task.Total())
	}
	if est := task.Frequency(hostKey(t, task, 3)); est != 0 {
		t.Errorf("estimate after Reset = %d", est)
	}
	snap := task.Snapshot().(Snapshot)
	if len(snap.HeavyHitters) != 0 {
		t.Errorf("heavy hitters survived Reset: %+v", snap.HeavyHitters)
	}
}
