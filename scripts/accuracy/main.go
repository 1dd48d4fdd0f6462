package main

import (
	"flag"
	"fmt"
	"log"

	"StreamSketch/internal/config"
	"StreamSketch/internal/engine/card"
	"StreamSketch/internal/engine/exact"
	"StreamSketch/internal/engine/freq"
	"StreamSketch/internal/eval"
	"StreamSketch/internal/ingest"
	"StreamSketch/internal/model"
)

// Replays a pcap trace through a frequency sketch, a cardinality sketch and
// the exact oracle, then reports how far the estimates land from the truth.
func main() {
	pcapPath := flag.String("f", "test.pcap", "Path to the pcap trace to replay")
	epsilon := flag.Float64("epsilon", 0.001, "Frequency additive error target")
	delta := flag.Float64("delta", 0.01, "Frequency error probability target")
	precision := flag.Int("p", 14, "Cardinality register precision")
	flag.Parse()

	fields := []string{"SrcIP"}

	freqTask, err := freq.New(config.TaskDef{
		Name: "freq", KeyFields: fields, Epsilon: *epsilon, Delta: *delta,
	}, 1)
	if err != nil {
		log.Fatalf("Failed to create frequency task: %v", err)
	}
	cardTask, err := card.New(config.TaskDef{
		Name: "card", KeyFields: fields, Precision: *precision,
	}, 1)
	if err != nil {
		log.Fatalf("Failed to create cardinality task: %v", err)
	}
	oracle, err := exact.New(config.TaskDef{Name: "exact", KeyFields: fields}, 1)
	if err != nil {
		log.Fatalf("Failed to create oracle task: %v", err)
	}

	reader, err := ingest.NewReader(*pcapPath)
	if err != nil {
		log.Fatal(err)
	}
	defer reader.Close()

	packets := make(chan *model.Packet, 1024)
	go reader.ReadPackets(packets)

	count := 0
	for pkt := range packets {
		freqTask.Process(0, pkt)
		cardTask.Process(0, pkt)
		oracle.Process(0, pkt)
		count++
	}
	log.Printf("Replayed %d packets from %s", count, *pcapPath)

	truth := oracle.Counts()
	report := eval.CompareFrequencies(truth, freqTask.Frequency, *epsilon, freqTask.Total())

	fmt.Printf("frequency: keys=%d mean_rel_err=%.6f std_rel_err=%.6f max_rel_err=%.6f p99_rel_err=%.6f\n",
		report.Keys, report.MeanRelativeError, report.StdRelativeError,
		report.MaxRelativeError, report.P99RelativeError)
	fmt.Printf("frequency: bound_violations=%d violation_rate=%.6f (delta=%.4f)\n",
		report.BoundViolations, report.ViolationRate, *delta)

	trueDistinct := oracle.Cardinality()
	estDistinct := cardTask.Cardinality()
	fmt.Printf("cardinality: true=%d estimated=%d rel_err=%+.6f\n",
		trueDistinct, estDistinct, eval.CardinalityError(trueDistinct, estDistinct))
}
