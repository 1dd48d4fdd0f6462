package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"StreamSketch/internal/api"
	"StreamSketch/internal/config"
	"StreamSketch/internal/engine/manager"
	"StreamSketch/internal/engine/report"
	"StreamSketch/internal/ingest"
	"StreamSketch/internal/model"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file")
	flag.Parse()

	log.Println("Starting sketch-engine...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var writers []model.Writer
	if cfg.Report.Enabled {
		interval, err := time.ParseDuration(cfg.Engine.SnapshotInterval)
		if err != nil {
			log.Fatalf("Invalid snapshot_interval: %v", err)
		}
		writers = append(writers, report.NewTextWriter(cfg.Report.RootPath, interval))
	}

	mgr, err := manager.New(cfg, writers)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}
	mgr.Start()

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(cfg.API.ListenAddr, mgr.Tasks())
		apiServer.Start()
	}

	var ingestWg sync.WaitGroup
	if cfg.Ingest.PcapPath != "" {
		ingestWg.Add(1)
		go func() {
			defer ingestWg.Done()
			reader, err := ingest.NewReader(cfg.Ingest.PcapPath)
			if err != nil {
				log.Printf("Failed to open record source: %v", err)
				return
			}
			defer reader.Close()

			packets := make(chan *model.Packet, cfg.Engine.SizeOfPacketChannel)
			go reader.ReadPackets(packets)
			for pkt := range packets {
				mgr.Input() <- pkt
			}
			log.Printf("Finished ingesting %s", cfg.Ingest.PcapPath)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, draining ingestion...")
	ingestWg.Wait()

	if apiServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(ctx); err != nil {
			log.Printf("API server forced to shut down: %v", err)
		}
	}

	mgr.Stop()
	log.Println("Shutdown complete.")
}
