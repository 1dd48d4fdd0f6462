package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TaskDef defines a single estimation task from the config file. Width,
// depth and precision may be left at zero for freq/card tasks, in which
// case the sketch is dimensioned from the epsilon/delta error targets.
type TaskDef struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"` // "freq", "card" or "exact"
	KeyFields []string `yaml:"key_fields"`

	// Frequency sketch parameters.
	Width                int     `yaml:"width"`
	Depth                int     `yaml:"depth"`
	Epsilon              float64 `yaml:"epsilon"`
	Delta                float64 `yaml:"delta"`
	HeavyHitterThreshold uint64  `yaml:"heavy_hitter_threshold"`

	// Cardinality sketch parameters.
	Precision int `yaml:"precision"`
}

// EngineConfig holds the worker-pool and snapshot settings.
type EngineConfig struct {
	NumWorkers          int    `yaml:"num_workers"`
	SizeOfPacketChannel int    `yaml:"size_of_packet_channel"`
	SnapshotInterval    string `yaml:"snapshot_interval"`
	// Period between full task resets; empty or "0" disables resetting.
	Period string `yaml:"period"`
}

// IngestConfig points the engine at its record source.
type IngestConfig struct {
	PcapPath string `yaml:"pcap_path"`
}

// APIConfig holds the HTTP query surface settings.
type APIConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// ReportConfig holds the snapshot text writer settings.
type ReportConfig struct {
	Enabled  bool   `yaml:"enabled"`
	RootPath string `yaml:"root_path"`
}

// Config is the top-level configuration for the whole application.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Tasks  []TaskDef    `yaml:"tasks"`
	Ingest IngestConfig `yaml:"ingest"`
	API    APIConfig    `yaml:"api"`
	Report ReportConfig `yaml:"report"`
}

// LoadConfig reads the configuration from a YAML file.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	if cfg.Engine.NumWorkers <= 0 {
		cfg.Engine.NumWorkers = 4
	}
	if cfg.Engine.SizeOfPacketChannel <= 0 {
		cfg.Engine.SizeOfPacketChannel = 1024
	}

	return &cfg, nil
}
