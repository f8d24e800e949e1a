package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FrameworkConfig is the ambient, process-wide settings document
// (default path config.yaml) layered alongside the per-SUT JSON
// documents: logging, reporting retention, the self-observability
// endpoint, and safety limits.
type FrameworkConfig struct {
	Framework FrameworkSection `yaml:"framework"`
	Reporting ReportingSection `yaml:"reporting"`
	Metrics   MetricsSection   `yaml:"metrics"`
	Safety    SafetySection    `yaml:"safety"`
	Execution ExecutionSection `yaml:"execution"`
}

type FrameworkSection struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type ReportingSection struct {
	OutputDir string `yaml:"output_dir"`
	KeepLastN int    `yaml:"keep_last_n"`
}

type MetricsSection struct {
	ListenAddr string `yaml:"listen_addr"`
}

type SafetySection struct {
	MaxDuration         time.Duration `yaml:"max_duration"`
	RequireConfirmation bool          `yaml:"require_confirmation"`
}

type ExecutionSection struct {
	MaxConcurrentFaults int `yaml:"max_concurrent_faults"`
}

// DefaultFrameworkConfig returns the settings every field defaults to
// per SPEC_FULL.md section 3.1.
func DefaultFrameworkConfig() *FrameworkConfig {
	return &FrameworkConfig{
		Framework: FrameworkSection{LogLevel: "info", LogFormat: "text"},
		Reporting: ReportingSection{OutputDir: "./reports", KeepLastN: 20},
		Metrics:   MetricsSection{ListenAddr: ""},
		Safety:    SafetySection{MaxDuration: 0, RequireConfirmation: false},
		Execution: ExecutionSection{MaxConcurrentFaults: 0},
	}
}

// LoadFrameworkConfig loads the ambient settings document at path,
// falling back silently to defaults when the file does not exist — a
// missing file is not an error, only a malformed one is.
func LoadFrameworkConfig(path string) (*FrameworkConfig, error) {
	cfg := DefaultFrameworkConfig()

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to path as YAML.
func (c *FrameworkConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
