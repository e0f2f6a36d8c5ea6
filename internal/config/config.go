// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ticksim-go/internal/detect"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string
	Env         string
	MetricsAddr string
	LogLevel    string
}

// Simulation sizes the synthetic feed: the symbol universe, how long and how
// fast to tick, and the price process parameters.
type Simulation struct {
	Symbols       []string
	DurationSecs  int `yaml:"duration_secs"`
	TickRate      int `yaml:"tick_rate"`
	Seed          int64
	Model         string  // gbm or ou
	InitialPrice  float64 `yaml:"initial_price"`
	Volatility    float64
	Drift         float64
	MeanReversion float64 `yaml:"mean_reversion"`
	StatsWindow   int     `yaml:"stats_window"`
	PairWindow    int     `yaml:"pair_window"`
	CorrSamples   int     `yaml:"corr_samples"`
}

// Output names the artifact paths written after a run. Empty paths disable
// the corresponding export.
type Output struct {
	SignalsCSV   string `yaml:"signals_csv"`
	HistogramCSV string `yaml:"histogram_csv"`
	SignalsJSONL string `yaml:"signals_jsonl"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App           `yaml:"app"`
	Simulation Simulation    `yaml:"simulation"`
	Signals    detect.Config `yaml:"signals"`
	Output     Output        `yaml:"output"`
}

// Default returns the configuration the simulator runs with when no file is
// given: a three symbol GBM universe at 1000 ticks/sec for 10 seconds.
func Default() *Config {
	return &Config{
		App: App{
			Name:        "ticksim",
			Env:         "dev",
			MetricsAddr: ":9100",
			LogLevel:    "info",
		},
		Simulation: Simulation{
			Symbols:       []string{"AAPL", "MSFT", "TSLA"},
			DurationSecs:  10,
			TickRate:      1000,
			Seed:          42,
			Model:         "gbm",
			InitialPrice:  100.0,
			Volatility:    0.02,
			MeanReversion: 0.5,
			StatsWindow:   100,
			PairWindow:    50,
			CorrSamples:   20,
		},
		Signals: detect.Config{
			ZScoreThreshold:      2.5,
			CorrelationThreshold: 0.3,
			VolumeZThreshold:     3.0,
			SymbolCadence:        10,
			PairCadence:          50,
		},
		Output: Output{
			SignalsCSV:   "data/signals.csv",
			HistogramCSV: "data/latency_histogram.csv",
			SignalsJSONL: "data/signals.jsonl",
		},
	}
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
