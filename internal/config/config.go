// Package config handles LifeTrack configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all configuration
type Config struct {
	// Paths
	DataDir string `json:"data_dir"`

	// Server
	Server ServerConfig `json:"server"`

	// Engine tunables
	Engine EngineConfig `json:"engine"`
}

// ServerConfig for HTTP server
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// EngineConfig carries the insight engine's tunable constants.
// The thresholds mirror the original product behavior; they are exposed
// here rather than hard-coded so deployments can adjust them.
type EngineConfig struct {
	// Anomaly detection
	AnomalyContamination float64 `json:"anomaly_contamination"` // expected outlier fraction
	StreakBreakDays      int     `json:"streak_break_days"`     // gap before a streak break flags
	StreakBreakHighDays  int     `json:"streak_break_high_days"`
	RateDropThreshold    float64 `json:"rate_drop_threshold"` // week-over-week completion drop

	// Forecasting
	ForecastDays    int `json:"forecast_days"`
	ForecastHistory int `json:"forecast_history_days"`

	// Scheduling
	WorkDayStartHour int `json:"work_day_start_hour"`
	WorkDayEndHour   int `json:"work_day_end_hour"`
	AvailableHours   int `json:"available_hours"`

	// Priority model
	ModelPath string `json:"model_path"`
}

// Default returns default configuration
func Default() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".lifetrack")

	return &Config{
		DataDir: dataDir,
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Engine: EngineConfig{
			AnomalyContamination: 0.1,
			StreakBreakDays:      7,
			StreakBreakHighDays:  14,
			RateDropThreshold:    -0.5,
			ForecastDays:         30,
			ForecastHistory:      90,
			WorkDayStartHour:     9,
			WorkDayEndHour:       17,
			AvailableHours:       8,
			ModelPath:            filepath.Join(dataDir, "models", "task_priority.json"),
		},
	}
}

// Path returns the config file path
func Path() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lifetrack", "config.json")
}

// Load reads configuration from disk, falling back to defaults for a
// missing file. Environment overrides are applied afterwards.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

// Save writes configuration to disk
func (c *Config) Save() error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LIFETRACK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LIFETRACK_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LIFETRACK_MODEL_PATH"); v != "" {
		cfg.Engine.ModelPath = v
	}
}
