package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all spending-forecast configuration.
type Config struct {
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Training  TrainingConfig  `toml:"training"`
	Forecast  ForecastConfig  `toml:"forecast"`
	GCP       GCPConfig       `toml:"gcp"`
	Artifacts ArtifactsConfig `toml:"artifacts"`
}

// PipelineConfig holds feature-engineering parameters.
type PipelineConfig struct {
	// SalaryAmount is the exact amount of an income transaction that marks it
	// as a salary payment.
	SalaryAmount float64 `toml:"salary_amount"`
	// CycleDays is the assumed length of the salary cycle in days.
	CycleDays int `toml:"cycle_days"`
	// ClipThreshold is the z-score threshold for outlier clipping.
	ClipThreshold float64 `toml:"clip_threshold"`
}

// TrainingConfig holds model-selection parameters.
type TrainingConfig struct {
	// TestFraction is the share of rows held out for candidate scoring.
	TestFraction float64 `toml:"test_fraction"`
	// RandomSeed makes splits and bootstrap sampling reproducible.
	RandomSeed int64 `toml:"random_seed"`
	// CVFolds is the number of cross-validation folds used by grid search.
	CVFolds int `toml:"cv_folds"`
	// MinTrainingRows is the row count below which training proceeds with a
	// warning. It is not a gate: only an empty table refuses to train.
	MinTrainingRows int `toml:"min_training_rows"`
}

// ForecastConfig holds prediction parameters.
type ForecastConfig struct {
	// Months is the default number of future months to predict.
	Months int `toml:"months"`
}

// GCPConfig holds Google Cloud settings for the record and artifact stores.
type GCPConfig struct {
	ProjectID         string `toml:"project_id"`
	DatasetID         string `toml:"dataset_id"`
	TransactionsTable string `toml:"transactions_table"`
	ArtifactBucket    string `toml:"artifact_bucket"`
	ArtifactPrefix    string `toml:"artifact_prefix"`
}

// ArtifactsConfig selects where trained model artifacts are kept.
type ArtifactsConfig struct {
	// Backend is "local" or "gcs".
	Backend string `toml:"backend"`
	// LocalDir is the directory used by the local backend.
	LocalDir string `toml:"local_dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Pipeline: PipelineConfig{
			SalaryAmount:  5000,
			CycleDays:     30,
			ClipThreshold: 3.0,
		},
		Training: TrainingConfig{
			TestFraction:    0.5,
			RandomSeed:      42,
			CVFolds:         3,
			MinTrainingRows: 50,
		},
		Forecast: ForecastConfig{
			Months: 6,
		},
		GCP: GCPConfig{
			DatasetID:         "finance",
			TransactionsTable: "transactions",
			ArtifactPrefix:    "models",
		},
		Artifacts: ArtifactsConfig{
			Backend:  "local",
			LocalDir: "models",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "spending-forecast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "spending-forecast")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment variables override file values for the GCP settings.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads a config file from an explicit path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		cfg.GCP.ProjectID = v
	}
	if v := os.Getenv("SPENDING_FORECAST_DATASET"); v != "" {
		cfg.GCP.DatasetID = v
	}
	if v := os.Getenv("SPENDING_FORECAST_BUCKET"); v != "" {
		cfg.GCP.ArtifactBucket = v
	}
	if v := os.Getenv("SPENDING_FORECAST_ARTIFACTS"); v != "" {
		cfg.Artifacts.Backend = v
	}
}

// Validate checks that numeric settings are usable.
func (c Config) Validate() error {
	if c.Pipeline.CycleDays <= 0 {
		return fmt.Errorf("config: cycle_days must be positive, got %d", c.Pipeline.CycleDays)
	}
	if c.Pipeline.ClipThreshold <= 0 {
		return fmt.Errorf("config: clip_threshold must be positive, got %g", c.Pipeline.ClipThreshold)
	}
	if c.Training.TestFraction <= 0 || c.Training.TestFraction >= 1 {
		return fmt.Errorf("config: test_fraction must be in (0, 1), got %g", c.Training.TestFraction)
	}
	if c.Training.CVFolds < 2 {
		return fmt.Errorf("config: cv_folds must be at least 2, got %d", c.Training.CVFolds)
	}
	if c.Forecast.Months <= 0 {
		return fmt.Errorf("config: forecast months must be positive, got %d", c.Forecast.Months)
	}
	switch c.Artifacts.Backend {
	case "local", "gcs":
	default:
		return fmt.Errorf("config: unknown artifacts backend %q", c.Artifacts.Backend)
	}
	return nil
}

// Save writes the config to the config file, creating directories as needed.
func Save(cfg Config) error {
	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(ConfigPath())
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
