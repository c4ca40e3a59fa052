// Package config handles application configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/calorieburn/internal/features"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"github.com/YuminosukeSato/calorieburn/pkg/log"
	"github.com/YuminosukeSato/calorieburn/preprocessing"
)

// Environment variables that override file values.
const (
	EnvLogLevel  = "CALORIE_LOG_LEVEL"
	EnvModelPath = "CALORIE_MODEL_PATH"
)

// Config defines the structure for all application configuration.
type Config struct {
	Data     DataConf        `yaml:"data"`
	Model    ModelConf       `yaml:"model"`
	Training TrainingConf    `yaml:"training"`
	Bounds   features.Bounds `yaml:"bounds"`
	Web      WebConf         `yaml:"web"`
	Log      LogConf         `yaml:"log"`
}

// DataConf holds the training dataset locations.
type DataConf struct {
	ExercisePath string `yaml:"exercise_path"`
	CaloriesPath string `yaml:"calories_path"`
}

// ModelConf holds artifact locations.
type ModelConf struct {
	Path     string `yaml:"path"`
	PlotPath string `yaml:"plot_path"` // empty disables the parity plot
}

// TrainingConf holds split and forest hyperparameters.
type TrainingConf struct {
	TestSize      float64 `yaml:"test_size"`
	SplitSeed     int64   `yaml:"split_seed"`
	NEstimators   int     `yaml:"n_estimators"`
	RandomState   int64   `yaml:"random_state"`
	MaxDepth      int     `yaml:"max_depth"`
	NJobs         int     `yaml:"n_jobs"`
	HandleUnknown string  `yaml:"handle_unknown"`
}

// WebConf holds the form server settings.
type WebConf struct {
	Addr      string `yaml:"addr"`
	CacheSize int    `yaml:"cache_size"` // 0 disables the prediction memo
}

// LogConf holds logging settings.
type LogConf struct {
	Level      string `yaml:"level"`
	Pretty     bool   `yaml:"pretty"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Data: DataConf{
			ExercisePath: "exercise.csv",
			CaloriesPath: "calories.csv",
		},
		Model: ModelConf{Path: "rf_model.gob"},
		Training: TrainingConf{
			TestSize:      0.2,
			SplitSeed:     42,
			NEstimators:   100,
			RandomState:   42,
			HandleUnknown: preprocessing.HandleUnknownIgnore,
		},
		Bounds: features.DefaultBounds(),
		Web:    WebConf{Addr: "127.0.0.1:8501", CacheSize: 256},
		Log:    LogConf{Level: "info", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
	}
}

// LoadConfig loads configuration from the specified YAML file path and
// environment variables. An empty path yields the defaults plus env overrides.
// Keys missing from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", configPath)
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", configPath)
		}
	}

	if logLevel := os.Getenv(EnvLogLevel); logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if modelPath := os.Getenv(EnvModelPath); modelPath != "" {
		cfg.Model.Path = modelPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := log.ToLogLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Model.Path == "" {
		return errors.NewValidationError("model.path", "must not be empty", c.Model.Path)
	}
	t := c.Training
	if t.TestSize <= 0 || t.TestSize >= 1 {
		return errors.NewValidationError("training.test_size", "must be in (0, 1)", t.TestSize)
	}
	if t.NEstimators < 1 {
		return errors.NewValidationError("training.n_estimators", "must be >= 1", t.NEstimators)
	}
	if t.HandleUnknown != preprocessing.HandleUnknownIgnore && t.HandleUnknown != preprocessing.HandleUnknownError {
		return errors.NewValidationError("training.handle_unknown", `must be "ignore" or "error"`, t.HandleUnknown)
	}
	if len(c.Bounds.Genders) == 0 {
		return errors.NewValidationError("bounds.genders", "at least one gender label is required", nil)
	}
	if c.Web.CacheSize < 0 {
		return errors.NewValidationError("web.cache_size", "must be >= 0", c.Web.CacheSize)
	}
	return nil
}

// LogOptions converts the log section to pkg/log options.
func (c *Config) LogOptions() log.Options {
	opts := log.Options{Level: c.Log.Level, Pretty: c.Log.Pretty}
	if c.Log.File != "" {
		opts.File = &log.FileOptions{
			Path:       c.Log.File,
			MaxSizeMB:  c.Log.MaxSizeMB,
			MaxBackups: c.Log.MaxBackups,
			MaxAgeDays: c.Log.MaxAgeDays,
		}
	}
	return opts
}
