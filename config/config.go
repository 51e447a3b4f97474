// Package config loads the settings shared by the fairdata command line tools.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all fairdata configuration.
type Config struct {
	Tabular TabularConfig `yaml:"tabular"`
	Images  ImagesConfig  `yaml:"images"`
	Logging LoggingConfig `yaml:"logging"`
	Report  ReportConfig  `yaml:"report"`
}

// TabularConfig configures the L2 voter file adapter.
type TabularConfig struct {
	Root       string  `yaml:"root"`
	Filename   string  `yaml:"filename"`
	TargetAttr string  `yaml:"target_attr"`
	TestRatio  float64 `yaml:"test_ratio"`
	SplitSeed  int64   `yaml:"split_seed"`
}

// ImagesConfig configures the UTKFace/FairFace adapter.
type ImagesConfig struct {
	Root         string  `yaml:"root"`
	FairFaceRoot string  `yaml:"fairface_root"`
	Version      string  `yaml:"version"`
	Seed         int64   `yaml:"seed"`
	SVRatio      float64 `yaml:"sv_ratio"`
	Sensitive    string  `yaml:"sensitive"`
	Target       string  `yaml:"target"`

	// HoldoutPerBucket is the number of test images kept per
	// (group,label) bucket. TestRatio, when set, takes precedence.
	HoldoutPerBucket int     `yaml:"holdout_per_bucket"`
	TestRatio        float64 `yaml:"test_ratio"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ReportConfig configures the distribution plots.
type ReportConfig struct {
	OutDir string `yaml:"out_dir"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Tabular: TabularConfig{
			Root:       "./data/l2",
			Filename:   "NC_bisg.csv",
			TargetAttr: "black",
			TestRatio:  0.2,
			SplitSeed:  0,
		},
		Images: ImagesConfig{
			Root:             "./data/UTKFace",
			FairFaceRoot:     "./data/fairface",
			Seed:             0,
			SVRatio:          1,
			Sensitive:        "race",
			Target:           "age",
			HoldoutPerBucket: 100,
		},
		Logging: LoggingConfig{Level: "info"},
		Report:  ReportConfig{OutDir: "plots"},
	}
}

// Load reads a YAML file on top of DefaultConfig, then applies a .env file
// from the working directory and FAIRDATA_* environment overrides. An empty
// path skips the YAML step.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects values the adapters cannot work with.
func (c *Config) Validate() error {
	if c.Images.SVRatio <= 0 || c.Images.SVRatio > 1 {
		return fmt.Errorf("images.sv_ratio must be in (0, 1], got %v", c.Images.SVRatio)
	}
	if c.Images.TestRatio < 0 || c.Images.TestRatio >= 1 {
		return fmt.Errorf("images.test_ratio must be in [0, 1), got %v", c.Images.TestRatio)
	}
	if c.Tabular.TestRatio <= 0 || c.Tabular.TestRatio >= 1 {
		return fmt.Errorf("tabular.test_ratio must be in (0, 1), got %v", c.Tabular.TestRatio)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("FAIRDATA_TABULAR_ROOT"); v != "" {
		c.Tabular.Root = v
	}
	if v := os.Getenv("FAIRDATA_IMAGE_ROOT"); v != "" {
		c.Images.Root = v
	}
	if v, ok := os.LookupEnv("FAIRDATA_FAIRFACE_ROOT"); ok {
		// an empty value disables the FairFace merge
		c.Images.FairFaceRoot = v
	}
	if v := os.Getenv("FAIRDATA_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FAIRDATA_SEED: %w", err)
		}
		c.Images.Seed = seed
	}
	if v := os.Getenv("FAIRDATA_SV_RATIO"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FAIRDATA_SV_RATIO: %w", err)
		}
		c.Images.SVRatio = ratio
	}
	if v := os.Getenv("FAIRDATA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}
