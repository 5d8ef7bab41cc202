package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // postgres | sqlite
	URL    string `yaml:"url"`    // postgres DSN
	Path   string `yaml:"path"`   // sqlite file
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty disables the hot cache layer
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type VisionConfig struct {
	OpenRouterKey     string `yaml:"openrouter_key"`
	OpenRouterBaseURL string `yaml:"openrouter_base_url"`
	GeminiKey         string `yaml:"gemini_key"`
	GeminiURL         string `yaml:"gemini_url"`
	FastModel         string `yaml:"fast_model"`
	DeepModel         string `yaml:"deep_model"`
}

type NutritionConfig struct {
	USDAKey string `yaml:"usda_key"`
	BaseURL string `yaml:"base_url"`
}

type SegmenterConfig struct {
	URL     string        `yaml:"url"` // empty disables deep scan
	Timeout time.Duration `yaml:"timeout"`
}

type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

type JobsConfig struct {
	Retention     time.Duration `yaml:"retention"`      // keep finished jobs readable this long
	SweepInterval time.Duration `yaml:"sweep_interval"` //
	CropWorkers   int           `yaml:"crop_workers"`   // max concurrent crop analyses
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Vision    VisionConfig    `yaml:"vision"`
	Nutrition NutritionConfig `yaml:"nutrition"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Jobs      JobsConfig      `yaml:"jobs"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "foodvision.db"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Vision.OpenRouterBaseURL == "" {
		cfg.Vision.OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Vision.FastModel == "" {
		cfg.Vision.FastModel = "openai/gpt-4o"
	}
	if cfg.Vision.DeepModel == "" {
		cfg.Vision.DeepModel = "qwen/qwen-vl-plus"
	}
	if cfg.Nutrition.BaseURL == "" {
		cfg.Nutrition.BaseURL = "https://api.nal.usda.gov/fdc/v1"
	}
	if cfg.Segmenter.Timeout <= 0 {
		cfg.Segmenter.Timeout = 60 * time.Second
	}
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = "uploads"
	}
	if cfg.Jobs.Retention <= 0 {
		cfg.Jobs.Retention = 10 * time.Minute
	}
	if cfg.Jobs.SweepInterval <= 0 {
		cfg.Jobs.SweepInterval = time.Minute
	}
	if cfg.Jobs.CropWorkers <= 0 {
		cfg.Jobs.CropWorkers = 10
	}

	// Minimal validation
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.URL == "" {
			return nil, errors.New("database.url is required for the postgres driver")
		}
	case "sqlite":
	default:
		return nil, fmt.Errorf("unknown database.driver %q", cfg.Database.Driver)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
