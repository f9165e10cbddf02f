package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultSubjects is the subject vocabulary used when none is configured.
var DefaultSubjects = []string{"biology", "physics", "chemistry"}

type Config struct {
	Log struct {
		Level string `yaml:"level" env:"GRADEBENCH_LOG_LEVEL,overwrite"`
	} `yaml:"log"`

	Server struct {
		Port           int               `yaml:"port" env:"GRADEBENCH_PORT,overwrite"`
		APIKeys        map[string]string `yaml:"apiKeys"`
		AllowedOrigins []string          `yaml:"allowedOrigins"`
		RateLimit      int               `yaml:"rateLimit"` // requests per minute per client
	} `yaml:"server"`

	Analysis struct {
		Subjects   []string `yaml:"subjects"`
		Dedup      bool     `yaml:"dedup" env:"GRADEBENCH_DEDUP,overwrite"`
		LogPath    string   `yaml:"logPath"`
		ReportPath string   `yaml:"reportPath"`
	} `yaml:"analysis"`

	Pipeline struct {
		ResponsesDir    string        `yaml:"responsesDir"`
		ChatsDir        string        `yaml:"chatsDir"`
		ProblemsPath    string        `yaml:"problemsPath"`
		Pace            time.Duration `yaml:"pace"`
		GradingProvider string        `yaml:"gradingProvider"`
		GradingModel    string        `yaml:"gradingModel"`
	} `yaml:"pipeline"`

	Providers struct {
		OpenAI struct {
			APIKey  string `yaml:"apiKey" env:"OPENAI_API_KEY,overwrite"`
			BaseURL string `yaml:"baseURL"`
		} `yaml:"openai"`
		Anthropic struct {
			APIKey string `yaml:"apiKey" env:"ANTHROPIC_API_KEY,overwrite"`
		} `yaml:"anthropic"`
		Gemini struct {
			APIKey string `yaml:"apiKey" env:"GEMINI_API_KEY,overwrite"`
		} `yaml:"gemini"`
	} `yaml:"providers"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres, empty disables the mirror
		DSN      string `yaml:"dsn" env:"GRADEBENCH_DB_DSN,overwrite"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password" env:"GRADEBENCH_DB_PASSWORD,overwrite"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey" env:"MINIO_ACCESS_KEY,overwrite"`
		SecretKey  string `yaml:"secretKey" env:"MINIO_SECRET_KEY,overwrite"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Load reads the YAML file at path (skipped when path is empty), overlays
// environment variables and fills defaults.
func Load(ctx context.Context, path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Analysis.Subjects) == 0 {
		c.Analysis.Subjects = append([]string(nil), DefaultSubjects...)
	}
	if c.Analysis.LogPath == "" {
		c.Analysis.LogPath = "results.txt"
	}
	if c.Analysis.ReportPath == "" {
		c.Analysis.ReportPath = "grouped_results.txt"
	}
	if c.Pipeline.ResponsesDir == "" {
		c.Pipeline.ResponsesDir = "Responses"
	}
	if c.Pipeline.ChatsDir == "" {
		c.Pipeline.ChatsDir = "FullChats"
	}
	if c.Pipeline.Pace == 0 {
		c.Pipeline.Pace = 100 * time.Second
	}
	if c.Pipeline.GradingProvider == "" {
		c.Pipeline.GradingProvider = "openai"
	}
	if c.Pipeline.GradingModel == "" {
		c.Pipeline.GradingModel = "gpt-5"
	}
}

// DatabaseDSN returns the configured DSN, or builds one for the driver from
// the individual connection fields.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	switch c.Database.Driver {
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
		)
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
		)
	}
}
