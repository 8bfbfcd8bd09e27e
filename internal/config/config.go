package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderCompletions = "completions"
	ProviderGemini      = "gemini"
	ProviderNone        = "none"

	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	LLMProvider string        `env:"LLM_PROVIDER" envDefault:"completions"`
	LLMBaseURL  string        `env:"LLM_BASE_URL" envDefault:"http://localhost:1234/v1/"`
	LLMModel    string        `env:"LLM_MODEL"    envDefault:"ds-r1-llama-8b"`
	LLMAPIKey   string        `env:"LLM_API_KEY"`
	LLMTimeout  time.Duration `env:"LLM_TIMEOUT"`

	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL"    envDefault:"gemini-2.5-flash"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL"`

	MockDelay        time.Duration `env:"MOCK_DELAY"        envDefault:"2s"`
	PDFDelay         time.Duration `env:"PDF_DELAY"         envDefault:"1s"`
	ProgressInterval time.Duration `env:"PROGRESS_INTERVAL" envDefault:"500ms"`

	UserStore string `env:"USER_STORE" envDefault:"file"`
	UsersFile string `env:"USERS_FILE" envDefault:"users_db.json"`
	DBPath    string `env:"DB_PATH"    envDefault:"db.sqlite"`

	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES"    envDefault:"10485760"`
	MaxConcurrentJobs int           `env:"MAX_CONCURRENT_JOBS" envDefault:"4"`
	JobTTL            time.Duration `env:"JOB_TTL"             envDefault:"1h"`
	JobsMaxEntries    int           `env:"JOBS_MAX_ENTRIES"    envDefault:"1024"`
	SweepSpec         string        `env:"SWEEP_SPEC"          envDefault:"@every 1m"`
	SubmitInterval    time.Duration `env:"SUBMIT_INTERVAL"     envDefault:"1s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	// Missing .env is expected outside local development.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.LLMProvider {
	case ProviderCompletions, ProviderGemini, ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be one of completions, gemini, none: %q", c.LLMProvider))
	}

	switch c.UserStore {
	case StoreFile, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("USER_STORE must be file or sqlite: %q", c.UserStore))
	}

	if c.LLMProvider == ProviderGemini && strings.TrimSpace(c.GeminiAPIKey) == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required for gemini provider"))
	}

	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func ParseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	return level, nil
}
