package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// LLM provider
	LLMProvider string `yaml:"llm_provider"`
	LLMModel    string `yaml:"llm_model"`
	LLMAPIKey   string `yaml:"-"`
	LLMBaseURL  string `yaml:"llm_base_url"`

	// Google Docs backend; empty means application default credentials.
	GoogleCredentialsFile string `yaml:"google_credentials_file"`
	DisableGoogle         bool   `yaml:"disable_google"`

	// Feedback behaviour
	PlacementStrategy string        `yaml:"placement_strategy"`
	CritiqueDelay     time.Duration `yaml:"critique_delay"`
	WriteDelay        time.Duration `yaml:"write_delay"`
	Language          string        `yaml:"language"`
	IntroTitle        string        `yaml:"intro_title"`

	// Review history; no URL means history is kept in memory.
	PathstoreURL    string        `yaml:"pathstore_url"`
	PathstoreAPIKey string        `yaml:"-"`
	HistoryTTL      time.Duration `yaml:"history_ttl"`

	// Auth
	DocreviewAPIKey string `yaml:"-"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		LLMProvider:          "anthropic",
		LLMModel:             "claude-sonnet-4-5-20250929",
		PlacementStrategy:    "snippet",
		CritiqueDelay:        time.Second,
		WriteDelay:           time.Second,
		Language:             "English",
		IntroTitle:           "Introduction",
		HistoryTTL:           30 * 24 * time.Hour,
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxUploadBytes:       52428800, // 50MB
		JobTTL:               time.Hour,
		PDFFallbackPdftotext: true,
	}
}

// Load reads .env if present, then the optional YAML file at path, then the
// environment. Later sources win.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)

	cfg.LLMProvider = envOr("LLM_PROVIDER", cfg.LLMProvider)
	cfg.LLMModel = envOr("LLM_MODEL", cfg.LLMModel)
	cfg.LLMBaseURL = envOr("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMAPIKey = envOr("LLM_API_KEY", providerKey(cfg.LLMProvider))

	cfg.GoogleCredentialsFile = envOr("GOOGLE_APPLICATION_CREDENTIALS", cfg.GoogleCredentialsFile)
	cfg.DisableGoogle = envBool("DISABLE_GOOGLE_DOCS", cfg.DisableGoogle)

	cfg.PlacementStrategy = envOr("PLACEMENT_STRATEGY", cfg.PlacementStrategy)
	cfg.CritiqueDelay = envDuration("CRITIQUE_DELAY", cfg.CritiqueDelay)
	cfg.WriteDelay = envDuration("WRITE_DELAY", cfg.WriteDelay)
	cfg.Language = envOr("FEEDBACK_LANGUAGE", cfg.Language)
	cfg.IntroTitle = envOr("SECTION_INTRO_TITLE", cfg.IntroTitle)

	cfg.PathstoreURL = envOr("PATHSTORE_URL", cfg.PathstoreURL)
	cfg.PathstoreAPIKey = os.Getenv("PATHSTORE_API_KEY")
	cfg.HistoryTTL = envDuration("HISTORY_TTL", cfg.HistoryTTL)

	cfg.DocreviewAPIKey = os.Getenv("DOCREVIEW_API_KEY")

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	d := Defaults()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = d.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = d.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = d.JobTTL
	}
	if cfg.CritiqueDelay < 0 {
		cfg.CritiqueDelay = 0
	}
	if cfg.WriteDelay < 0 {
		cfg.WriteDelay = 0
	}
	return cfg, nil
}

// providerKey returns the provider-specific API key variable.
func providerKey(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini", "google":
		return os.Getenv("GEMINI_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
}

// ValidateLLM checks the settings every entry point needs.
func (c Config) ValidateLLM() error {
	if c.LLMAPIKey == "" {
		return errors.New("LLM_API_KEY (or the provider's own key variable) is required")
	}
	if c.LLMModel == "" {
		return errors.New("LLM_MODEL is required")
	}
	switch strings.ToLower(c.PlacementStrategy) {
	case "", "snippet", "lines":
	default:
		return fmt.Errorf("PLACEMENT_STRATEGY must be snippet or lines, got %q", c.PlacementStrategy)
	}
	return nil
}

// Validate checks the settings the HTTP server needs.
func (c Config) Validate() error {
	if err := c.ValidateLLM(); err != nil {
		return err
	}
	if c.DocreviewAPIKey == "" {
		return errors.New("DOCREVIEW_API_KEY is required")
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return errors.New("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
