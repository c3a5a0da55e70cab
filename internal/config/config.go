// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted by EMBED_PROVIDER and LLM_PROVIDER.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Index backends accepted by INDEX_BACKEND.
const (
	IndexSQLite = "sqlite"
	IndexMemory = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string

	// Logging
	LogLevel  string
	LogFormat string

	// Paths
	DocumentsDir string
	DataDir      string

	// Providers
	EmbedProvider string
	LLMProvider   string

	// Ollama
	OllamaBaseURL    string
	OllamaEmbedModel string
	OllamaChatModel  string

	// OpenAI-compatible
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIChatModel  string
	OpenAIEmbedModel string

	GenerationTimeout time.Duration // 0 = unbounded
	EmbedTimeout      time.Duration // 0 = unbounded

	// IndexBackend is "sqlite" (persistent, under DataDir) or "memory".
	IndexBackend string

	// Chunking and retrieval
	ChunkWindow            int
	ChunkStep              int
	ChunkMinLength         int
	MinEvidenceLength      int
	RetrieverMinTitleRunes int

	PDFServiceURL string

	// Transit status
	TransitStatusURL      string
	TransitFetchTimeout   time.Duration
	TransitBrowserEnabled bool
	TransitBrowserTimeout time.Duration // 0 = unbounded
	TransitBrowserPath    string
	TransitFetchRPS       float64

	MapSearchURL string

	// Maintenance
	WatchDocuments        bool
	ReloadEndpointEnabled bool
	ReloadLockWait        time.Duration
}

// Load reads an optional .env file, then configuration from environment
// variables with sensible defaults.
func Load() *Config {
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	return &Config{
		Port:    envOrDefault("PORT", "8080"),
		AppName: envOrDefault("APP_NAME", "islandguide"),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "text"),

		DocumentsDir: envOrDefault("DOCUMENTS_DIR", "./documents"),
		DataDir:      envOrDefault("DATA_DIR", "./data"),

		EmbedProvider: strings.ToLower(envOrDefault("EMBED_PROVIDER", ProviderOllama)),
		LLMProvider:   strings.ToLower(envOrDefault("LLM_PROVIDER", ProviderOpenAI)),

		OllamaBaseURL:    envOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaEmbedModel: envOrDefault("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		OllamaChatModel:  envOrDefault("OLLAMA_CHAT_MODEL", "llama3.2"),

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIChatModel:  envOrDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIEmbedModel: envOrDefault("OPENAI_EMBED_MODEL", "text-embedding-3-small"),

		GenerationTimeout: envOrDefaultDuration("GENERATION_TIMEOUT", 0),
		EmbedTimeout:      envOrDefaultDuration("EMBED_TIMEOUT", 0),

		IndexBackend: strings.ToLower(envOrDefault("INDEX_BACKEND", IndexSQLite)),

		ChunkWindow:            envOrDefaultInt("CHUNK_WINDOW", 10),
		ChunkStep:              envOrDefaultInt("CHUNK_STEP", 5),
		ChunkMinLength:         envOrDefaultInt("CHUNK_MIN_LENGTH", 30),
		MinEvidenceLength:      envOrDefaultInt("MIN_EVIDENCE_LENGTH", 10),
		RetrieverMinTitleRunes: envOrDefaultInt("RETRIEVER_MIN_TITLE_RUNES", 1),

		PDFServiceURL: envOrDefault("PDF_SERVICE_URL", "http://localhost:8081"),

		TransitStatusURL:      envOrDefault("TRANSIT_STATUS_URL", "https://www.kyusho.co.jp/status/"),
		TransitFetchTimeout:   envOrDefaultDuration("TRANSIT_FETCH_TIMEOUT", 10*time.Second),
		TransitBrowserEnabled: envOrDefaultBool("TRANSIT_BROWSER_ENABLED", true),
		TransitBrowserTimeout: envOrDefaultDuration("TRANSIT_BROWSER_TIMEOUT", 0),
		TransitBrowserPath:    os.Getenv("TRANSIT_BROWSER_PATH"),
		TransitFetchRPS:       envOrDefaultFloat("TRANSIT_FETCH_RPS", 1),

		MapSearchURL: envOrDefault("MAP_SEARCH_URL", "https://www.google.com/maps/search/?api=1&query="),

		WatchDocuments:        envOrDefaultBool("WATCH_DOCUMENTS", false),
		ReloadEndpointEnabled: envOrDefaultBool("RELOAD_ENDPOINT_ENABLED", false),
		ReloadLockWait:        envOrDefaultDuration("RELOAD_LOCK_WAIT", 0),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	for _, p := range []struct{ key, val string }{
		{"EMBED_PROVIDER", c.EmbedProvider},
		{"LLM_PROVIDER", c.LLMProvider},
	} {
		if p.val != ProviderOllama && p.val != ProviderOpenAI {
			errs = append(errs, fmt.Errorf("%s: unknown provider %q", p.key, p.val))
		}
	}
	if (c.EmbedProvider == ProviderOpenAI || c.LLMProvider == ProviderOpenAI) && c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
	}

	if c.IndexBackend != IndexSQLite && c.IndexBackend != IndexMemory {
		errs = append(errs, fmt.Errorf("INDEX_BACKEND: unknown backend %q", c.IndexBackend))
	}
	if c.ChunkWindow <= 0 || c.ChunkStep <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_WINDOW and CHUNK_STEP must be positive (got %d, %d)", c.ChunkWindow, c.ChunkStep))
	}
	if c.ChunkMinLength <= 0 || c.MinEvidenceLength <= 0 || c.RetrieverMinTitleRunes <= 0 {
		errs = append(errs, fmt.Errorf(
			"CHUNK_MIN_LENGTH, MIN_EVIDENCE_LENGTH and RETRIEVER_MIN_TITLE_RUNES must be positive (got %d, %d, %d)",
			c.ChunkMinLength, c.MinEvidenceLength, c.RetrieverMinTitleRunes))
	}
	if c.TransitFetchRPS < 0 {
		errs = append(errs, fmt.Errorf("TRANSIT_FETCH_RPS must not be negative (got %g)", c.TransitFetchRPS))
	}
	if c.TransitStatusURL == "" {
		errs = append(errs, errors.New("TRANSIT_STATUS_URL is required"))
	}
	if c.DocumentsDir == "" || c.DataDir == "" {
		errs = append(errs, errors.New("DOCUMENTS_DIR and DATA_DIR are required"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) Logger() *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(c.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler).With("app", c.AppName)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

// envOrDefaultDuration accepts Go durations ("30s") and bare seconds ("30").
func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
