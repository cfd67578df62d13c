package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth for /process. Empty disables it.
	APIKey string

	// Upload limits
	MaxUploadBytes int64

	// Extraction defaults
	OCRLang              string
	OCRDPI               int
	MinCharsPerPage      int
	PDFFallbackPdftotext bool

	// Cleanup defaults a form may leave blank
	CleanupEndpoint string
	CleanupModel    string
	CleanupAPIKey   string

	// Deck export
	DeckName string

	// Rolling window for /api/stats/llm
	LLMStatsWindow time.Duration

	ShutdownTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8000"),

		APIKey: os.Getenv("PDF2MD_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		OCRLang:              envOr("OCR_LANG", "eng"),
		OCRDPI:               envInt("OCR_DPI", 144),
		MinCharsPerPage:      envInt("MIN_CHARS_PER_PAGE", 25),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		CleanupEndpoint: envOr("CLEANUP_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		CleanupModel:    os.Getenv("CLEANUP_MODEL"),
		CleanupAPIKey:   os.Getenv("CLEANUP_API_KEY"),

		DeckName: envOr("DECK_NAME", "PDF Imports"),

		LLMStatsWindow:  envDuration("LLM_STATS_WINDOW", 1*time.Hour),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.OCRDPI <= 0 {
		cfg.OCRDPI = 144
	}
	if cfg.LLMStatsWindow <= 0 {
		cfg.LLMStatsWindow = 1 * time.Hour
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.MinCharsPerPage < 0 {
		return fmt.Errorf("MIN_CHARS_PER_PAGE must be >= 0, got %d", c.MinCharsPerPage)
	}
	u, err := url.Parse(c.CleanupEndpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CLEANUP_ENDPOINT must be an http(s) URL, got %q", c.CleanupEndpoint)
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
