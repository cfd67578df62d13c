package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "PDF2MD_API_KEY", "MAX_UPLOAD_BYTES", "OCR_LANG", "OCR_DPI",
		"MIN_CHARS_PER_PAGE", "PDF_FALLBACK_PDFTOTEXT", "CLEANUP_ENDPOINT",
		"CLEANUP_MODEL", "CLEANUP_API_KEY", "DECK_NAME", "LLM_STATS_WINDOW", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8000" {
		t.Errorf("expected port 8000, got %q", cfg.Port)
	}
	if cfg.MaxUploadBytes != 52428800 {
		t.Errorf("expected 50MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.OCRLang != "eng" || cfg.OCRDPI != 144 || cfg.MinCharsPerPage != 25 {
		t.Errorf("unexpected extraction defaults: %+v", cfg)
	}
	if !cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback on by default")
	}
	if cfg.CleanupEndpoint != "https://api.openai.com/v1/chat/completions" {
		t.Errorf("unexpected endpoint %q", cfg.CleanupEndpoint)
	}
	if cfg.DeckName != "PDF Imports" {
		t.Errorf("unexpected deck name %q", cfg.DeckName)
	}
	if cfg.LLMStatsWindow != time.Hour || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected durations: %v %v", cfg.LLMStatsWindow, cfg.ShutdownTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("OCR_DPI", "300")
	t.Setenv("MIN_CHARS_PER_PAGE", "0")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	t.Setenv("MAX_UPLOAD_BYTES", "-1")
	t.Setenv("LLM_STATS_WINDOW", "5m")

	cfg := Load()
	if cfg.Port != "9000" || cfg.OCRDPI != 300 || cfg.MinCharsPerPage != 0 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
	if cfg.MaxUploadBytes != 52428800 {
		t.Errorf("expected invalid upload limit to fall back, got %d", cfg.MaxUploadBytes)
	}
	if cfg.LLMStatsWindow != 5*time.Minute {
		t.Errorf("expected 5m window, got %v", cfg.LLMStatsWindow)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("OCR_DPI", "lots")
	if cfg := Load(); cfg.OCRDPI != 144 {
		t.Errorf("expected fallback DPI, got %d", cfg.OCRDPI)
	}
}

func TestValidate(t *testing.T) {
	base := Config{CleanupEndpoint: "https://example.com/v1/chat/completions"}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	neg := base
	neg.MinCharsPerPage = -1
	if err := neg.Validate(); err == nil {
		t.Error("expected error for negative MIN_CHARS_PER_PAGE")
	}

	bad := base
	bad.CleanupEndpoint = "localhost:8080"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for endpoint without scheme")
	}
}
