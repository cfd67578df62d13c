package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anki-boi/PDF-to-MD/internal/api"
	"github.com/anki-boi/PDF-to-MD/internal/cleanup"
	"github.com/anki-boi/PDF-to-MD/internal/config"
	"github.com/anki-boi/PDF-to-MD/internal/metrics"
	"github.com/anki-boi/PDF-to-MD/internal/parser"
	"github.com/anki-boi/PDF-to-MD/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize the conversion pipeline.
	extractor := parser.NewExtractor(
		&parser.PDFText{FallbackPdftotext: cfg.PDFFallbackPdftotext},
		parser.NewTesseract(float64(cfg.OCRDPI)),
		log,
	)
	stats := cleanup.NewLLMStats(cfg.LLMStatsWindow)
	m := metrics.New()
	conv := pipeline.NewConverter(extractor, stats, m, log)

	// Initialize HTTP server.
	srv := api.NewServer(conv, stats, m, log, cfg)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 2 * time.Minute,
		// OCR plus one cleanup call per chapter can run long.
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting pdf2md server",
		"port", cfg.Port,
		"auth", cfg.APIKey != "",
		"ocr_lang", cfg.OCRLang,
		"min_chars_per_page", cfg.MinCharsPerPage,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
