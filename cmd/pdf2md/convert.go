package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anki-boi/PDF-to-MD/internal/apperr"
	"github.com/anki-boi/PDF-to-MD/internal/cleanup"
	"github.com/anki-boi/PDF-to-MD/internal/parser"
	"github.com/anki-boi/PDF-to-MD/internal/pipeline"
)

func newConvertCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file.pdf>",
		Short: "Convert a PDF into chapter markdown or an Anki deck",
		Long: `Convert writes <name>-chapters-<timestamp>.zip (or .apkg) next to the input
unless --output is given. The ZIP holds the flattened PDF, an extraction
report and one markdown file per chapter.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, v, args[0])
		},
	}

	f := cmd.Flags()
	f.Bool("force-ocr", false, "force OCR for all pages")
	f.String("ocr-lang", "eng", "Tesseract language code")
	f.Int("ocr-dpi", parser.DefaultOCRDPI, "render resolution for OCR")
	f.Int("min-chars-per-page", 25, "fall back to OCR when embedded text averages fewer characters per page")
	f.Bool("pdftotext-fallback", true, "retry embedded extraction with pdftotext when the PDF reader fails")
	f.Bool("ai-cleanup", false, "clean each chapter with a language model")
	f.String("api-key", "", "API key for AI cleanup")
	f.String("model", "", "model for AI cleanup")
	f.String("endpoint", cleanup.DefaultEndpoint, "OpenAI-compatible chat completions endpoint")
	f.StringP("output", "o", "", "output file path")
	f.String("format", "zip", "export format: zip (markdown package) or apkg (Anki deck)")
	f.String("deck-name", "PDF Imports", "deck name used with --format apkg")
	f.Bool("no-subdecks", false, "with --format apkg, keep all cards in one deck instead of chapter subdecks")

	f.VisitAll(func(fl *pflag.Flag) {
		v.BindPFlag(configKey(fl.Name), fl)
	})
	return cmd
}

// configKey turns a flag name into its config file / env key: ocr-lang -> ocr_lang.
func configKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

func optionsFromConfig(v *viper.Viper) (pipeline.Options, error) {
	format, err := pipeline.ParseFormat(v.GetString("format"))
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		ForceOCR:        v.GetBool("force_ocr"),
		OCRLang:         v.GetString("ocr_lang"),
		MinCharsPerPage: v.GetInt("min_chars_per_page"),
		AICleanup:       v.GetBool("ai_cleanup"),
		APIKey:          v.GetString("api_key"),
		Model:           v.GetString("model"),
		Endpoint:        v.GetString("endpoint"),
		Format:          format,
		DeckName:        v.GetString("deck_name"),
		UseSubdecks:     !v.GetBool("no_subdecks"),
	}
	return opts, opts.Validate()
}

// validatePDFPath accepts an existing regular file with a .pdf extension.
func validatePDFPath(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || !parser.IsPDFName(path) {
		return apperr.Input("'%s' is not a valid PDF path.", path)
	}
	return nil
}

func runConvert(cmd *cobra.Command, v *viper.Viper, path string) error {
	if err := validatePDFPath(path); err != nil {
		return err
	}
	opts, err := optionsFromConfig(v)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	extractor := parser.NewExtractor(
		&parser.PDFText{FallbackPdftotext: v.GetBool("pdftotext_fallback")},
		parser.NewTesseract(float64(v.GetInt("ocr_dpi"))),
		log,
	)
	conv := pipeline.NewConverter(extractor, nil, nil, log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := conv.Convert(ctx, pipeline.Request{
		SourceName: filepath.Base(path),
		Data:       data,
		Options:    opts,
	})
	if err != nil {
		return err
	}

	out := v.GetString("output")
	if out == "" {
		out = defaultOutputPath(path, opts.Format, time.Now())
	}
	if err := os.WriteFile(out, res.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Done: %s\n", out)
	return nil
}

// defaultOutputPath places the artifact next to the input PDF.
func defaultOutputPath(input string, format pipeline.Format, now time.Time) string {
	return filepath.Join(filepath.Dir(input), pipeline.OutputName(filepath.Base(input), format, now))
}
