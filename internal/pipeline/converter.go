// Package pipeline runs one PDF through flattening, extraction, chapter
// segmentation, optional cleanup and output assembly.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anki-boi/PDF-to-MD/internal/apperr"
	"github.com/anki-boi/PDF-to-MD/internal/chunker"
	"github.com/anki-boi/PDF-to-MD/internal/cleanup"
	"github.com/anki-boi/PDF-to-MD/internal/doctree"
	"github.com/anki-boi/PDF-to-MD/internal/export"
	"github.com/anki-boi/PDF-to-MD/internal/metrics"
	"github.com/anki-boi/PDF-to-MD/internal/parser"
)

// ErrCleanup wraps every failure of the optional cleanup stage.
var ErrCleanup = errors.New("cleanup failed")

// Request is one conversion: the uploaded bytes, their original file name
// and the run options.
type Request struct {
	SourceName string
	Data       []byte
	Options    Options
}

// Result is the finished artifact.
type Result struct {
	Data        []byte
	Filename    string
	ContentType string
	Diagnostics doctree.Diagnostics
	Chapters    int
}

// Converter is safe for concurrent use; each Convert call owns its data.
type Converter struct {
	extractor *parser.Extractor
	stats     *cleanup.LLMStats
	metrics   *metrics.Metrics
	log       *slog.Logger

	flatten func([]byte) ([]byte, error)
	now     func() time.Time
}

// NewConverter wires a converter. stats and m may be nil.
func NewConverter(extractor *parser.Extractor, stats *cleanup.LLMStats, m *metrics.Metrics, log *slog.Logger) *Converter {
	return &Converter{
		extractor: extractor,
		stats:     stats,
		metrics:   m,
		log:       log,
		flatten:   parser.Flatten,
		now:       time.Now,
	}
}

// WithFlattener replaces the PDF flattener, mainly for tests.
func (c *Converter) WithFlattener(fn func([]byte) ([]byte, error)) *Converter {
	c.flatten = fn
	return c
}

// WithClock replaces the clock used for output names and deck timestamps.
func (c *Converter) WithClock(now func() time.Time) *Converter {
	c.now = now
	return c
}

// Convert runs the whole pipeline synchronously. Input and option problems
// are reported as apperr.InputError before any extraction work starts.
func (c *Converter) Convert(ctx context.Context, req Request) (*Result, error) {
	opts := req.Options
	if f, err := ParseFormat(string(opts.Format)); err == nil {
		opts.Format = f
	}
	log := c.log.With("source", req.SourceName, "format", opts.Format)

	res, err := c.convert(ctx, log, req.SourceName, req.Data, opts)
	method := ""
	if res != nil {
		method = res.Diagnostics.Method
	}
	c.metrics.ObserveConversion(string(opts.Format), method, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Converter) convert(ctx context.Context, log *slog.Logger, sourceName string, data []byte, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, apperr.Input("no PDF provided")
	}
	if !parser.HasPDFHeader(data) {
		return nil, apperr.Input("%q is not a PDF document", sourceName)
	}

	// Phase 1: Flatten
	var flattened []byte
	err := c.timePhase(PhaseFlatten, func() error {
		var err error
		flattened, err = c.flatten(data)
		return err
	})
	if err != nil {
		return nil, apperr.Input("invalid PDF: %v", err)
	}
	if pages, err := parser.PageCount(flattened); err != nil {
		log.Warn("page count unavailable", "error", err)
	} else {
		log.Info("flattened document", "pages", pages, "bytes_in", len(data), "bytes_out", len(flattened))
	}

	// Phase 2: Extract
	var pages []string
	var diag doctree.Diagnostics
	err = c.timePhase(PhaseExtract, func() error {
		var err error
		pages, diag, err = c.extractor.ExtractPages(flattened, parser.Options{
			ForceOCR:        opts.ForceOCR,
			MinCharsPerPage: opts.MinCharsPerPage,
			OCRLang:         opts.OCRLang,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	log = log.With("method", diag.Method)
	log.Info("extracted text", "pages", len(pages), "avg_chars_per_page", diag.AvgCharsPerPage)

	// Phase 3: Segment
	var chapters []doctree.Chunk
	c.timePhase(PhaseSegment, func() error {
		chapters = chunker.SplitChapters(pages)
		return nil
	})
	c.metrics.ObserveChapters(len(chapters))
	log.Info("segmented chapters", "chapters", len(chapters))

	// Phase 4: Cleanup
	if opts.AICleanup {
		err = c.timePhase(PhaseCleanup, func() error {
			return c.cleanChapters(ctx, log, chapters, opts)
		})
		if err != nil {
			return nil, err
		}
	}

	// Phase 5: Assemble
	var out bytes.Buffer
	err = c.timePhase(PhaseAssemble, func() error {
		return c.assemble(ctx, &out, sourceName, flattened, diag, chapters, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", opts.Format, err)
	}

	name := OutputName(sourceName, opts.Format, c.now())
	log.Info("conversion complete", "output", name, "bytes", out.Len())
	return &Result{
		Data:        out.Bytes(),
		Filename:    name,
		ContentType: opts.Format.ContentType(),
		Diagnostics: diag,
		Chapters:    len(chapters),
	}, nil
}

// cleanChapters replaces each chapter's text in place, in order. The first
// failure aborts the run.
func (c *Converter) cleanChapters(ctx context.Context, log *slog.Logger, chapters []doctree.Chunk, opts Options) error {
	client := cleanup.NewClient(opts.APIKey, opts.Model, opts.Endpoint, c.stats)
	defer client.Close()

	for i := range chapters {
		start := time.Now()
		cleaned, err := client.Clean(ctx, chapters[i].Text)
		c.metrics.ObserveCleanup(err)
		if err != nil {
			log.Error("cleanup failed", "chapter", i+1, "title", chapters[i].Title, "error", err)
			return fmt.Errorf("%w: chapter %d (%s): %w", ErrCleanup, i+1, chapters[i].Title, err)
		}
		log.Debug("cleaned chapter",
			"chapter", i+1,
			"model", client.Model(),
			"tokens_in", chunker.EstimateTokens(chapters[i].Text),
			"tokens_out", chunker.EstimateTokens(cleaned),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		chapters[i].Text = cleaned
	}
	return nil
}

func (c *Converter) assemble(ctx context.Context, out *bytes.Buffer, sourceName string, flattened []byte, diag doctree.Diagnostics, chapters []doctree.Chunk, opts Options) error {
	if opts.Format == FormatAPKG {
		pkg := export.BuildDeckPackage(chapters, export.DeckOptions{
			SourceName: sourceName,
			RootDeck:   opts.DeckName,
			Subdecks:   opts.UseSubdecks,
		})
		return export.WriteDeckPackage(ctx, out, pkg, c.now())
	}
	return export.WriteMarkdownZip(out, export.MarkdownArchive{
		SourceName:  sourceName,
		Flattened:   flattened,
		Diagnostics: diag,
		Chapters:    chapters,
	})
}

// OutputName is the download name for a converted document:
// <stem>-chapters-<YYYYmmdd-HHMMSS>.<ext>.
func OutputName(sourceName string, format Format, now time.Time) string {
	stem := export.Stem(sourceName)
	if stem == "" {
		stem = "document"
	}
	return fmt.Sprintf("%s-chapters-%s.%s", stem, now.Format("20060102-150405"), format.Extension())
}
