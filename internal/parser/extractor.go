package parser

import (
	"fmt"
	"log/slog"

	"github.com/anki-boi/PDF-to-MD/internal/apperr"
	"github.com/anki-boi/PDF-to-MD/internal/doctree"
)

// Options controls the embedded-text versus OCR decision for one document.
type Options struct {
	ForceOCR        bool
	MinCharsPerPage int
	OCRLang         string
}

// Extractor picks embedded text when it is dense enough and OCR otherwise.
type Extractor struct {
	text TextExtractor
	ocr  OCREngine
	log  *slog.Logger
}

// NewExtractor wires an extractor. ocr may be nil, in which case any
// document that needs OCR fails with a DependencyError.
func NewExtractor(text TextExtractor, ocr OCREngine, log *slog.Logger) *Extractor {
	return &Extractor{text: text, ocr: ocr, log: log}
}

// ExtractPages returns per-page text for pdf and how it was obtained.
// Embedded extraction always runs first.
func (e *Extractor) ExtractPages(pdf []byte, opts Options) ([]string, doctree.Diagnostics, error) {
	embedded, err := e.text.PageTexts(pdf)
	if err != nil {
		return nil, doctree.Diagnostics{}, err
	}
	avg := AvgCharsPerPage(embedded)

	if !opts.ForceOCR && avg >= opts.MinCharsPerPage {
		e.log.Info("using embedded text", "pages", len(embedded), "avg_chars_per_page", avg)
		return embedded, doctree.Diagnostics{Method: doctree.MethodEmbedded, AvgCharsPerPage: avg}, nil
	}

	e.log.Info("falling back to ocr",
		"force_ocr", opts.ForceOCR,
		"embedded_avg_chars_per_page", avg,
		"min_chars_per_page", opts.MinCharsPerPage,
		"lang", opts.OCRLang,
	)
	if e.ocr == nil {
		return nil, doctree.Diagnostics{}, &apperr.DependencyError{
			Capability: "OCR",
			Hint:       "no OCR engine configured",
		}
	}
	pages, err := e.ocr.Recognize(pdf, opts.OCRLang)
	if err != nil {
		return nil, doctree.Diagnostics{}, fmt.Errorf("ocr: %w", err)
	}
	return pages, doctree.Diagnostics{Method: doctree.MethodOCR, AvgCharsPerPage: AvgCharsPerPage(pages)}, nil
}
