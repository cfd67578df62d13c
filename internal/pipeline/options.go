package pipeline

import (
	"strings"

	"github.com/anki-boi/PDF-to-MD/internal/apperr"
	"github.com/anki-boi/PDF-to-MD/internal/cleanup"
)

// Format selects the output artifact.
type Format string

const (
	FormatZip  Format = "zip"
	FormatAPKG Format = "apkg"
)

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string { return string(f) }

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatAPKG {
		return "application/octet-stream"
	}
	return "application/zip"
}

// ParseFormat accepts "zip" or "apkg", case-insensitively. Empty means zip.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatZip:
		return FormatZip, nil
	case FormatAPKG:
		return FormatAPKG, nil
	}
	return "", apperr.Input("unsupported format %q (expected zip or apkg)", s)
}

// Options is the per-run configuration surface shared by the CLI and HTTP form.
type Options struct {
	ForceOCR        bool
	OCRLang         string
	MinCharsPerPage int

	AICleanup bool
	APIKey    string
	Model     string
	Endpoint  string

	Format      Format
	DeckName    string
	UseSubdecks bool
}

// DefaultOptions mirrors the CLI defaults.
func DefaultOptions() Options {
	return Options{
		OCRLang:         "eng",
		MinCharsPerPage: 25,
		Endpoint:        cleanup.DefaultEndpoint,
		Format:          FormatZip,
		DeckName:        "PDF Imports",
		UseSubdecks:     true,
	}
}

// Validate rejects option sets that cannot run, before any document work.
func (o Options) Validate() error {
	if o.MinCharsPerPage < 0 {
		return apperr.Input("min_chars_per_page must be >= 0, got %d", o.MinCharsPerPage)
	}
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return err
	}
	if o.AICleanup {
		if err := cleanup.ValidateCredentials(o.APIKey, o.Model); err != nil {
			return err
		}
		if err := cleanup.ValidateEndpoint(o.Endpoint); err != nil {
			return err
		}
	}
	return nil
}
