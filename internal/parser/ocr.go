//go:build !noocr

package parser

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"

	"github.com/anki-boi/PDF-to-MD/internal/apperr"
)

// DefaultOCRDPI renders pages at twice the 72 DPI PDF user space.
const DefaultOCRDPI = 144

// Tesseract renders pages with MuPDF and recognises them with Tesseract.
type Tesseract struct {
	DPI float64
}

// NewTesseract returns an OCR engine rendering at dpi, or DefaultOCRDPI if dpi <= 0.
func NewTesseract(dpi float64) *Tesseract {
	if dpi <= 0 {
		dpi = DefaultOCRDPI
	}
	return &Tesseract{DPI: dpi}
}

// Recognize OCRs every page in order, one page at a time.
func (t *Tesseract) Recognize(pdf []byte, lang string) ([]string, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf for rendering: %w", err)
	}
	defer doc.Close()

	client := gosseract.NewClient()
	defer client.Close()
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		return nil, tesseractUnavailable(lang, err)
	}

	numPages := doc.NumPage()
	pages := make([]string, 0, numPages)
	for i := 0; i < numPages; i++ {
		img, err := doc.ImagePNG(i, t.DPI)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		if err := client.SetImageFromBytes(img); err != nil {
			return nil, fmt.Errorf("load page %d image: %w", i+1, err)
		}
		text, err := client.Text()
		if err != nil {
			// Tesseract initialises lazily on the first Text call, so a
			// failure there means the engine or its language data is missing.
			if i == 0 {
				return nil, tesseractUnavailable(lang, err)
			}
			return nil, fmt.Errorf("recognise page %d: %w", i+1, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}

func tesseractUnavailable(lang string, err error) error {
	return &apperr.DependencyError{
		Capability: "OCR",
		Hint:       fmt.Sprintf("install tesseract-ocr with the %q language data", lang),
		Err:        err,
	}
}
