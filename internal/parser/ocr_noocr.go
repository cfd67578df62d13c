//go:build noocr

package parser

import "github.com/anki-boi/PDF-to-MD/internal/apperr"

const DefaultOCRDPI = 144

// Tesseract is a placeholder in builds without the cgo OCR stack.
type Tesseract struct {
	DPI float64
}

func NewTesseract(dpi float64) *Tesseract {
	return &Tesseract{DPI: dpi}
}

func (t *Tesseract) Recognize(pdf []byte, lang string) ([]string, error) {
	return nil, &apperr.DependencyError{
		Capability: "OCR",
		Hint:       "binary built with the noocr tag; rebuild without it and install tesseract-ocr",
	}
}
