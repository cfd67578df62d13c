package parser

import (
	"bytes"
	"path/filepath"
	"strings"
)

// TextExtractor pulls per-page plain text out of embedded PDF text streams.
type TextExtractor interface {
	PageTexts(pdf []byte) ([]string, error)
}

// OCREngine rasterises every page of a PDF and recognises its text.
// The result holds one entry per page, in page order.
type OCREngine interface {
	Recognize(pdf []byte, lang string) ([]string, error)
}

var pdfMagic = []byte("%PDF-")

// IsPDFName reports whether filename carries a .pdf extension.
func IsPDFName(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".pdf"
}

// HasPDFHeader reports whether data starts with the PDF magic within the
// first KB, which is where readers tolerate leading junk.
func HasPDFHeader(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, pdfMagic)
}
