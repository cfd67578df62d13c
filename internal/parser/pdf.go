package parser

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFText extracts embedded page text with the Go reader,
// then falls back to pdftotext if the reader cannot open the document.
type PDFText struct {
	FallbackPdftotext bool
}

// PageTexts returns one trimmed string per page. Pages without a text
// layer yield an empty string so that indices stay aligned with page numbers.
func (p *PDFText) PageTexts(data []byte) ([]string, error) {
	pages, err := readPages(data)
	if err != nil && p.FallbackPdftotext {
		pages, err = pdftotextPages(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	for i := range pages {
		pages[i] = strings.TrimSpace(pages[i])
	}
	return pages, nil
}

func readPages(data []byte) (pages []string, err error) {
	// ledongthuc/pdf panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf reader: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func pdftotextPages(data []byte) ([]string, error) {
	// pdftotext only reads from a path.
	tmp, err := os.CreateTemp("", "pdf2md-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmpPath, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return splitPages(string(out)), nil
}

// splitPages splits pdftotext output on form feeds, which it emits after every page.
func splitPages(text string) []string {
	text = strings.TrimSuffix(text, "\f")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\f")
}
