package doctree

import "fmt"

// Extraction methods recorded in Diagnostics.
const (
	MethodEmbedded = "embedded-text"
	MethodOCR      = "ocr"
)

// Titles assigned when no heading names a chunk.
const (
	DefaultTitle  = "Introduction"
	FallbackTitle = "Document"
)

// Chunk is one chapter: the heading that opened it and the text that follows.
type Chunk struct {
	Title string // Detected heading, or DefaultTitle for leading text
	Text  string // Newline-joined lines up to the next heading, trimmed
}

// Diagnostics records how page text was obtained for a document.
type Diagnostics struct {
	Method          string `json:"method"`
	AvgCharsPerPage int    `json:"avg_chars_per_page"`
}

// Report renders the plain-text extraction report stored next to the chapters.
func (d Diagnostics) Report() string {
	return fmt.Sprintf("method=%s\navg_chars_per_page=%d\n", d.Method, d.AvgCharsPerPage)
}
