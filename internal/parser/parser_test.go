package parser

import (
	"strings"
	"testing"
)

func TestIsPDFName(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"book.pdf", true},
		{"BOOK.PDF", true},
		{"dir/notes.Pdf", true},
		{"book.pdf.txt", false},
		{"book", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPDFName(tt.filename); got != tt.want {
			t.Errorf("IsPDFName(%q): expected %v, got %v", tt.filename, tt.want, got)
		}
	}
}

func TestHasPDFHeader(t *testing.T) {
	if !HasPDFHeader([]byte("%PDF-1.7\n...")) {
		t.Error("expected header at offset 0 to be found")
	}
	if !HasPDFHeader([]byte("\xef\xbb\xbf%PDF-1.4")) {
		t.Error("expected header after leading junk to be found")
	}
	if HasPDFHeader([]byte("PK\x03\x04 not a pdf")) {
		t.Error("expected zip magic to be rejected")
	}
	late := strings.Repeat(" ", 2048) + "%PDF-1.4"
	if HasPDFHeader([]byte(late)) {
		t.Error("expected header past the first KB to be rejected")
	}
}

func TestSplitPages(t *testing.T) {
	got := splitPages("page one\fpage two\f")
	if len(got) != 2 {
		t.Fatalf("expected 2 pages, got %d: %q", len(got), got)
	}
	if got[0] != "page one" || got[1] != "page two" {
		t.Errorf("unexpected pages %q", got)
	}
	if splitPages("") != nil {
		t.Error("expected no pages for empty output")
	}
	if got := splitPages("\f\f"); len(got) != 2 {
		t.Errorf("expected blank pages to be kept, got %q", got)
	}
}
