package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anki-boi/PDF-to-MD/internal/apperr"
	"github.com/anki-boi/PDF-to-MD/internal/cleanup"
	"github.com/anki-boi/PDF-to-MD/internal/doctree"
	"github.com/anki-boi/PDF-to-MD/internal/export"
	"github.com/anki-boi/PDF-to-MD/internal/metrics"
	"github.com/anki-boi/PDF-to-MD/internal/parser"
)

type fakeText struct {
	pages []string
	calls int
}

func (f *fakeText) PageTexts([]byte) ([]string, error) {
	f.calls++
	return f.pages, nil
}

type fakeOCR struct {
	pages []string
	err   error
}

func (f *fakeOCR) Recognize([]byte, string) ([]string, error) { return f.pages, f.err }

var fakePDF = []byte("%PDF-1.4\nfake body")

var clock = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newTestConverter(text parser.TextExtractor, ocr parser.OCREngine) *Converter {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewConverter(parser.NewExtractor(text, ocr, log), cleanup.NewLLMStats(time.Hour), metrics.New(), log).
		WithFlattener(func(b []byte) ([]byte, error) { return b, nil }).
		WithClock(func() time.Time { return clock })
}

func zipEntries(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(b)
	}
	return out
}

func TestConvert_MarkdownZip(t *testing.T) {
	text := &fakeText{pages: []string{
		"Chapter 1: Intro\nhello world, this page has plenty of text",
		"Chapter 2: Next\nmore text that is long enough to count",
	}}
	c := newTestConverter(text, nil)

	res, err := c.Convert(context.Background(), Request{
		SourceName: "book.pdf",
		Data:       fakePDF,
		Options:    DefaultOptions(),
	})
	require.NoError(t, err)

	assert.Equal(t, "book-chapters-20240506-070809.zip", res.Filename)
	assert.Equal(t, "application/zip", res.ContentType)
	assert.Equal(t, doctree.MethodEmbedded, res.Diagnostics.Method)
	assert.Equal(t, 2, res.Chapters)

	entries := zipEntries(t, res.Data)
	assert.Equal(t, string(fakePDF), entries["book_flattened.pdf"])
	assert.Contains(t, entries[export.ReportName], "method=embedded-text\n")
	assert.Equal(t, "# Chapter 1: Intro\n\nhello world, this page has plenty of text\n", entries["01-chapter-1-intro.md"])
	assert.Contains(t, entries, "02-chapter-2-next.md")
}

func TestConvert_FallsBackToOCR(t *testing.T) {
	ocr := &fakeOCR{pages: []string{"SCANNED CHAPTER\nrecognised words"}}
	c := newTestConverter(&fakeText{pages: []string{""}}, ocr)

	res, err := c.Convert(context.Background(), Request{SourceName: "scan.pdf", Data: fakePDF, Options: DefaultOptions()})
	require.NoError(t, err)
	assert.Equal(t, doctree.MethodOCR, res.Diagnostics.Method)

	entries := zipEntries(t, res.Data)
	assert.Equal(t, "# SCANNED CHAPTER\n\nrecognised words\n", entries["01-scanned-chapter.md"])
}

func TestConvert_OCRUnavailable(t *testing.T) {
	c := newTestConverter(&fakeText{pages: []string{""}}, nil)

	_, err := c.Convert(context.Background(), Request{SourceName: "scan.pdf", Data: fakePDF, Options: DefaultOptions()})
	require.Error(t, err)
	assert.True(t, apperr.IsDependency(err), "expected dependency error, got %v", err)
	assert.False(t, apperr.IsInput(err))
}

func TestConvert_DeckPackage(t *testing.T) {
	text := &fakeText{pages: []string{"Chapter 1: Intro\nplenty of embedded text on this page"}}
	c := newTestConverter(text, nil)

	opts := DefaultOptions()
	opts.Format = FormatAPKG
	opts.DeckName = "Pharma"
	res, err := c.Convert(context.Background(), Request{SourceName: "pharma.pdf", Data: fakePDF, Options: opts})
	require.NoError(t, err)

	assert.Equal(t, "pharma-chapters-20240506-070809.apkg", res.Filename)
	assert.Equal(t, "application/octet-stream", res.ContentType)
	entries := zipEntries(t, res.Data)
	assert.Contains(t, entries, export.CollectionName)
	assert.Equal(t, "{}", entries[export.MediaName])
}

func TestConvert_NormalisesFormat(t *testing.T) {
	text := &fakeText{pages: []string{"Chapter 1: Intro\nplenty of embedded text on this page"}}
	c := newTestConverter(text, nil)

	opts := DefaultOptions()
	opts.Format = " APKG "
	res, err := c.Convert(context.Background(), Request{SourceName: "pharma.pdf", Data: fakePDF, Options: opts})
	require.NoError(t, err)

	assert.Equal(t, "pharma-chapters-20240506-070809.apkg", res.Filename)
	assert.Equal(t, "application/octet-stream", res.ContentType)
	assert.Contains(t, zipEntries(t, res.Data), export.CollectionName)
}

func TestConvert_ValidationHappensBeforeExtraction(t *testing.T) {
	text := &fakeText{pages: []string{"text"}}
	c := newTestConverter(text, nil)

	opts := DefaultOptions()
	opts.AICleanup = true
	opts.Model = "gpt-test"

	_, err := c.Convert(context.Background(), Request{SourceName: "a.pdf", Data: fakePDF, Options: opts})
	require.Error(t, err)
	assert.True(t, apperr.IsInput(err))
	assert.Equal(t, "API key and model are required for AI cleanup.", err.Error())
	assert.Equal(t, 0, text.calls, "extraction must not run")
}

func TestConvert_RejectsNonPDF(t *testing.T) {
	c := newTestConverter(&fakeText{}, nil)

	_, err := c.Convert(context.Background(), Request{SourceName: "a.pdf", Data: []byte("PK\x03\x04"), Options: DefaultOptions()})
	assert.True(t, apperr.IsInput(err))

	_, err = c.Convert(context.Background(), Request{SourceName: "a.pdf", Options: DefaultOptions()})
	assert.True(t, apperr.IsInput(err))
}

func TestConvert_FlattenFailureIsInputError(t *testing.T) {
	c := newTestConverter(&fakeText{}, nil)
	c.flatten = func([]byte) ([]byte, error) { return nil, errors.New("xref table broken") }

	_, err := c.Convert(context.Background(), Request{SourceName: "a.pdf", Data: fakePDF, Options: DefaultOptions()})
	require.Error(t, err)
	assert.True(t, apperr.IsInput(err))
	assert.Contains(t, err.Error(), "invalid PDF")
}

func TestConvert_AICleanup(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		reply := strings.ToUpper(req.Messages[1].Content)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": reply}}},
		})
	}))
	defer srv.Close()

	text := &fakeText{pages: []string{"Chapter 1: Intro\nhello world, plenty of text here\nChapter 2: Next\nsecond chapter body text"}}
	c := newTestConverter(text, nil)

	opts := DefaultOptions()
	opts.AICleanup = true
	opts.APIKey = "sk-test"
	opts.Model = "gpt-test"
	opts.Endpoint = srv.URL

	res, err := c.Convert(context.Background(), Request{SourceName: "book.pdf", Data: fakePDF, Options: opts})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "one cleanup call per chapter")

	entries := zipEntries(t, res.Data)
	assert.Equal(t, "# Chapter 1: Intro\n\nHELLO WORLD, PLENTY OF TEXT HERE\n", entries["01-chapter-1-intro.md"])
	assert.Equal(t, 2, c.stats.Snapshot().Count)
}

func TestConvert_CleanupFailureAbortsRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestConverter(&fakeText{pages: []string{"plenty of embedded text for the threshold"}}, nil)
	opts := DefaultOptions()
	opts.AICleanup = true
	opts.APIKey = "k"
	opts.Model = "m"
	opts.Endpoint = srv.URL

	res, err := c.Convert(context.Background(), Request{SourceName: "a.pdf", Data: fakePDF, Options: opts})
	assert.Nil(t, res)
	var apiErr *cleanup.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.ErrorIs(t, err, ErrCleanup)
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	o := DefaultOptions()
	o.MinCharsPerPage = -1
	assert.True(t, apperr.IsInput(o.Validate()))

	o = DefaultOptions()
	o.Format = "pdf"
	assert.True(t, apperr.IsInput(o.Validate()))

	o = DefaultOptions()
	o.AICleanup, o.APIKey, o.Model, o.Endpoint = true, "k", "m", "not-a-url"
	assert.True(t, apperr.IsInput(o.Validate()))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatZip, f)

	f, err = ParseFormat(" APKG ")
	require.NoError(t, err)
	assert.Equal(t, FormatAPKG, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "notes-chapters-20240506-070809.zip", OutputName("dir/notes.pdf", FormatZip, clock))
	assert.Equal(t, "notes-chapters-20240506-070809.apkg", OutputName("notes.PDF", FormatAPKG, clock))
	assert.Equal(t, "document-chapters-20240506-070809.zip", OutputName("", FormatZip, clock))
}
