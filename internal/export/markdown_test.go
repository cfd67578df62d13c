package export

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anki-boi/PDF-to-MD/internal/doctree"
)

func readZip(t *testing.T, data []byte) ([]string, map[string]string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	contents := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		names = append(names, f.Name)
		contents[f.Name] = string(b)
	}
	return names, contents
}

func sampleArchive() MarkdownArchive {
	return MarkdownArchive{
		SourceName:  "notes/Pharma Book.pdf",
		Flattened:   []byte("%PDF-1.7 flattened"),
		Diagnostics: doctree.Diagnostics{Method: doctree.MethodEmbedded, AvgCharsPerPage: 412},
		Chapters: []doctree.Chunk{
			{Title: "Chapter 1: Intro", Text: "hello world"},
			{Title: "Chapter 2: Next", Text: "more text"},
		},
	}
}

func TestWriteMarkdownZip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdownZip(&buf, sampleArchive()))

	names, contents := readZip(t, buf.Bytes())
	assert.Equal(t, []string{
		"Pharma Book_flattened.pdf",
		"extraction-report.txt",
		"01-chapter-1-intro.md",
		"02-chapter-2-next.md",
	}, names)

	assert.Equal(t, "%PDF-1.7 flattened", contents["Pharma Book_flattened.pdf"])
	assert.Equal(t, "method=embedded-text\navg_chars_per_page=412\n", contents["extraction-report.txt"])
	assert.Equal(t, "# Chapter 1: Intro\n\nhello world\n", contents["01-chapter-1-intro.md"])
	assert.Equal(t, "# Chapter 2: Next\n\nmore text\n", contents["02-chapter-2-next.md"])
}

func TestWriteMarkdownZip_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, WriteMarkdownZip(&a, sampleArchive()))
	require.NoError(t, WriteMarkdownZip(&b, sampleArchive()))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestWriteMarkdownZip_EmptyChapterTitle(t *testing.T) {
	arch := sampleArchive()
	arch.Chapters = []doctree.Chunk{{Title: "???", Text: ""}}

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdownZip(&buf, arch))

	_, contents := readZip(t, buf.Bytes())
	assert.Equal(t, "# ???\n\n\n", contents["01-chapter.md"])
}

func TestChapterFilename(t *testing.T) {
	assert.Equal(t, "01-introduction.md", ChapterFilename(1, "Introduction"))
	assert.Equal(t, "12-chapter-12.md", ChapterFilename(12, "Chapter 12"))
	assert.Equal(t, "100-x.md", ChapterFilename(100, "X"))
}
