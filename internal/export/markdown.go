package export

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/anki-boi/PDF-to-MD/internal/doctree"
)

// ReportName is the archive entry holding the extraction diagnostics.
const ReportName = "extraction-report.txt"

// archiveEpoch is stamped on every entry so identical input yields an
// identical archive.
var archiveEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// MarkdownArchive is everything that goes into the markdown ZIP.
type MarkdownArchive struct {
	SourceName  string
	Flattened   []byte
	Diagnostics doctree.Diagnostics
	Chapters    []doctree.Chunk
}

// FlattenedName returns the archive name of the flattened PDF.
func FlattenedName(sourceName string) string {
	return Stem(sourceName) + "_flattened.pdf"
}

// ChapterFilename returns the 1-based, zero-padded markdown entry name.
func ChapterFilename(index int, title string) string {
	return fmt.Sprintf("%02d-%s.md", index, SanitizeFilename(title))
}

// ChapterMarkdown renders one chapter file. The heading keeps the
// original title.
func ChapterMarkdown(ch doctree.Chunk) string {
	return "# " + ch.Title + "\n\n" + ch.Text + "\n"
}

// Stem returns the base name of sourceName without its extension.
func Stem(sourceName string) string {
	base := path.Base(strings.ReplaceAll(sourceName, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	if stem := strings.TrimSuffix(base, path.Ext(base)); stem != "" {
		return stem
	}
	return base
}

// WriteMarkdownZip writes the flattened PDF, the extraction report and one
// markdown file per chapter, in chapter order.
func WriteMarkdownZip(w io.Writer, a MarkdownArchive) error {
	zw := zip.NewWriter(w)

	if err := writeEntry(zw, FlattenedName(a.SourceName), a.Flattened); err != nil {
		return err
	}
	if err := writeEntry(zw, ReportName, []byte(a.Diagnostics.Report())); err != nil {
		return err
	}
	for i, ch := range a.Chapters {
		if err := writeEntry(zw, ChapterFilename(i+1, ch.Title), []byte(ChapterMarkdown(ch))); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: archiveEpoch,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
