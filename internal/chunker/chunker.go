// Package chunker splits per-page document text into titled chapters by
// matching heading lines.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/anki-boi/PDF-to-MD/internal/doctree"
)

// headingRule recognises one style of chapter heading and returns its text.
type headingRule struct {
	name  string
	match func(line string) (string, bool)
}

func regexRule(name, pattern string) headingRule {
	re := regexp.MustCompile(pattern)
	return headingRule{
		name: name,
		match: func(line string) (string, bool) {
			m := re.FindStringSubmatch(line)
			if m == nil {
				return "", false
			}
			return strings.TrimSpace(m[1]), true
		},
	}
}

// space and digit match Unicode whitespace and decimal digits. RE2's \s and
// \d are ASCII only, so "Chapter\u00a01" would otherwise be missed.
const (
	space = `\t\n\v\f\r \x1c-\x1f\x85\p{Z}`
	digit = `\p{Nd}`
)

// headingRules are tried in order; the first match wins.
var headingRules = []headingRule{
	regexRule("chapter", `(?i)^[`+space+`]*(chapter[`+space+`]+`+digit+`+[:\-.]?.*)$`),
	regexRule("numbered", `^[`+space+`]*(`+digit+`+\.[`+space+`]+[A-Z].*)$`),
	regexRule("all-caps", `^[`+space+`]*([A-Z][A-Z`+space+`]{6,})$`),
}

// FindHeading returns the heading text if line looks like a chapter heading.
func FindHeading(line string) (string, bool) {
	for _, rule := range headingRules {
		if title, ok := rule.match(line); ok && title != "" {
			return title, true
		}
	}
	return "", false
}

// SplitChapters groups page lines into chapters. Text before the first
// heading belongs to a chapter titled doctree.DefaultTitle unless the very
// first line of the document is itself a heading. Each page ends with a
// blank line, so a heading on a later page always closes the open chapter.
func SplitChapters(pages []string) []doctree.Chunk {
	var chunks []doctree.Chunk
	title := doctree.DefaultTitle
	var lines []string

	for _, page := range pages {
		for _, line := range splitLines(page) {
			heading, isHeading := FindHeading(line)
			switch {
			case isHeading && len(lines) > 0:
				chunks = append(chunks, doctree.Chunk{Title: title, Text: joinLines(lines)})
				title = heading
				lines = nil
			case isHeading && len(chunks) == 0 && len(lines) == 0:
				title = heading
			default:
				lines = append(lines, line)
			}
		}
		lines = append(lines, "")
	}

	if len(lines) > 0 {
		chunks = append(chunks, doctree.Chunk{Title: title, Text: joinLines(lines)})
	}
	if len(chunks) == 0 {
		return []doctree.Chunk{{Title: doctree.FallbackTitle}}
	}
	return chunks
}

func joinLines(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// splitLines breaks text on every line boundary a text layer or OCR engine
// may emit, including lone carriage returns and form feeds. A trailing
// boundary does not produce an extra empty line.
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isLineBoundary(r) {
			i += size
			continue
		}
		lines = append(lines, text[start:i])
		i += size
		if r == '\r' && i < len(text) && text[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}
