// Package export assembles chapters into downloadable artifacts: a ZIP of
// markdown files or an Anki deck package.
package export

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const (
	maxFilenameLen  = 80
	idRange         = 10_000_000_000
	deckSeparator   = "::"
	untitledSegment = "Untitled"
)

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// SanitizeFilename reduces a chapter title to a lowercase, hyphenated name
// made of ASCII letters, digits, hyphens and underscores. An empty result
// becomes "chapter".
func SanitizeFilename(title string) string {
	kept := strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return r
		case r == '-' || r == '_' || unicode.IsSpace(r):
			return r
		}
		return -1
	}, title)

	clean := strings.Join(strings.Fields(strings.ToLower(kept)), "-")
	if len(clean) > maxFilenameLen {
		clean = clean[:maxFilenameLen]
	}
	if clean == "" {
		return "chapter"
	}
	return clean
}

// SanitizeDeckSegment makes name safe to use as one level of a deck path.
func SanitizeDeckSegment(name string) string {
	clean := strings.TrimSpace(lineBreaks.ReplaceAllString(name, " "))
	clean = strings.ReplaceAll(clean, deckSeparator, "-")
	if clean == "" {
		return untitledSegment
	}
	return clean
}

// DeckName returns the deck a chapter's note belongs to.
func DeckName(root, chapterTitle string, subdecks bool) string {
	root = SanitizeDeckSegment(root)
	if !subdecks {
		return root
	}
	return root + deckSeparator + SanitizeDeckSegment(chapterTitle)
}

// StableID maps name to a deterministic identifier in [0, 10^10).
func StableID(name string) int64 {
	return int64(xxhash.Sum64String(name) % idRange)
}
