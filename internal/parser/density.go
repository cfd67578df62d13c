package parser

import "unicode"

// AvgCharsPerPage returns the integer mean of non-whitespace characters per page.
// An empty page list averages to 0.
func AvgCharsPerPage(pages []string) int {
	if len(pages) == 0 {
		return 0
	}
	total := 0
	for _, page := range pages {
		for _, r := range page {
			if !unicode.IsSpace(r) {
				total++
			}
		}
	}
	return total / len(pages)
}

// ShouldUseOCR reports whether embedded text is too sparse to trust.
// An average exactly at the threshold is enough.
func ShouldUseOCR(pages []string, minCharsPerPage int) bool {
	return AvgCharsPerPage(pages) < minCharsPerPage
}
