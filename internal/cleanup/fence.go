package cleanup

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// UnwrapMarkdownFence returns the body of reply when the whole reply is a
// single fenced block tagged markdown or md. Untagged and other fences are
// code and are returned as is, like any other reply.
func UnwrapMarkdownFence(reply string) string {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasSuffix(trimmed, "```") && !strings.HasSuffix(trimmed, "~~~") {
		return reply
	}

	src := []byte(trimmed)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	first := doc.FirstChild()
	if first == nil || first != doc.LastChild() || first.Kind() != ast.KindFencedCodeBlock {
		return reply
	}

	block := first.(*ast.FencedCodeBlock)
	switch strings.ToLower(string(block.Language(src))) {
	case "markdown", "md":
	default:
		return reply
	}

	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimSpace(buf.String())
}
