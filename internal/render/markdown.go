package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/conneroisu/gitguide/internal/slug"
)

// Markdown converts article bodies to HTML. Heading ids are drawn from the
// page's slug generator so they never collide with the fixed section ids.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates a converter with GitHub-flavored extensions. Raw
// HTML in the source is dropped.
func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// Convert renders src, assigning heading ids from ids.
func (m *Markdown) Convert(src string, ids *slug.Unique) (string, error) {
	if ids == nil {
		ids = &slug.Unique{}
	}

	var buf bytes.Buffer
	ctx := parser.NewContext(parser.WithIDs(headingIDs{ids}))
	if err := m.md.Convert([]byte(src), &buf, parser.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}

// headingIDs adapts slug.Unique to goldmark's parser.IDs.
type headingIDs struct {
	u *slug.Unique
}

func (h headingIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	return []byte(h.u.Next(string(value)))
}

func (h headingIDs) Put(value []byte) {
	h.u.Reserve(string(value))
}
