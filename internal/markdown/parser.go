package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

// Document is a rendered Markdown source and its YAML front matter.
type Document struct {
	HTML []byte
	Meta map[string]any
}

// String returns a front matter value as a string, or "" if it is missing.
func (d *Document) String(key string) string {
	v, ok := d.Meta[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Parser{
		md: md,
	}
}

// Render converts source to HTML. Front matter is optional; a block that is
// not valid YAML fails the render.
func (p *Parser) Render(source []byte) (*Document, error) {
	context := parser.NewContext()
	var buf bytes.Buffer

	err := p.md.Convert(source, &buf, parser.WithContext(context))
	if err != nil {
		return nil, err
	}

	doc := &Document{HTML: buf.Bytes(), Meta: map[string]any{}}

	data := frontmatter.Get(context)
	if data != nil {
		err = data.Decode(&doc.Meta)
		if err != nil {
			return nil, fmt.Errorf("invalid front matter: %w", err)
		}
	}

	return doc, nil
}
