package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	p := NewParser()

	doc, err := p.Render([]byte("---\nsubject: Hello\ncount: 3\n---\nSome **bold** text\n"))
	require.NoError(t, err)

	assert.Contains(t, string(doc.HTML), "<strong>bold</strong>")
	assert.NotContains(t, string(doc.HTML), "subject")
	assert.Equal(t, "Hello", doc.String("subject"))
	assert.Equal(t, "3", doc.String("count"))
	assert.Equal(t, "", doc.String("missing"))
}

func TestRenderWithoutFrontMatter(t *testing.T) {
	doc, err := NewParser().Render([]byte("plain"))
	require.NoError(t, err)

	assert.Contains(t, string(doc.HTML), "<p>plain</p>")
	assert.Empty(t, doc.Meta)
}
