package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyHTML(t *testing.T) {
	p := NewHTMLParser()
	text, err := p.Parse("")
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestParseBlockTagsBecomeNewlines(t *testing.T) {
	p := NewHTMLParser()
	text, err := p.Parse("<p>first</p><p>second</p>line<br>break")
	require.NoError(t, err)
	assert.Contains(t, text, "first\n")
	assert.Contains(t, text, "second")
	assert.Contains(t, text, "line\nbreak")
}

func TestParseStripsTagsAndScripts(t *testing.T) {
	p := NewHTMLParser()
	text, err := p.Parse(`<html><head><style>p{color:red}</style></head><body><script>alert(1)</script><p>visible <b>bold</b></p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "visible bold", text)
}

func TestParseDecodesEntities(t *testing.T) {
	p := NewHTMLParser()
	text, err := p.Parse("<p>a &amp; b &lt;c&gt; &quot;d&quot;</p>")
	require.NoError(t, err)
	assert.Equal(t, `a & b <c> "d"`, text)
}

func TestParseCollapsesNewlines(t *testing.T) {
	p := NewHTMLParser()
	text, err := p.Parse("<div>one</div><div></div><div></div><div></div><div>two</div>")
	require.NoError(t, err)
	assert.Equal(t, "one\n\ntwo", text)
}
