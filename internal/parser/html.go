package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLParser converts HTML mail bodies to plain text
type HTMLParser struct {
	spaceRegex   *regexp.Regexp
	newlineRegex *regexp.Regexp
}

// NewHTMLParser creates a new HTML parser
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{
		spaceRegex:   regexp.MustCompile(`[^\S\n]+`),
		newlineRegex: regexp.MustCompile(`\n{3,}`),
	}
}

// Parse converts HTML to plain text: block-level elements become line
// breaks, all remaining markup is stripped, entities are decoded and runs
// of three or more newlines collapse to two.
func (p *HTMLParser) Parse(html string) (string, error) {
	if html == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, head, meta, link").Remove()

	doc.Find("br, p, div, h1, h2, h3, h4, h5, h6, li, tr").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
	})

	text := doc.Text()
	text = p.spaceRegex.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = p.newlineRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}
