package reports

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var spacePattern = regexp.MustCompile(`\s+`)

// markup converts provider HTML into report markdown and report markdown into HTML.
type markup struct {
	strict    *bluemonday.Policy
	ugc       *bluemonday.Policy
	converter *md.Converter
	renderer  goldmark.Markdown
}

func newMarkup() *markup {
	return &markup{
		strict:    bluemonday.StrictPolicy(),
		ugc:       bluemonday.UGCPolicy(),
		converter: md.NewConverter("", true, nil),
		renderer: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithXHTML()),
		),
	}
}

// plainText strips every tag and collapses whitespace onto one line.
func (m *markup) plainText(s string) string {
	s = html.UnescapeString(m.strict.Sanitize(s))
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// htmlToMarkdown sanitizes s and converts it to markdown, falling back to
// plain text when the conversion fails or produces nothing.
func (m *markup) htmlToMarkdown(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	clean := m.ugc.Sanitize(s)
	converted, err := m.converter.ConvertString(clean)
	if err == nil && strings.TrimSpace(converted) != "" {
		return strings.TrimSpace(converted)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return m.plainText(clean)
	}
	return strings.TrimSpace(spacePattern.ReplaceAllString(doc.Text(), " "))
}

// RenderHTML converts a markdown report to HTML (GFM tables enabled).
func RenderHTML(markdown string) (string, error) {
	return newMarkup().toHTML(markdown)
}

func (m *markup) toHTML(markdown string) (string, error) {
	if markdown == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := m.renderer.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
