// Package render turns model output into markup that is safe to inject into a page.
//
// Model text is untrusted: raw HTML is dropped by the markdown converter and the
// result passes through an allow-list sanitizer before it leaves the package.
package render

import (
	"bytes"
	"html"
	"html/template"
	"log"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	converter = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)
	policy = newPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Markdown converts markdown to sanitized HTML. Line breaks are hard breaks.
func Markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(text), &buf); err != nil {
		log.Printf("[render] markdown conversion failed, falling back to plain text: %v", err)
		return Plain(text)
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// Plain escapes text and keeps its line breaks.
func Plain(text string) template.HTML {
	escaped := html.EscapeString(text)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>\n"))
}
