// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts post source into the HTML stored next to it.
//
// Trust boundary: the rendered HTML is injected into pages verbatim. Raw
// HTML in the source is omitted by the renderer, so script tags never reach
// the output, but links and images are not filtered. The only author is the
// site's single admin; no further sanitization is applied.
package markdown

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,         // tables, strikethrough, autolinks, task lists
		extension.Typographer, // smart quotes and dashes
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
			highlighting.WithFormatOptions(),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

var plainText = bluemonday.StrictPolicy()

// ToHTML converts Markdown source into HTML. It runs the CommonMark pass and
// the GFM extension pass in one conversion.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Excerpt strips every tag from rendered HTML and returns at most n runes of
// whitespace-collapsed text, for meta descriptions and card previews.
func Excerpt(renderedHTML string, n int) string {
	text := html.UnescapeString(plainText.Sanitize(renderedHTML))
	text = strings.Join(strings.Fields(text), " ")
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n]))
}
