// Package highlight reconciles engine highlight fragments with stored
// field values into render-ready, HTML-safe snippets.
package highlight

import (
	"strings"

	"golang.org/x/net/html"
)

// Elements removed together with their content. br is dropped as a
// bare tag by the generic tag stripping.
var droppedElements = map[string]bool{
	"script": true,
	"style":  true,
	"iframe": true,
}

// Sanitize reduces markup to plain text: script, style and iframe
// elements are removed with their content, every other tag (including
// br) is dropped, and whitespace runs collapse to single spaces.
//
// The same sanitization is applied before indexing, so the text the
// engine matched, the text shown to users, and the text fragments are
// spliced back into agree byte-for-byte. Plain text passes through
// with only whitespace collapsing.
func Sanitize(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return collapseSpace(s)
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var parts []string
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpace(strings.Join(parts, " "))
		case html.StartTagToken:
			name, _ := z.TagName()
			if droppedElements[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if droppedElements[string(name)] && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				parts = append(parts, string(z.Text()))
			}
		}
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
