package highlight

import (
	"html"
	"strings"
)

// Sentinel markers the engine wraps matched terms in. They must match
// the markers requested from the engine exactly: the splitting below
// relies on literal string matches.
const (
	MarkerBegin = "[["
	MarkerEnd   = "]]"
)

// Emphasis markup emitted for matched segments.
const (
	emOpen  = "<em>"
	emClose = "</em>"
)

// Ellipsis is appended when a snippet was cut short.
const Ellipsis = "..."

// fragmentSeparator joins multiple engine fragments into one snippet.
const fragmentSeparator = " ... "

// span is one inter-marker segment of a fragment.
type span struct {
	text    string
	matched bool
}

// Reconcile merges engine highlight fragments with a stored field
// value into an HTML-escaped snippet of at most maxLen visible
// characters (emphasis markup excluded from the budget).
//
// With no fragments the stored value is escaped and truncated with no
// emphasis. With fragments, each fragment is split on the sentinel
// markers and every inter-marker segment is truncated independently,
// then matched segments are re-wrapped in emphasis markup. Markers
// therefore never straddle the truncation boundary: the output always
// carries as many closing emphasis tags as opening ones, even when the
// engine returned an unpaired marker.
func Reconcile(stored string, fragments []string, maxLen int) string {
	if len(fragments) == 0 {
		// Stored text is not interpreted for markers: no emphasis on
		// the fallback path.
		return render([]span{{text: stored}}, maxLen, true)
	}
	return render(splitMarkers(strings.Join(fragments, fragmentSeparator)), maxLen, true)
}

// ReconcileInline substitutes emphasis markup for markers without any
// length bound. Used for short fields (title, organization titles)
// where truncation never applies.
func ReconcileInline(stored string, fragments []string) string {
	if len(fragments) == 0 {
		return render([]span{{text: stored}}, 0, false)
	}
	// A single fragment covers the whole short field.
	return render(splitMarkers(fragments[0]), 0, false)
}

// splitMarkers cuts s into alternating plain and matched spans.
// Boundary repair rules: an opening marker with no close marks to the
// end of the fragment; a stray close marker outside a match is dropped
// as a bare boundary.
func splitMarkers(s string) []span {
	var spans []span
	matched := false
	for {
		i := strings.Index(s, MarkerBegin)
		j := strings.Index(s, MarkerEnd)
		if i < 0 && j < 0 {
			if s != "" {
				spans = append(spans, span{text: s, matched: matched})
			}
			return spans
		}
		cut := j
		next := false
		if j < 0 || (i >= 0 && i < j) {
			cut = i
			next = true
		}
		if cut > 0 {
			spans = append(spans, span{text: s[:cut], matched: matched})
		}
		matched = next
		s = s[cut+len(MarkerBegin):]
	}
}

// render emits spans as escaped HTML. When bounded, visible characters
// are budgeted across spans; a cut snippet gets a trailing ellipsis
// inside the budget. Entities in the input are normalized before
// escaping, which keeps the unbounded and bounded paths idempotent.
func render(spans []span, maxLen int, bounded bool) string {
	texts := make([]string, len(spans))
	visible := 0
	for i, sp := range spans {
		texts[i] = html.UnescapeString(sp.text)
		visible += len([]rune(texts[i]))
	}

	budget := visible
	ellipsis := ""
	if bounded && visible > maxLen {
		budget = maxLen
		if maxLen > len(Ellipsis) {
			budget = maxLen - len(Ellipsis)
			ellipsis = Ellipsis
		}
	}

	var b strings.Builder
	for i, sp := range spans {
		if budget == 0 {
			break
		}
		text := texts[i]
		if r := []rune(text); len(r) > budget {
			text = string(r[:budget])
			budget = 0
		} else {
			budget -= len(r)
		}
		if text == "" {
			continue
		}
		if sp.matched {
			b.WriteString(emOpen)
			b.WriteString(html.EscapeString(text))
			b.WriteString(emClose)
		} else {
			b.WriteString(html.EscapeString(text))
		}
	}
	b.WriteString(ellipsis)
	return b.String()
}
