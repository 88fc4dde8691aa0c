package highlight

import (
	"strings"
	"testing"
)

func TestReconcile_WrapsMarkedTerms(t *testing.T) {
	got := Reconcile("", []string{"flood [[risk]] management"}, 100)
	want := "flood <em>risk</em> management"
	if got != want {
		t.Errorf("Reconcile = %q, want %q", got, want)
	}
}

func TestReconcile_TruncatesInsideBudget(t *testing.T) {
	frag := "flood [[risk]] management strategies for the Thames estuary region"
	got := Reconcile("", []string{frag}, 40)
	want := "flood <em>risk</em> management strategies for ..."
	if got != want {
		t.Errorf("Reconcile = %q, want %q", got, want)
	}
	if visibleLen(got) != 40 {
		t.Errorf("visible length = %d, want 40", visibleLen(got))
	}
}

func TestReconcile_JoinsFragments(t *testing.T) {
	got := Reconcile("", []string{"[[flood]] plains", "upper [[flood]] line"}, 200)
	want := "<em>flood</em> plains ... upper <em>flood</em> line"
	if got != want {
		t.Errorf("Reconcile = %q, want %q", got, want)
	}
}

func TestReconcile_NoFragmentsFallsBackToStored(t *testing.T) {
	got := Reconcile("A dataset about flooding in London boroughs", nil, 20)
	want := "A dataset about f..."
	if got != want {
		t.Errorf("Reconcile = %q, want %q", got, want)
	}
}

func TestReconcile_StoredMarkersNotInterpreted(t *testing.T) {
	// A stored value that happens to contain the sentinel characters
	// must come through literally, never as emphasis.
	got := Reconcile("matrix [[0]] notation", nil, 100)
	want := "matrix [[0]] notation"
	if got != want {
		t.Errorf("Reconcile = %q, want %q", got, want)
	}
}

func TestReconcile_EscapesHTML(t *testing.T) {
	got := Reconcile("", []string{"5 < 6 [[risk]]"}, 100)
	want := "5 &lt; 6 <em>risk</em>"
	if got != want {
		t.Errorf("Reconcile = %q, want %q", got, want)
	}
}

func TestReconcile_NormalizesEntities(t *testing.T) {
	// Already-escaped stored text must not be escaped twice.
	got := Reconcile("Tom &amp; Jerry", nil, 100)
	want := "Tom &amp; Jerry"
	if got != want {
		t.Errorf("Reconcile = %q, want %q", got, want)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	stored := "A very long dataset description that will certainly be truncated somewhere in the middle"
	first := Reconcile(stored, nil, 40)
	second := Reconcile(first, nil, 40)
	if first != second {
		t.Errorf("second pass changed the snippet:\n first = %q\nsecond = %q", first, second)
	}
}

func TestReconcile_MarkerBalance(t *testing.T) {
	tests := []struct {
		name string
		frag string
	}{
		{"paired", "flood [[risk]] management"},
		{"unpaired open", "flood [[risk management"},
		{"stray close", "flood risk]] management"},
		{"marker at cut point", "flood plain [[management]] zones"},
		{"adjacent markers", "[[a]][[b]] c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, maxLen := range []int{5, 10, 14, 20, 200} {
				got := Reconcile("", []string{tt.frag}, maxLen)
				opens := strings.Count(got, "<em>")
				closes := strings.Count(got, "</em>")
				if opens != closes {
					t.Errorf("maxLen=%d: %d opens vs %d closes in %q", maxLen, opens, closes, got)
				}
			}
		})
	}
}

func TestReconcile_UnpairedOpenMarksToEnd(t *testing.T) {
	got := Reconcile("", []string{"flood [[risk management"}, 100)
	want := "flood <em>risk management</em>"
	if got != want {
		t.Errorf("Reconcile = %q, want %q", got, want)
	}
}

func TestReconcile_StrayCloseDropped(t *testing.T) {
	got := Reconcile("", []string{"flood risk]] management"}, 100)
	want := "flood risk management"
	if got != want {
		t.Errorf("Reconcile = %q, want %q", got, want)
	}
}

func TestReconcileInline(t *testing.T) {
	got := ReconcileInline("Air Quality", []string{"[[Air]] Quality"})
	want := "<em>Air</em> Quality"
	if got != want {
		t.Errorf("ReconcileInline = %q, want %q", got, want)
	}
}

func TestReconcileInline_NoFragments(t *testing.T) {
	got := ReconcileInline("Air Quality", nil)
	if got != "Air Quality" {
		t.Errorf("ReconcileInline = %q", got)
	}
}

// visibleLen counts characters as a reader sees them: emphasis markup
// excluded, entities counted once.
func visibleLen(s string) int {
	s = strings.ReplaceAll(s, "<em>", "")
	s = strings.ReplaceAll(s, "</em>", "")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&#34;", `"`)
	return len([]rune(s))
}
