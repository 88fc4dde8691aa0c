package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain/search/boost"
)

func mustBoost(t *testing.T, field string, weight float64, kind boost.Kind) boost.Spec {
	t.Helper()
	s, err := boost.New(field, weight, kind)
	if err != nil {
		t.Fatalf("boost.New(%q): %v", field, err)
	}
	return s
}

func TestBuild_EmptyBecomesMatchAll(t *testing.T) {
	b := NewBuilder(nil)
	for _, raw := range []string{"", "   ", `""`, "''"} {
		expr, err := b.Build(raw)
		if err != nil {
			t.Fatalf("Build(%q): %v", raw, err)
		}
		if expr.Query() != MatchAll {
			t.Errorf("Build(%q) query = %q, want %q", raw, expr.Query(), MatchAll)
		}
		if expr.UseDismax() {
			t.Errorf("Build(%q) should not use dismax", raw)
		}
	}
}

func TestBuild_FreeText(t *testing.T) {
	b := NewBuilder(nil)
	expr, err := b.Build("flood risk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Query() != "flood risk" {
		t.Errorf("query = %q", expr.Query())
	}
	if !expr.UseDismax() {
		t.Fatal("free text should use dismax")
	}
	if !strings.Contains(expr.QueryFields(), "title^4") {
		t.Errorf("analyzed fields missing from %q", expr.QueryFields())
	}
	if strings.Contains(expr.QueryFields(), "title_string") {
		t.Errorf("free text should not use exact fields, got %q", expr.QueryFields())
	}
}

func TestBuild_QuotedPhraseUsesExactFields(t *testing.T) {
	b := NewBuilder(nil)
	expr, err := b.Build(`"air quality"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !expr.UseDismax() {
		t.Fatal("phrase query should use dismax")
	}
	if !strings.Contains(expr.QueryFields(), "title_string^4") {
		t.Errorf("phrase query should match unstemmed fields, got %q", expr.QueryFields())
	}
	if !strings.Contains(expr.QueryFields(), "text_exact") {
		t.Errorf("phrase query should match text_exact, got %q", expr.QueryFields())
	}
}

func TestBuild_FieldedQueryPassesThrough(t *testing.T) {
	b := NewBuilder(nil)
	expr, err := b.Build(`tags:transport AND title:(bus OR rail)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.UseDismax() {
		t.Error("well-formed fielded query should bypass dismax")
	}
	if expr.Query() != `tags:transport AND title:(bus OR rail)` {
		t.Errorf("query altered: %q", expr.Query())
	}
}

func TestBuild_MalformedFieldedQueryDegradesToPhrase(t *testing.T) {
	b := NewBuilder(nil)
	expr, err := b.Build(`tags:(transport`)
	if err != nil {
		t.Fatalf("degraded query must not error, got %v", err)
	}
	if !expr.UseDismax() {
		t.Fatal("degraded query should use dismax")
	}
	if expr.Query() != `"tags:(transport"` {
		t.Errorf("query = %q, want quoted literal", expr.Query())
	}
	if !strings.Contains(expr.QueryFields(), "text_exact") {
		t.Errorf("degraded query should use exact fields, got %q", expr.QueryFields())
	}
}

func TestBuild_UnbalancedQuoteDegrades(t *testing.T) {
	b := NewBuilder(nil)
	expr, err := b.Build(`flood "risk`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Query() != `"flood \"risk"` {
		t.Errorf("query = %q", expr.Query())
	}
}

func TestBuild_LocalParamsRejected(t *testing.T) {
	b := NewBuilder(nil)
	_, err := b.Build(`{!func}popularity`)
	if err == nil {
		t.Fatal("expected error for local-params input")
	}
	if !errors.Is(err, domain.ErrQueryValidation) {
		t.Errorf("error should wrap ErrQueryValidation, got %v", err)
	}
}

func TestBuild_AdditiveBoost(t *testing.T) {
	b := NewBuilder([]boost.Spec{mustBoost(t, "copy_data_quality", 0.1, boost.Additive)})
	expr, err := b.Build("flood risk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(expr.BoostFunctions()) != 1 {
		t.Fatalf("expected 1 boost function, got %d", len(expr.BoostFunctions()))
	}
	if got, want := expr.BoostFunctions()[0], "mul(def(copy_data_quality,0),0.1)"; got != want {
		t.Errorf("boost function = %q, want %q", got, want)
	}
	if len(expr.BoostProducts()) != 0 {
		t.Errorf("additive boost must not produce boost products")
	}
}

func TestBuild_MultiplicativeBoost(t *testing.T) {
	b := NewBuilder([]boost.Spec{mustBoost(t, "copy_dataset_boost", 1, boost.Multiplicative)})
	expr, err := b.Build("flood risk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(expr.BoostProducts()) != 1 {
		t.Fatalf("expected 1 boost product, got %d", len(expr.BoostProducts()))
	}
	if got, want := expr.BoostProducts()[0], "sum(1,mul(def(copy_dataset_boost,0),1))"; got != want {
		t.Errorf("boost product = %q, want %q", got, want)
	}
}

func TestBuild_BoostsApplyToMatchAll(t *testing.T) {
	b := NewBuilder([]boost.Spec{mustBoost(t, "copy_data_quality", 0.5, boost.Additive)})
	expr, err := b.Build("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Query() != MatchAll {
		t.Fatalf("query = %q", expr.Query())
	}
	if len(expr.BoostFunctions()) != 1 {
		t.Error("boosts should apply to the match-all query too")
	}
}

func TestQuotePhrase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`plain`, `"plain"`},
		{`with "quotes"`, `"with \"quotes\""`},
		{`back\slash`, `"back\\slash"`},
	}
	for _, tt := range tests {
		if got := QuotePhrase(tt.in); got != tt.want {
			t.Errorf("QuotePhrase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeLiteral(t *testing.T) {
	got := EscapeLiteral(`a+b:c"d`)
	want := `a\+b\:c\"d`
	if got != want {
		t.Errorf("EscapeLiteral = %q, want %q", got, want)
	}
}
