// Package query builds engine query expressions and facet filter
// clauses. Expressions are produced only here so that escaping of the
// engine grammar stays centralized.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain/search/boost"
)

// MatchAll is the engine's match-everything query.
const MatchAll = "*:*"

// Field lists matched by free-text queries. Quoted phrases go against
// the unstemmed variants so synonym and stemming expansion cannot
// produce false positives; plain terms use the analyzed fields.
const (
	analyzedQueryFields = "name^4 title^4 tags^2 groups^2 text"
	exactQueryFields    = "name^4 title_string^4 tags^2 groups^2 text_exact"
)

// Dismax tuning. The minimum-match rule requires all terms of short
// queries and 80% of terms past five.
const (
	dismaxTie = "0.1"
	dismaxMM  = "2<-1 5<80%"
)

// Expression is the augmented query handed to the executor.
type Expression struct {
	query       string
	dismax      bool
	queryFields string
	boostFuncs  []string
	boostProds  []string
}

// Query returns the engine query string.
func (e Expression) Query() string { return e.query }

// UseDismax reports whether the query should run through the dismax
// parser with QueryFields, or as raw engine syntax.
func (e Expression) UseDismax() bool { return e.dismax }

// QueryFields returns the weighted field list for dismax matching.
func (e Expression) QueryFields() string { return e.queryFields }

// Tie returns the dismax tie-breaker.
func (e Expression) Tie() string { return dismaxTie }

// MinimumMatch returns the dismax minimum-should-match rule.
func (e Expression) MinimumMatch() string { return dismaxMM }

// BoostFunctions returns the additive function-boost terms.
func (e Expression) BoostFunctions() []string { return e.boostFuncs }

// BoostProducts returns the multiplicative boost terms.
func (e Expression) BoostProducts() []string { return e.boostProds }

// Builder constructs query expressions from raw user input plus the
// configured ranking-signal boosts.
type Builder struct {
	boosts []boost.Spec
}

// NewBuilder creates a query builder for a fixed boost configuration.
func NewBuilder(boosts []boost.Spec) *Builder {
	return &Builder{boosts: boosts}
}

// Build rewrites a raw user query into the extended expression.
//
// Empty input becomes the match-all query. Input carrying field syntax
// is passed through as engine grammar when it is well formed, and
// degrades to an escaped literal phrase when it is not; a degraded
// query can return nothing, but never fails the request. Local-params
// syntax is rejected outright.
func (b *Builder) Build(raw string) (Expression, error) {
	q := strings.TrimSpace(raw)
	if q == "" || q == `""` || q == "''" {
		return b.withBoosts(Expression{query: MatchAll}), nil
	}
	if strings.HasPrefix(q, "{!") {
		return Expression{}, fmt.Errorf("%w: local parameters are not supported", domain.ErrQueryValidation)
	}

	if hasFieldSyntax(q) {
		if wellFormed(q) {
			return b.withBoosts(Expression{query: q}), nil
		}
		// Unparseable as engine grammar: match it literally instead.
		return b.withBoosts(Expression{
			query:       QuotePhrase(q),
			dismax:      true,
			queryFields: exactQueryFields,
		}), nil
	}

	fields := analyzedQueryFields
	if hasQuotedPhrase(q) {
		fields = exactQueryFields
	}
	if !wellFormed(q) {
		q = QuotePhrase(q)
		fields = exactQueryFields
	}
	return b.withBoosts(Expression{
		query:       q,
		dismax:      true,
		queryFields: fields,
	}), nil
}

// withBoosts appends each configured boost as a scoring function.
// Every boost evaluates to weight * stored field value; the def()
// wrapper makes an absent field contribute zero rather than erroring.
func (b *Builder) withBoosts(e Expression) Expression {
	for _, s := range b.boosts {
		term := fmt.Sprintf("mul(def(%s,0),%s)", s.Field(), formatWeight(s.Weight()))
		switch s.Kind() {
		case boost.Multiplicative:
			// Neutral factor of 1 when the field is absent.
			e.boostProds = append(e.boostProds, fmt.Sprintf("sum(1,%s)", term))
		default:
			e.boostFuncs = append(e.boostFuncs, term)
		}
	}
	return e
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}

// QuotePhrase returns s as an exact-phrase engine literal.
func QuotePhrase(s string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
}

// escapeLiteral backslash-escapes engine grammar metacharacters in a
// bare term.
var escapeLiteral = strings.NewReplacer(
	`\`, `\\`,
	`+`, `\+`,
	`-`, `\-`,
	`&`, `\&`,
	`|`, `\|`,
	`!`, `\!`,
	`(`, `\(`,
	`)`, `\)`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
	`^`, `\^`,
	`"`, `\"`,
	`~`, `\~`,
	`*`, `\*`,
	`?`, `\?`,
	`:`, `\:`,
	`/`, `\/`,
)

// EscapeLiteral escapes a value for embedding into engine query
// grammar outside of quotes.
func EscapeLiteral(s string) string {
	return escapeLiteral.Replace(s)
}

// hasFieldSyntax reports whether q contains a field:value separator
// outside of double quotes.
func hasFieldSyntax(q string) bool {
	inQuotes := false
	for i := 0; i < len(q); i++ {
		switch q[i] {
		case '"':
			if i == 0 || q[i-1] != '\\' {
				inQuotes = !inQuotes
			}
		case ':':
			if !inQuotes {
				return true
			}
		}
	}
	return false
}

// hasQuotedPhrase reports whether q contains a non-empty double-quoted
// phrase.
func hasQuotedPhrase(q string) bool {
	open := -1
	for i := 0; i < len(q); i++ {
		if q[i] != '"' || (i > 0 && q[i-1] == '\\') {
			continue
		}
		if open < 0 {
			open = i
			continue
		}
		if i > open+1 {
			return true
		}
		open = -1
	}
	return false
}

// wellFormed reports whether quotes and parentheses in q balance, the
// cheap test for "the engine parser will accept this".
func wellFormed(q string) bool {
	inQuotes := false
	depth := 0
	for i := 0; i < len(q); i++ {
		switch q[i] {
		case '"':
			if i == 0 || q[i-1] != '\\' {
				inQuotes = !inQuotes
			}
		case '(':
			if !inQuotes {
				depth++
			}
		case ')':
			if !inQuotes {
				depth--
				if depth < 0 {
					return false
				}
			}
		}
	}
	return !inQuotes && depth == 0
}
