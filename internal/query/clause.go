package query

import (
	"strings"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain/search/request"
)

// Clause is one facet filter constraint. Each clause carries a tag so
// the engine can exclude that clause when counting its own facet:
// counts for facet X reflect every filter except X's own selection.
type Clause struct {
	tag    string
	key    string
	values []string
}

// Tag returns the clause identifier used for count self-exclusion.
func (c Clause) Tag() string { return c.tag }

// Key returns the facet key the clause constrains.
func (c Clause) Key() string { return c.key }

// Values returns the selected values, OR-combined.
func (c Clause) Values() []string { return c.values }

// Render returns the clause in engine filter-query grammar, e.g.
//
//	{!tag=res_format}res_format:("csv" OR "geojson")
//
// Clauses are sent as separate filter queries, so the engine conjoins
// them: OR within a facet, AND across facets.
func (c Clause) Render() string {
	quoted := make([]string, len(c.values))
	for i, v := range c.values {
		quoted[i] = QuotePhrase(v)
	}
	return "{!tag=" + c.tag + "}" + c.key + ":(" + strings.Join(quoted, " OR ") + ")"
}

// BuildClauses translates the request's facet selections into tagged
// filter clauses. Only keys present in known are honored; anything
// else in the request is ignored rather than forwarded to the engine.
// A selected value with no matching bucket still produces a clause, so
// a stale bookmarked filter surfaces as "currently produces nothing"
// instead of silently disappearing.
func BuildClauses(selections []request.Selection, known []string) []Clause {
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}

	byKey := make(map[string][]string)
	var order []string
	for _, sel := range selections {
		if !allowed[sel.Key] {
			continue
		}
		vals := byKey[sel.Key]
		if containsValue(vals, sel.Value) {
			continue
		}
		if vals == nil {
			order = append(order, sel.Key)
		}
		byKey[sel.Key] = append(vals, sel.Value)
	}

	clauses := make([]Clause, 0, len(order))
	for _, key := range order {
		clauses = append(clauses, Clause{
			tag:    clauseTag(key),
			key:    key,
			values: byKey[key],
		})
	}
	return clauses
}

// FacetFieldParam returns the facet.field parameter for key, excluding
// the key's own clause from its counts.
func FacetFieldParam(key string) string {
	return "{!ex=" + clauseTag(key) + "}" + key
}

// clauseTag derives a unique engine-safe tag from a facet key.
func clauseTag(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func containsValue(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
