package solr

import (
	"net/url"
	"sort"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain"
)

// validParams is the whitelist of parameter names the engine may be
// sent. Anything else fails the request before the round trip: unknown
// parameters are a caller bug or a smuggling attempt, never something
// to drop silently.
var validParams = map[string]bool{
	"q":          true,
	"fl":         true,
	"fq":         true,
	"rows":       true,
	"start":      true,
	"sort":       true,
	"wt":         true,
	"df":         true,
	"q.op":       true,
	"defType":    true,
	"tie":        true,
	"mm":         true,
	"qf":         true,
	"bf":         true,
	"boost":      true,
	"debugQuery": true,

	"facet":          true,
	"facet.field":    true,
	"facet.limit":    true,
	"facet.mincount": true,

	"hl":                   true,
	"hl.fl":                true,
	"hl.method":            true,
	"hl.bs.type":           true,
	"hl.fragsize":          true,
	"hl.fragsizeIsMinimum": true,
	"hl.requireFieldMatch": true,
	"hl.maxAnalyzedChars":  true,
	"hl.simple.pre":        true,
	"hl.simple.post":       true,
}

// ValidateParams checks every parameter name against the whitelist and
// returns a query validation error naming the rejects.
func ValidateParams(params url.Values) error {
	var invalid []string
	for name := range params {
		if !validParams[name] {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	sort.Strings(invalid)
	return domain.NewInvalidParams(invalid)
}
