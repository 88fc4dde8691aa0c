package solr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain/search/request"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/metrics"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/query"
)

// HighlightParams configures engine-side highlighting.
type HighlightParams struct {
	// Fields highlighting is requested for. A fragment must come from
	// a field that actually matched.
	Fields []string
	// FragSize is the target fragment length in characters.
	FragSize int
	// MaxAnalyzedChars bounds how much of a long-text field the engine
	// scans for matches. Generous so long descriptions are not
	// silently skipped.
	MaxAnalyzedChars int
}

// Executor translates an augmented query into a validated engine
// request and runs it.
type Executor struct {
	client       *Client
	siteID       string
	resultFields []string
	facetLimit   int
	hl           HighlightParams
}

// NewExecutor creates an executor. siteID scopes every query to this
// deployment's records.
func NewExecutor(client *Client, siteID string, resultFields []string, facetLimit int, hl HighlightParams) *Executor {
	if hl.FragSize <= 0 {
		hl.FragSize = 200
	}
	if hl.MaxAnalyzedChars <= 0 {
		hl.MaxAnalyzedChars = 51200
	}
	if facetLimit <= 0 {
		facetLimit = 50
	}
	return &Executor{
		client:       client,
		siteID:       siteID,
		resultFields: resultFields,
		facetLimit:   facetLimit,
		hl:           hl,
	}
}

// Input is one engine request: the augmented query plus its filter
// clauses, scope, paging, and visibility labels.
type Input struct {
	Expr         query.Expression
	Clauses      []query.Clause
	ExtraFilters []string
	RawFilter    string
	FacetFields  []string
	MultiSelect  bool
	Start        int
	Rows         int
	Sort         string
	Scope        request.Scope
	// Labels restricts visibility to records carrying at least one of
	// them. nil means a trusted context with full visibility.
	Labels []string
	Debug  bool
}

// Execute validates, fills defaults, and runs the query. One extra row
// beyond the requested page size is fetched and trimmed again: the
// engine may return the last row of a page out of order.
func (e *Executor) Execute(ctx context.Context, in Input) (*Raw, error) {
	params := e.buildParams(in)
	if err := ValidateParams(params); err != nil {
		return nil, err
	}

	raw, err := e.client.Select(ctx, params)
	metrics.ObserveEngineRequest(err)
	if err != nil {
		return nil, fmt.Errorf("engine select: %w", err)
	}

	if in.Rows >= 0 && len(raw.Docs) > in.Rows {
		raw.Docs = raw.Docs[:in.Rows]
	}
	return raw, nil
}

func (e *Executor) buildParams(in Input) url.Values {
	params := url.Values{}
	params.Set("q", in.Expr.Query())
	params.Set("df", "text")
	params.Set("q.op", "AND")
	params.Set("wt", "json")
	params.Set("fl", strings.Join(e.resultFields, " "))

	if in.Expr.UseDismax() {
		params.Set("defType", "edismax")
		params.Set("qf", in.Expr.QueryFields())
		params.Set("tie", in.Expr.Tie())
		params.Set("mm", in.Expr.MinimumMatch())
	}
	for _, bf := range in.Expr.BoostFunctions() {
		params.Add("bf", bf)
	}
	for _, b := range in.Expr.BoostProducts() {
		params.Add("boost", b)
	}

	for _, fq := range e.filterQueries(in) {
		params.Add("fq", fq)
	}

	params.Set("start", strconv.Itoa(in.Start))
	rows := in.Rows
	if rows > 0 {
		rows++
	}
	params.Set("rows", strconv.Itoa(rows))

	if in.Sort != "" {
		params.Set("sort", in.Sort)
	}

	if len(in.FacetFields) > 0 {
		params.Set("facet", "true")
		params.Set("facet.limit", strconv.Itoa(e.facetLimit))
		params.Set("facet.mincount", "1")
		for _, key := range in.FacetFields {
			if in.MultiSelect {
				params.Add("facet.field", query.FacetFieldParam(key))
			} else {
				params.Add("facet.field", key)
			}
		}
	}

	if len(e.hl.Fields) > 0 {
		params.Set("hl", "true")
		params.Set("hl.fl", strings.Join(e.hl.Fields, ","))
		params.Set("hl.method", "unified")
		params.Set("hl.bs.type", "SENTENCE")
		params.Set("hl.requireFieldMatch", "true")
		params.Set("hl.fragsize", strconv.Itoa(e.hl.FragSize))
		params.Set("hl.fragsizeIsMinimum", "false")
		params.Set("hl.maxAnalyzedChars", strconv.Itoa(e.hl.MaxAnalyzedChars))
		params.Set("hl.simple.pre", "[[")
		params.Set("hl.simple.post", "]]")
	}

	if in.Debug {
		params.Set("debugQuery", "true")
	}
	return params
}

// filterQueries assembles the filter-query list: caller filters first,
// then the site scope, visibility, and state defaults.
func (e *Executor) filterQueries(in Input) []string {
	var fq []string
	if in.RawFilter != "" {
		fq = append(fq, in.RawFilter)
	}
	fq = append(fq, in.ExtraFilters...)
	for _, c := range in.Clauses {
		fq = append(fq, c.Render())
	}

	fq = append(fq, "+site_id:"+query.QuotePhrase(e.siteID))

	if !in.Scope.IncludePrivate {
		fq = append(fq, "+capacity:public")
	}

	if in.Labels != nil {
		quoted := make([]string, 0, len(in.Labels))
		for _, l := range in.Labels {
			quoted = append(quoted, query.QuotePhrase(l))
		}
		fq = append(fq, "+permission_labels:("+strings.Join(quoted, " OR ")+")")
	}

	if !constrainsState(fq) {
		states := []string{"active"}
		if in.Scope.IncludeDrafts {
			states = append(states, "draft")
		}
		if in.Scope.IncludeDeleted {
			states = append(states, "deleted")
		}
		fq = append(fq, "+state:("+strings.Join(states, " OR ")+")")
	}
	return fq
}

// constrainsState reports whether the caller already filters on record
// state; the default state filter must not override an explicit one.
func constrainsState(fq []string) bool {
	for _, f := range fq {
		if strings.Contains(f, "+state:") {
			return true
		}
	}
	return false
}
