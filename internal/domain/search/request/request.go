package request

import "fmt"

// Search parameter limits.
const (
	MaxQueryLength = 4096
	DefaultRows    = 20
	MaxRows        = 1000
)

// Route identifies where a search request originated. Multi-select
// facet clauses are only applied on designated UI routes; programmatic
// callers supply their own filter expressions and must not be
// double-filtered.
type Route string

const (
	RouteMultiSelectUI Route = "multi_select_ui"
	RouteAPI           Route = "api"
	RouteOther         Route = "other"
)

// IsValid reports whether r is a known route kind.
func (r Route) IsValid() bool {
	switch r {
	case RouteMultiSelectUI, RouteAPI, RouteOther:
		return true
	}
	return false
}

// Selection is one facet filter: a facet key with a single value.
// Repeating a key across selections gives OR semantics within that key.
type Selection struct {
	Key   string
	Value string
}

// Scope holds record-visibility flags.
type Scope struct {
	IncludePrivate bool
	IncludeDrafts  bool
	IncludeDeleted bool
}

// Request is a validated search request. Zero value is not usable;
// construct via New.
type Request struct {
	query      string
	selections []Selection
	page       int
	rows       int
	sort       string
	rawFilter  string
	scope      Scope
	route      Route
}

// New validates and normalizes search parameters.
// Defaults: page=1, rows=DefaultRows, route=other.
func New(
	query string,
	selections []Selection,
	page, rows int,
	sort, rawFilter string,
	scope Scope,
	route Route,
) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return Request{}, fmt.Errorf("page must be >= 1, got %d", page)
	}
	if rows < 0 {
		return Request{}, fmt.Errorf("rows must be >= 0, got %d", rows)
	}
	if rows == 0 {
		rows = DefaultRows
	}
	if rows > MaxRows {
		rows = MaxRows
	}
	if route == "" {
		route = RouteOther
	}
	if !route.IsValid() {
		return Request{}, fmt.Errorf("invalid route kind: %q", route)
	}
	for _, sel := range selections {
		if sel.Key == "" {
			return Request{}, fmt.Errorf("facet selection with empty key")
		}
	}

	return Request{
		query:      query,
		selections: selections,
		page:       page,
		rows:       rows,
		sort:       sort,
		rawFilter:  rawFilter,
		scope:      scope,
		route:      route,
	}, nil
}

// Query returns the raw free-text query.
func (r *Request) Query() string { return r.query }

// Selections returns the ordered facet selections.
func (r *Request) Selections() []Selection { return r.selections }

// Selected returns the distinct values selected for one facet key.
func (r *Request) Selected(key string) []string {
	var vals []string
	for _, sel := range r.selections {
		if sel.Key == key {
			vals = append(vals, sel.Value)
		}
	}
	return vals
}

// Page returns the 1-based page number.
func (r *Request) Page() int { return r.page }

// Rows returns the page size.
func (r *Request) Rows() int { return r.rows }

// Start returns the 0-based offset of the first row.
func (r *Request) Start() int { return (r.page - 1) * r.rows }

// Sort returns the caller-supplied sort expression, "" for default.
func (r *Request) Sort() string { return r.sort }

// RawFilter returns a caller-supplied engine filter expression
// (API route only), "" if none.
func (r *Request) RawFilter() string { return r.rawFilter }

// Scope returns the visibility flags.
func (r *Request) Scope() Scope { return r.scope }

// Route returns the originating route kind.
func (r *Request) Route() Route { return r.route }
