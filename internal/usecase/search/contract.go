package search

import (
	"context"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/solr"
)

// Engine runs augmented queries against the search backend.
type Engine interface {
	Execute(ctx context.Context, in solr.Input) (*solr.Raw, error)
}

// TitleResolver resolves organization and group names to display
// titles for facet relabeling. Best-effort: missing names simply stay
// absent from the result.
type TitleResolver interface {
	Titles(ctx context.Context, names []string) map[string]string
}
