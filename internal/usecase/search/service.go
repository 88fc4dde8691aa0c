// Package search assembles the full search pipeline: query
// augmentation, engine execution, highlight reconciliation, and facet
// post-processing. Each stage takes a value and returns a new one; no
// stage mutates another's output.
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain/search/request"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain/search/result"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/facet"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/highlight"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/logger"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/metrics"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/query"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/solr"
)

// Fields reconciled inline (no length bound) versus as bounded
// snippets.
var inlineHighlightFields = map[string]bool{
	"title":               true,
	"organization_titles": true,
}

// Facet keys with special relabeling.
const (
	facetFormat  = "res_format"
	facetPrivate = "private"
)

// Keys whose bucket names are organization/group ids needing display
// titles.
var titledFacets = map[string]bool{
	"organization": true,
	"groups":       true,
}

// facetTitles maps facet keys to their display titles.
var facetTitles = map[string]string{
	"organization": "Organisations",
	"groups":       "Groups",
	"res_format":   "Formats",
	"license_id":   "Licences",
	"tags":         "Tags",
	"private":      "Visibility",
}

// Options holds the immutable presentation configuration.
type Options struct {
	KnownFacets     []string
	FormatGroups    facet.Groups
	HighlightFields []string
	SnippetLength   int
	DefaultSort     string
}

// Service orchestrates one search request end to end.
type Service struct {
	engine  Engine
	builder *query.Builder
	titles  TitleResolver
	opts    Options
}

// New creates a search service.
func New(engine Engine, builder *query.Builder, titles TitleResolver, opts Options) *Service {
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = 180
	}
	return &Service{engine: engine, builder: builder, titles: titles, opts: opts}
}

// Search runs the full pipeline and assembles the response.
func (s *Service) Search(ctx context.Context, req *request.Request, caller domain.Caller) (*result.Response, error) {
	expr, err := s.builder.Build(req.Query())
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	multiSelect := req.Route() == request.RouteMultiSelectUI
	var clauses []query.Clause
	if multiSelect {
		clauses = query.BuildClauses(req.Selections(), s.opts.KnownFacets)
	}

	sort := req.Sort()
	if sort == "" || sort == "rank" {
		sort = s.opts.DefaultSort
	}

	in := solr.Input{
		Expr:        expr,
		Clauses:     clauses,
		RawFilter:   req.RawFilter(),
		FacetFields: s.opts.KnownFacets,
		MultiSelect: multiSelect,
		Start:       req.Start(),
		Rows:        req.Rows(),
		Sort:        sort,
		Scope:       req.Scope(),
		Labels:      caller.VisibilityLabels(),
	}
	// Widen the record type to showcases when the user typed a query.
	if strings.TrimSpace(req.Query()) != "" {
		in.ExtraFilters = append(in.ExtraFilters,
			"dataset_type:dataset || dataset_type:showcase")
	}

	raw, err := s.engine.Execute(ctx, in)
	if err != nil {
		return nil, err
	}

	return &result.Response{
		Count:    raw.Count,
		Sort:     sort,
		Hits:     raw.Docs,
		Facets:   s.assembleFacets(ctx, req, raw, multiSelect),
		Snippets: s.assembleSnippets(ctx, raw),
	}, nil
}

// Debug runs a raw engine query with scoring explanation. Sysadmin
// only; rejected before any engine call.
func (s *Service) Debug(ctx context.Context, caller domain.Caller, rawQuery string) (map[string]any, error) {
	if !caller.Sysadmin {
		return nil, fmt.Errorf("%w: debug search requires a sysadmin", domain.ErrNotAuthorized)
	}

	expr, err := s.builder.Build(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	raw, err := s.engine.Execute(ctx, solr.Input{
		Expr:  expr,
		Rows:  request.DefaultRows,
		Debug: true,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]map[string]string, len(raw.Docs))
	for i, h := range raw.Docs {
		hits[i] = h.Fields
	}
	return map[string]any{
		"count":   raw.Count,
		"results": hits,
		"debug":   raw.Debug,
	}, nil
}

// assembleSnippets reconciles highlight fragments with stored values
// for every hit. A fragment referencing a field missing from the
// stored record is a per-field anomaly: log, fall back, carry on.
func (s *Service) assembleSnippets(ctx context.Context, raw *solr.Raw) map[string]map[string]string {
	log := logger.FromContext(ctx)
	snippets := make(map[string]map[string]string, len(raw.Docs))

	for _, hit := range raw.Docs {
		perField := make(map[string]string, len(s.opts.HighlightFields))
		for _, field := range s.opts.HighlightFields {
			stored := hit.Field(field)
			frags := raw.Highlighting.Fragments(hit.IndexID, field)

			if len(frags) > 0 && stored == "" {
				log.Warn("highlight fragment for missing stored field",
					zap.String("id", hit.ID),
					zap.String("field", field),
				)
				metrics.HighlightFallbacksTotal.Inc()
				frags = nil
			}

			if inlineHighlightFields[field] {
				perField[field] = highlight.ReconcileInline(stored, frags)
				continue
			}
			perField[field] = highlight.Reconcile(
				highlight.Sanitize(stored), frags, s.opts.SnippetLength)
		}
		snippets[hit.ID] = perField
	}
	return snippets
}

// assembleFacets re-buckets, relabels, and orders the raw counts.
func (s *Service) assembleFacets(
	ctx context.Context, req *request.Request, raw *solr.Raw, multiSelect bool,
) []result.Group {
	titles := s.resolveTitles(ctx, raw)

	groups := make([]result.Group, 0, len(s.opts.KnownFacets))
	for _, key := range s.opts.KnownFacets {
		buckets := raw.FacetFields[key]

		switch {
		case key == facetFormat:
			buckets = facet.Aggregate(buckets, s.opts.FormatGroups)
		case key == facetPrivate:
			buckets = facet.RelabelBoolean(buckets, "Private", "Public")
		case titledFacets[key]:
			buckets = relabelTitles(buckets, titles)
		}

		if multiSelect {
			buckets = facet.EnsureSelected(buckets, req.Selected(key))
		}
		facet.SortBuckets(buckets)

		groups = append(groups, result.Group{
			Key:     key,
			Title:   facetTitle(key),
			Buckets: buckets,
		})
	}
	return groups
}

// resolveTitles looks up display titles for every organization and
// group bucket name in one round trip.
func (s *Service) resolveTitles(ctx context.Context, raw *solr.Raw) map[string]string {
	if s.titles == nil {
		return nil
	}
	var names []string
	for key := range titledFacets {
		for _, b := range raw.FacetFields[key] {
			names = append(names, b.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return s.titles.Titles(ctx, names)
}

func relabelTitles(buckets []result.Bucket, titles map[string]string) []result.Bucket {
	out := make([]result.Bucket, len(buckets))
	for i, b := range buckets {
		if t, ok := titles[b.Name]; ok && strings.TrimSpace(t) != "" {
			b.DisplayName = t
		}
		out[i] = b
	}
	return out
}

func facetTitle(key string) string {
	if t, ok := facetTitles[key]; ok {
		return t
	}
	return key
}
