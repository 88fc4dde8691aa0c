// Package chi exposes the search pipeline over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/clicklog"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain/search/request"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain/search/result"
	searchuc "github.com/GreaterLondonAuthority/dfl-ckanext/internal/usecase/search"
)

// Identity headers injected by the platform's front-end proxy. The
// authentication subsystem itself is out of scope here: by the time a
// request reaches this service the proxy has already resolved the
// session.
const (
	headerUser     = "X-DFL-User"
	headerSysadmin = "X-DFL-Sysadmin"
	headerLabels   = "X-DFL-Labels"
)

// Server handles the search API routes.
type Server struct {
	search      *searchuc.Service
	clicks      clicklog.Logger
	knownFacets []string
	logger      *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, clicks clicklog.Logger, knownFacets []string, logger *zap.Logger) *Server {
	if clicks == nil {
		clicks = clicklog.Nop{}
	}
	return &Server{
		search:      search,
		clicks:      clicks,
		knownFacets: knownFacets,
		logger:      logger,
	}
}

// Routes mounts the API on a chi router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/dataset/search", s.handleSearch(request.RouteMultiSelectUI))
	r.Get("/api/search", s.handleSearch(request.RouteAPI))
	r.Get("/api/search/debug", s.handleDebug)
	r.Post("/api/click", s.handleClick)
}

func (s *Server) handleSearch(route request.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := s.bindRequest(r, route)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}

		resp, err := s.search.Search(r.Context(), req, callerFrom(r))
		if err != nil {
			s.handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, responseToJSON(resp))
	}
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	out, err := s.search.Debug(r.Context(), callerFrom(r), r.URL.Query().Get("q"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleClick records a selected result. Always 204: click logging is
// best-effort and never fails the caller.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query     string `json:"query"`
		Sort      string `json:"sort"`
		Org       string `json:"org"`
		Tags      string `json:"tags"`
		Format    string `json:"format"`
		Licence   string `json:"licence"`
		PackageID string `json:"package_id"`
		Page      int    `json:"page"`
		Index     int    `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	s.clicks.Log(r.Context(), clicklog.Event{
		Query:       body.Query,
		Sort:        body.Sort,
		Org:         body.Org,
		Tags:        body.Tags,
		Format:      body.Format,
		Licence:     body.Licence,
		PackageID:   body.PackageID,
		Page:        body.Page,
		IndexInPage: body.Index,
	})
	w.WriteHeader(http.StatusNoContent)
}

// bindRequest maps query parameters onto a validated search request.
// Facet selections arrive as repeated parameters keyed by facet name;
// only configured facet keys are read, everything else is ignored.
func (s *Server) bindRequest(r *http.Request, route request.Route) (*request.Request, error) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 0)
	if err != nil {
		return nil, errors.New("page must be an integer")
	}
	rows, err := intParam(q.Get("rows"), 0)
	if err != nil {
		return nil, errors.New("rows must be an integer")
	}

	var selections []request.Selection
	for _, key := range s.knownFacets {
		for _, v := range q[key] {
			if v == "" {
				continue
			}
			selections = append(selections, request.Selection{Key: key, Value: v})
		}
	}

	rawFilter := ""
	if route == request.RouteAPI {
		rawFilter = q.Get("fq")
	}

	req, err := request.New(
		q.Get("q"),
		selections,
		page, rows,
		q.Get("sort"),
		rawFilter,
		request.Scope{
			IncludePrivate: boolParam(q.Get("include_private")),
			IncludeDrafts:  boolParam(q.Get("include_drafts")),
			IncludeDeleted: boolParam(q.Get("include_deleted")),
		},
		route,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQueryValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "not_authorized", "not authorized")
	case errors.Is(err, domain.ErrBackendUnavailable):
		writeError(w, http.StatusServiceUnavailable, "backend_unavailable", "search backend unavailable")
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func callerFrom(r *http.Request) domain.Caller {
	name := r.Header.Get(headerUser)
	if name == "" {
		return domain.Anonymous
	}
	var labels []string
	for _, l := range strings.Split(r.Header.Get(headerLabels), ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return domain.Caller{
		Name:     name,
		Sysadmin: r.Header.Get(headerSysadmin) == "true",
		Labels:   labels,
	}
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func boolParam(s string) bool {
	return s == "true" || s == "1"
}

// --- JSON shapes ---

type bucketJSON struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Count       int    `json:"count"`
}

type facetGroupJSON struct {
	Key     string       `json:"facet_key"`
	Title   string       `json:"display_title"`
	Buckets []bucketJSON `json:"buckets"`
}

type hitJSON struct {
	ID      string            `json:"id"`
	IndexID string            `json:"index_id,omitempty"`
	Fields  map[string]string `json:"fields"`
	Extras  map[string]string `json:"extras,omitempty"`
}

type responseJSON struct {
	Count        int                          `json:"count"`
	Sort         string                       `json:"sort"`
	Results      []hitJSON                    `json:"results"`
	FacetGroups  []facetGroupJSON             `json:"facet_groups"`
	Highlighting map[string]map[string]string `json:"highlighting"`
}

func responseToJSON(resp *result.Response) responseJSON {
	out := responseJSON{
		Count:        resp.Count,
		Sort:         resp.Sort,
		Results:      make([]hitJSON, len(resp.Hits)),
		FacetGroups:  make([]facetGroupJSON, len(resp.Facets)),
		Highlighting: resp.Snippets,
	}
	for i, h := range resp.Hits {
		out.Results[i] = hitJSON{
			ID:      h.ID,
			IndexID: h.IndexID,
			Fields:  h.Fields,
			Extras:  h.Extras,
		}
	}
	for i, g := range resp.Facets {
		buckets := make([]bucketJSON, len(g.Buckets))
		for j, b := range g.Buckets {
			buckets[j] = bucketJSON{Name: b.Name, DisplayName: b.DisplayName, Count: b.Count}
		}
		out.FacetGroups[i] = facetGroupJSON{Key: g.Key, Title: g.Title, Buckets: buckets}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"code": code, "message": msg})
}
