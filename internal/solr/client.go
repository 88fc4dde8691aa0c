// Package solr owns the contract with the remote search engine:
// parameter validation, default injection, and response decoding into
// typed hit/facet/highlight structures.
package solr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain/search/result"
)

// Config holds connection parameters for the engine.
type Config struct {
	// BaseURL is the core URL, e.g. http://solr:8983/solr/ckan.
	BaseURL string
	Timeout time.Duration
}

// Client is a thin HTTP client for the engine's select handler.
// Timeouts are the HTTP client's responsibility; on timeout the error
// surfaces as ErrBackendUnavailable rather than hanging.
type Client struct {
	baseURL string
	hc      *http.Client
	logger  *zap.Logger
}

// NewClient creates an engine client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("engine base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Raw is the decoded engine response.
type Raw struct {
	Count        int
	Docs         []result.Hit
	FacetFields  map[string][]result.Bucket
	Highlighting result.Highlighting
	Debug        map[string]any
}

type selectResponse struct {
	Response struct {
		NumFound int              `json:"numFound"`
		Docs     []map[string]any `json:"docs"`
	} `json:"response"`
	FacetCounts struct {
		FacetFields map[string][]any `json:"facet_fields"`
	} `json:"facet_counts"`
	Highlighting map[string]map[string][]string `json:"highlighting"`
	Debug        map[string]any                 `json:"debug"`
	Error        struct {
		Msg  string `json:"msg"`
		Code int    `json:"code"`
	} `json:"error"`
}

// Select runs one blocking select round trip. There is no internal
// retry: transport failures surface as ErrBackendUnavailable and the
// caller decides (the request is an idempotent read).
func (c *Client) Select(ctx context.Context, params url.Values) (*Raw, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/select",
		strings.NewReader(params.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("build select request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrBackendUnavailable, err)
	}

	var decoded selectResponse
	if jsonErr := json.Unmarshal(body, &decoded); jsonErr != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrBackendUnavailable, jsonErr)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode, decoded.Error.Msg)
	}

	return &Raw{
		Count:        decoded.Response.NumFound,
		Docs:         decodeDocs(decoded.Response.Docs, c.logger),
		FacetFields:  decodeFacetFields(decoded.FacetCounts.FacetFields),
		Highlighting: result.Highlighting(decoded.Highlighting),
		Debug:        decoded.Debug,
	}, nil
}

// statusError distinguishes "your request was invalid" from "the
// backend is unavailable". The engine reports a bad sort expression
// with slightly different messages depending on which layer renders
// the error.
func (c *Client) statusError(status int, msg string) error {
	if status == http.StatusBadRequest {
		if strings.Contains(msg, "Sort Order") ||
			strings.Contains(msg, "sort order") ||
			strings.Contains(msg, "undefined field") {
			return fmt.Errorf("%w: invalid sort parameter: %s", domain.ErrQueryValidation, msg)
		}
		return fmt.Errorf("%w: engine rejected query: %s", domain.ErrQueryValidation, msg)
	}
	return fmt.Errorf("%w: engine returned status %d: %s", domain.ErrBackendUnavailable, status, msg)
}

// decodeDocs converts raw documents to typed hits, folding extras_*
// stored fields into the extras map with the prefix stripped.
func decodeDocs(docs []map[string]any, logger *zap.Logger) []result.Hit {
	hits := make([]result.Hit, 0, len(docs))
	for _, doc := range docs {
		hit := result.Hit{
			Fields: make(map[string]string, len(doc)),
		}
		for name, value := range doc {
			str := stringifyField(value)
			switch {
			case name == "id":
				hit.ID = str
			case name == "index_id":
				hit.IndexID = str
			case strings.HasPrefix(name, "extras_"):
				if hit.Extras == nil {
					hit.Extras = make(map[string]string)
				}
				hit.Extras[strings.TrimPrefix(name, "extras_")] = str
			default:
				hit.Fields[name] = str
			}
		}
		if hit.ID == "" {
			logger.Warn("engine document without id, skipping")
			continue
		}
		hits = append(hits, hit)
	}
	return hits
}

func stringifyField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = stringifyField(e)
		}
		return strings.Join(parts, " ")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// decodeFacetFields converts the engine's name/count alternation into
// ordered buckets per facet key.
func decodeFacetFields(fields map[string][]any) map[string][]result.Bucket {
	out := make(map[string][]result.Bucket, len(fields))
	for key, alternation := range fields {
		buckets := make([]result.Bucket, 0, len(alternation)/2)
		for i := 0; i+1 < len(alternation); i += 2 {
			name, ok := alternation[i].(string)
			if !ok {
				continue
			}
			count, ok := alternation[i+1].(float64)
			if !ok {
				continue
			}
			buckets = append(buckets, result.Bucket{
				Name:        name,
				DisplayName: name,
				Count:       int(count),
			})
		}
		out[key] = buckets
	}
	return out
}
