// Package orgtitle resolves organization and group names to their
// display titles. The titles live in a Redis hash maintained by the
// catalogue sync job; this repository only reads it.
package orgtitle

import (
	"context"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// DefaultKey is the hash holding name -> display title.
const DefaultKey = "dfl:org:titles"

// Repo reads display titles for facet relabeling.
type Repo struct {
	client rueidis.Client
	key    string
	logger *zap.Logger
}

// New creates a title repository.
func New(client rueidis.Client, key string, logger *zap.Logger) *Repo {
	if key == "" {
		key = DefaultKey
	}
	return &Repo{client: client, key: key, logger: logger}
}

// Titles returns the display titles known for the given names. Lookup
// is best-effort: on any error the result is empty and the caller
// falls back to raw names. A missing or blank title is simply not in
// the returned map.
func (r *Repo) Titles(ctx context.Context, names []string) map[string]string {
	if len(names) == 0 {
		return nil
	}

	cmd := r.client.B().Hmget().Key(r.key).Field(names...).Build()
	values, err := r.client.Do(ctx, cmd).ToArray()
	if err != nil {
		r.logger.Warn("title lookup failed", zap.Error(err))
		return nil
	}

	titles := make(map[string]string, len(names))
	for i, v := range values {
		if i >= len(names) {
			break
		}
		title, err := v.ToString()
		if err != nil || title == "" {
			continue
		}
		titles[names[i]] = title
	}
	return titles
}
