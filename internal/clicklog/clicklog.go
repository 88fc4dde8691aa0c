// Package clicklog records which search result a user selected.
// Delivery is best-effort and at-most-once: an error is logged and
// swallowed, never surfaced to the search response.
package clicklog

import (
	"context"
	"strconv"
	"time"
)

// Event is one click-through on a search result.
type Event struct {
	Query       string
	Sort        string
	Org         string
	Tags        string
	Format      string
	Licence     string
	PackageID   string
	Page        int
	IndexInPage int
}

// AbsoluteIndex converts the page-relative position into the absolute
// result index for a given page size. Page 0 (absent) counts as the
// first page.
func (e Event) AbsoluteIndex(pageSize int) int {
	page := e.Page
	if page > 0 {
		page--
	} else {
		page = 0
	}
	return page*pageSize + e.IndexInPage
}

// fields flattens the event for the sink, with the absolute index and
// a wall-clock timestamp.
func (e Event) fields(pageSize int, now time.Time) map[string]string {
	return map[string]string{
		"time":       now.Format("2006-01-02 15:04:05.000000"),
		"query":      e.Query,
		"sort":       e.Sort,
		"org":        e.Org,
		"tags":       e.Tags,
		"format":     e.Format,
		"licence":    e.Licence,
		"package-id": e.PackageID,
		"index":      strconv.Itoa(e.AbsoluteIndex(pageSize)),
	}
}

// fieldOrder keeps sink output column-stable.
var fieldOrder = []string{
	"time", "query", "sort", "org", "tags", "format", "licence", "package-id", "index",
}

// Logger appends click events to an external log.
type Logger interface {
	Log(ctx context.Context, e Event)
}

// Nop discards events.
type Nop struct{}

// Log implements Logger.
func (Nop) Log(context.Context, Event) {}
