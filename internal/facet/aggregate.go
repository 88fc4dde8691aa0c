// Package facet re-buckets and relabels raw engine facet counts for
// presentation.
package facet

import (
	"sort"
	"strings"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain/search/result"
)

// Groups maps a raw facet value to its display family, matched
// case-insensitively (e.g. many file formats into "Tables").
type Groups map[string]string

// NewGroups normalizes a grouping rule for case-insensitive lookup.
func NewGroups(rules map[string]string) Groups {
	g := make(Groups, len(rules))
	for raw, family := range rules {
		g[strings.ToLower(raw)] = family
	}
	return g
}

// Aggregate sums buckets whose value maps to a configured family into
// one synthetic bucket per family. Buckets with no mapping pass
// through unchanged. A synthetic bucket is emitted only when its
// summed count is positive: an empty aggregate category is never
// shown.
func Aggregate(buckets []result.Bucket, groups Groups) []result.Bucket {
	out := make([]result.Bucket, 0, len(buckets))
	sums := make(map[string]int)
	var familyOrder []string

	for _, b := range buckets {
		family, ok := groups[strings.ToLower(b.Name)]
		if !ok {
			out = append(out, b)
			continue
		}
		if _, seen := sums[family]; !seen {
			familyOrder = append(familyOrder, family)
		}
		sums[family] += b.Count
	}

	for _, family := range familyOrder {
		if sums[family] <= 0 {
			continue
		}
		out = append(out, result.Bucket{
			Name:        family,
			DisplayName: family,
			Count:       sums[family],
		})
	}
	return out
}

// RelabelBoolean rewrites true/false bucket values to display labels
// without altering counts.
func RelabelBoolean(buckets []result.Bucket, trueLabel, falseLabel string) []result.Bucket {
	out := make([]result.Bucket, len(buckets))
	for i, b := range buckets {
		switch strings.ToLower(b.Name) {
		case "true":
			b.DisplayName = trueLabel
		case "false":
			b.DisplayName = falseLabel
		}
		out[i] = b
	}
	return out
}

// EnsureSelected re-emits a zero-count bucket for every selected value
// missing from the engine counts, so an active filter renders as an
// empty chip instead of vanishing.
func EnsureSelected(buckets []result.Bucket, selected []string) []result.Bucket {
	present := make(map[string]bool, len(buckets))
	for _, b := range buckets {
		present[b.Name] = true
	}
	for _, v := range selected {
		if present[v] {
			continue
		}
		buckets = append(buckets, result.Bucket{Name: v, DisplayName: v, Count: 0})
		present[v] = true
	}
	return buckets
}

// SortBuckets orders buckets by display name descending, with the raw
// name descending as tie-break. Deterministic regardless of engine or
// aggregation order.
func SortBuckets(buckets []result.Bucket) {
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].DisplayName != buckets[j].DisplayName {
			return buckets[i].DisplayName > buckets[j].DisplayName
		}
		return buckets[i].Name > buckets[j].Name
	})
}
