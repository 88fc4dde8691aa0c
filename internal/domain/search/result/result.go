package result

import "strconv"

// Hit is a single engine-returned record, decoded from stored fields.
// Extras_* stored fields are folded into Extras with the prefix
// stripped.
type Hit struct {
	ID      string
	IndexID string
	Fields  map[string]string
	Extras  map[string]string
}

// Field returns a stored field value, "" when absent.
func (h Hit) Field(name string) string { return h.Fields[name] }

// SizeSum returns the summed resource size stored for the record, 0
// when absent or unparseable.
func (h Hit) SizeSum() int64 {
	n, err := strconv.ParseInt(h.Fields["size_sum"], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Bucket is one facet value with its result count.
type Bucket struct {
	Name        string
	DisplayName string
	Count       int
}

// Group is the ordered bucket list for one facet key. Created fresh
// per response, never persisted.
type Group struct {
	Key     string
	Title   string
	Buckets []Bucket
}

// Highlighting maps record index id -> field name -> highlight
// fragments containing sentinel markers. Marker pairs are not
// guaranteed balanced within a single fragment.
type Highlighting map[string]map[string][]string

// Fragments returns the highlight fragments for one record field, nil
// when the engine produced none.
func (h Highlighting) Fragments(indexID, field string) []string {
	byField, ok := h[indexID]
	if !ok {
		return nil
	}
	return byField[field]
}

// Response is the assembled search response returned to the
// presentation layer.
type Response struct {
	Count    int
	Sort     string
	Hits     []Hit
	Facets   []Group
	Snippets map[string]map[string]string
}
