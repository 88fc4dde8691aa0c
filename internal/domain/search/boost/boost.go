// Package boost holds the relevance-boost configuration values.
// Specs are built once at startup; a malformed spec is a startup
// failure, never a per-request error.
package boost

import "fmt"

// Kind selects how a boost contributes to the relevance score.
type Kind string

const (
	// Additive boosts add weight*field to the score (rank-quality
	// fields such as data quality).
	Additive Kind = "additive"
	// Multiplicative boosts scale the whole score (editorial override
	// fields).
	Multiplicative Kind = "multiplicative"
)

// IsValid reports whether k is a known boost kind.
func (k Kind) IsValid() bool { return k == Additive || k == Multiplicative }

// Spec is one configured boost: a stored numeric engine field and its
// weight. Immutable after construction.
type Spec struct {
	field  string
	weight float64
	kind   Kind
}

// New validates and creates a boost Spec.
func New(field string, weight float64, kind Kind) (Spec, error) {
	if field == "" {
		return Spec{}, fmt.Errorf("boost field is required")
	}
	if weight <= 0 {
		return Spec{}, fmt.Errorf("boost weight for %q must be positive, got %g", field, weight)
	}
	if kind == "" {
		kind = Additive
	}
	if !kind.IsValid() {
		return Spec{}, fmt.Errorf("invalid boost kind %q for field %q", kind, field)
	}
	// Additive boosts are per-point weights on bounded rank-quality
	// scales; anything above 1 would swamp the text score.
	if kind == Additive && weight > 1 {
		return Spec{}, fmt.Errorf("additive boost weight for %q must be in (0,1], got %g", field, weight)
	}
	return Spec{field: field, weight: weight, kind: kind}, nil
}

// Field returns the stored numeric field name.
func (s Spec) Field() string { return s.field }

// Weight returns the boost weight.
func (s Spec) Weight() float64 { return s.weight }

// Kind returns how the boost is applied.
func (s Spec) Kind() Kind { return s.kind }
