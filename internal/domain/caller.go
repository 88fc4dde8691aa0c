package domain

// Caller identifies the principal running a search. Permission labels
// are opaque tags matched against each record's stored labels by the
// engine; a sysadmin caller carries no labels and sees everything.
type Caller struct {
	Name     string
	Sysadmin bool
	Labels   []string
}

// Anonymous is the unauthenticated caller.
var Anonymous = Caller{Name: "", Labels: []string{"public"}}

// VisibilityLabels returns the labels to filter results by, or nil for
// a caller with full visibility.
func (c Caller) VisibilityLabels() []string {
	if c.Sysadmin {
		return nil
	}
	if len(c.Labels) == 0 {
		return Anonymous.Labels
	}
	return c.Labels
}
