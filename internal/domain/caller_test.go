package domain

import (
	"reflect"
	"testing"
)

func TestVisibilityLabels(t *testing.T) {
	tests := []struct {
		name   string
		caller Caller
		want   []string
	}{
		{name: "sysadmin sees everything", caller: Caller{Name: "root", Sysadmin: true, Labels: []string{"x"}}, want: nil},
		{name: "anonymous", caller: Anonymous, want: []string{"public"}},
		{name: "named user without labels", caller: Caller{Name: "alice"}, want: []string{"public"}},
		{name: "named user with labels", caller: Caller{Name: "alice", Labels: []string{"public", "member-gla"}}, want: []string{"public", "member-gla"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.caller.VisibilityLabels(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("VisibilityLabels = %v, want %v", got, tt.want)
			}
		})
	}
}
