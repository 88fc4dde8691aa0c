package boost

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		weight  float64
		kind    Kind
		wantErr string
	}{
		{name: "additive", field: "copy_data_quality", weight: 0.1, kind: Additive},
		{name: "kind defaults to additive", field: "copy_data_quality", weight: 1},
		{name: "multiplicative above one", field: "copy_dataset_boost", weight: 2, kind: Multiplicative},
		{name: "empty field", weight: 0.1, wantErr: "field is required"},
		{name: "zero weight", field: "f", weight: 0, wantErr: "must be positive"},
		{name: "negative weight", field: "f", weight: -0.5, wantErr: "must be positive"},
		{name: "unknown kind", field: "f", weight: 0.1, kind: Kind("squared"), wantErr: "invalid boost kind"},
		{name: "additive above one", field: "f", weight: 1.5, kind: Additive, wantErr: "must be in (0,1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.field, tt.weight, tt.kind)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Field() != tt.field || s.Weight() != tt.weight {
				t.Errorf("spec = %q/%g", s.Field(), s.Weight())
			}
			if tt.kind == "" && s.Kind() != Additive {
				t.Errorf("default kind = %q", s.Kind())
			}
		})
	}
}
