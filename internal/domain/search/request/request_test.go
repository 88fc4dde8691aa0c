package request

import (
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("flood", nil, 0, 0, "", "", Scope{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Page() != 1 {
		t.Errorf("page = %d, want 1", r.Page())
	}
	if r.Rows() != DefaultRows {
		t.Errorf("rows = %d, want %d", r.Rows(), DefaultRows)
	}
	if r.Route() != RouteOther {
		t.Errorf("route = %q, want %q", r.Route(), RouteOther)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		sels    []Selection
		page    int
		rows    int
		route   Route
		wantErr string
	}{
		{name: "negative page", page: -1, wantErr: "page must be >= 1"},
		{name: "negative rows", rows: -5, wantErr: "rows must be >= 0"},
		{name: "empty selection key", sels: []Selection{{Key: "", Value: "x"}}, wantErr: "empty key"},
		{name: "unknown route", route: Route("webhooks"), wantErr: "invalid route"},
		{name: "query too long", query: strings.Repeat("a", MaxQueryLength+1), wantErr: "query too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.query, tt.sels, tt.page, tt.rows, "", "", Scope{}, tt.route)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestNew_RowsCapped(t *testing.T) {
	r, err := New("", nil, 1, MaxRows+500, "", "", Scope{}, RouteAPI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Rows() != MaxRows {
		t.Errorf("rows = %d, want %d", r.Rows(), MaxRows)
	}
}

func TestStart(t *testing.T) {
	r, err := New("", nil, 3, 25, "", "", Scope{}, RouteAPI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start() != 50 {
		t.Errorf("start = %d, want 50", r.Start())
	}
}

func TestSelected(t *testing.T) {
	r, err := New("", []Selection{
		{Key: "res_format", Value: "csv"},
		{Key: "organization", Value: "gla"},
		{Key: "res_format", Value: "geojson"},
	}, 1, 10, "", "", Scope{}, RouteMultiSelectUI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := r.Selected("res_format")
	if len(got) != 2 || got[0] != "csv" || got[1] != "geojson" {
		t.Errorf("Selected = %v", got)
	}
	if r.Selected("tags") != nil {
		t.Errorf("Selected on unselected key should be nil")
	}
}
