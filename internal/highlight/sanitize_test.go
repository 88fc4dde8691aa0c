package highlight

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text untouched",
			in:   "flood risk data",
			want: "flood risk data",
		},
		{
			name: "whitespace collapsed",
			in:   "flood\n\n  risk\tdata",
			want: "flood risk data",
		},
		{
			name: "tags stripped",
			in:   "<p>flood <strong>risk</strong> data</p>",
			want: "flood risk data",
		},
		{
			name: "br dropped",
			in:   "flood<br/>risk",
			want: "flood risk",
		},
		{
			name: "script removed with content",
			in:   `before <script>alert("x")</script> after`,
			want: "before after",
		},
		{
			name: "style removed with content",
			in:   "before <style>p { color: red }</style> after",
			want: "before after",
		},
		{
			name: "iframe removed with content",
			in:   `<iframe src="http://example.com">fallback</iframe>text`,
			want: "text",
		},
		{
			name: "nested markup inside stripped element",
			in:   "<div>kept <script>var a = <b>1</b>;</script>also kept</div>",
			want: "kept also kept",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
