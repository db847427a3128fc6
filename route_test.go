package typroxy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBaseRoute(t *testing.T) {
	tests := []struct {
		name     string
		contract string
		template string
		want     string
	}{
		{"empty template", "OrdersAPI", "", "Orders"},
		{"bracket token", "OrdersAPI", "api/[controller]", "api/Orders"},
		{"brace token", "OrdersApi", "api/{controller}/v2", "api/Orders/v2"},
		{"appended", "Orders", "api/v1", "api/v1/Orders"},
		{"appended after trailing separator", "Orders", "api/v1/", "api/v1/Orders"},
		{"one leading separator stripped", "Orders", "/api", "api/Orders"},
		{"only one leading separator stripped", "Orders", "//api", "/api/Orders"},
		{"generic brackets", "Repo[example.com/pkg.User]", "[controller]", "Repo"},
		{"suffix alone is kept", "API", "", "API"},
		{"leading token", "UsersAPI", "/[controller]/list", "Users/list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BaseRoute(tt.contract, tt.template); got != tt.want {
				t.Errorf("BaseRoute(%q, %q) = %q, want %q", tt.contract, tt.template, got, tt.want)
			}
		})
	}
}

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name        string
		entries     []string
		want        map[string]string
		wantSkipped []string
	}{
		{
			name:    "single entry",
			entries: []string{"X-Trace: abc123"},
			want:    map[string]string{"X-Trace": "abc123"},
		},
		{
			name:        "entry without colon dropped",
			entries:     []string{"X-Trace: abc123", "broken", "Accept: text/plain"},
			want:        map[string]string{"X-Trace": "abc123", "Accept": "text/plain"},
			wantSkipped: []string{"broken"},
		},
		{
			name:    "split on first colon",
			entries: []string{"X-Upstream: http://host:8080/path"},
			want:    map[string]string{"X-Upstream": "http://host:8080/path"},
		},
		{
			name:    "whitespace trimmed",
			entries: []string{"  X-Key  :   value  "},
			want:    map[string]string{"X-Key": "value"},
		},
		{
			name:    "empty value kept",
			entries: []string{"X-Empty:"},
			want:    map[string]string{"X-Empty": ""},
		},
		{
			name:        "empty name skipped",
			entries:     []string{": value"},
			want:        map[string]string{},
			wantSkipped: []string{": value"},
		},
		{
			name:    "last duplicate wins",
			entries: []string{"X-Mode: a", "X-Mode: b"},
			want:    map[string]string{"X-Mode": "b"},
		},
		{
			name: "no entries",
			want: map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, skipped := parseHeaders(tt.entries)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("headers mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantSkipped, skipped); diff != "" {
				t.Errorf("skipped mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
