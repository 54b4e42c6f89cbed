package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectScanArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"rio"},
			want: []string{"rio"},
		},
		{
			name: "url first token",
			in:   []string{"rio", "https://example.com/g"},
			want: []string{"rio", "scan", "https://example.com/g"},
		},
		{
			name: "url after value flag",
			in:   []string{"rio", "--server", "http://127.0.0.1:9", "https://example.com/g"},
			want: []string{"rio", "--server", "http://127.0.0.1:9", "scan", "https://example.com/g"},
		},
		{
			name: "url after equals flag",
			in:   []string{"rio", "--format=yaml", "http://example.com/g", "--wait"},
			want: []string{"rio", "--format=yaml", "scan", "http://example.com/g", "--wait"},
		},
		{
			name: "url after bool flag",
			in:   []string{"rio", "--pretty", "https://example.com/g"},
			want: []string{"rio", "--pretty", "scan", "https://example.com/g"},
		},
		{
			name: "url after double dash",
			in:   []string{"rio", "--", "https://example.com/g"},
			want: []string{"rio", "scan", "--", "https://example.com/g"},
		},
		{
			name: "url after flags and double dash",
			in:   []string{"rio", "--format", "yaml", "--", "https://example.com/g"},
			want: []string{"rio", "--format", "yaml", "scan", "--", "https://example.com/g"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"rio", "direct", "yt-dlp", "https://example.com/v"},
			want: []string{"rio", "direct", "yt-dlp", "https://example.com/v"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"rio", "wat"},
			want: []string{"rio", "wat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectScanArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectScanArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
