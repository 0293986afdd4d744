package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My Project", "my_project"},
		{"doc-links", "doc-links"},
		{"  spaced  ", "spaced"},
		{"études", "etudes"},
		{"///", "unknown"},
		{"", "unknown"},
		{"Tool.v2", "tool_v2"},
	}
	for _, tc := range cases {
		if got := SanitizeToken(tc.in); got != tc.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSafeDirNameFromURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://docs.example.com/guide/", "docs.example.com_guide"},
		{"http://example.com", "example.com"},
		{"ftp://files.example.com/a b/c", "files.example.com_a_b_c"},
		{"", "download"},
	}
	for _, tc := range cases {
		if got := SafeDirNameFromURL(tc.in); got != tc.want {
			t.Errorf("SafeDirNameFromURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSafeDirNameFromURLTruncates(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("segment/", 30)
	got := SafeDirNameFromURL(long)
	if len(got) > 64 {
		t.Fatalf("name not truncated: %d chars", len(got))
	}
	if strings.ContainsAny(got, `/\:*?"<>|`) {
		t.Fatalf("unsafe characters in %q", got)
	}
}
