package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"  leading and trailing  ", "leading and trailing"},
		{"broken\n  across\n\tlines", "broken across lines"},
		{"multiple   internal    spaces", "multiple internal spaces"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CollapseWhitespace(tc.in); got != tc.want {
			t.Errorf("CollapseWhitespace(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
