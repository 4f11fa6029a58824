package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello"},
		{"x", 0, "x"},
		{"héllo", 2, "hé"},
		{"日本語テキスト", 3, "日本語"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestEllipsize(t *testing.T) {
	if got := Ellipsize("hello world", 5); got != "hello..." {
		t.Errorf("got %q", got)
	}
	if got := Ellipsize("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
}
