package upstream

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short", "błąd", 10, "błąd"},
		{"exact", "abcd", 4, "abcd"},
		{"ascii cut", "abcdef", 3, "abc..."},
		{"inside rune", "ąąą", 3, "ą..."},
		{"on rune boundary", "ąąą", 4, "ąą..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.limit); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	body := strings.Repeat("a", maxErrorBody-1) + "żółć"
	err := &HTTPError{Status: 500, Body: body, Path: "/seasons"}

	msg := err.Error()
	if !utf8.ValidString(msg) {
		t.Fatalf("Error() = %q, not valid UTF-8", msg)
	}
	if !strings.HasPrefix(msg, "upstream /seasons returned 500: ") {
		t.Errorf("Error() = %q, want path and status prefix", msg)
	}
	if !strings.HasSuffix(msg, "...") {
		t.Errorf("Error() = %q, want truncation marker", msg)
	}
	if err.Body != body {
		t.Error("Error() must not alter Body")
	}
}
