package logger

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{"empty", "", 10, ""},
		{"plain", "/api/ping", 100, "/api/ping"},
		{"strips newlines", "/api/ping\nfake_log_line", 100, "/api/pingfake_log_line"},
		{"strips control chars", "a\x00b\x1bc", 100, "abc"},
		{"invalid utf8", "ok\xffok", 100, "okok"},
		{"truncates", "abcdef", 3, "abc..."},
		{"truncates on rune boundary", "héllo", 2, "h..."},
		{"keeps whole multibyte rune", "héllo", 3, "hé..."},
		{"non positive max uses default", "abc", 0, "abc"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SanitizeString(tt.input, tt.maxLength)
			if got != tt.want {
				t.Errorf("SanitizeString(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("SanitizeString(%q) returned invalid UTF-8 %q", tt.input, got)
			}
		})
	}
}

func TestSanitizePath_Truncates(t *testing.T) {
	t.Parallel()

	got := SanitizePath("/" + strings.Repeat("a", MaxPathLength+10))
	if len(got) != MaxPathLength+3 {
		t.Errorf("Expected truncated length %d, got %d", MaxPathLength+3, len(got))
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("SanitizeError(nil) = %q, want empty", got)
	}
	if got := SanitizeError(errors.New("dial tcp\r\n")); got != "dial tcp" {
		t.Errorf("SanitizeError() = %q, want %q", got, "dial tcp")
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, debug := range []bool{true, false} {
		l, err := New(debug)
		if err != nil {
			t.Fatalf("New(%v) error = %v", debug, err)
		}
		if got := l.Core().Enabled(-1); got != debug {
			t.Errorf("New(%v) debug enabled = %v", debug, got)
		}
		_ = Sync(l)
	}
}
