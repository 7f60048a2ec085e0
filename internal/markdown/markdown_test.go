package markdown_test

import (
	"testing"

	"placedesk/internal/markdown"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "Cozy cafe", "Cozy cafe"},
		{"dots and dashes", "Nevsky pr. 28-A", "Nevsky pr\\. 28\\-A"},
		{"brackets and parens", "[Bar] (new!)", "\\[Bar\\] \\(new\\!\\)"},
		{"empty", "", ""},
		{"already escaped backslash kept", "a\\.b", "a\\\\.b"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := markdown.Escape(test.input); got != test.want {
				t.Errorf("Escape(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}
