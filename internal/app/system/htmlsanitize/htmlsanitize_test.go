package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/giftmatch/internal/app/system/htmlsanitize"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Mary Claire", "Mary Claire"},
		{"  Mary Claire  ", "Mary Claire"},
		{"O'Brien", "O'Brien"},
		{"<b>Mary</b> Claire", "Mary Claire"},
		{"Mary<script>alert('xss')</script>", "Mary"},
		{`<a href="javascript:alert(1)">Mary</a>`, "Mary"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := htmlsanitize.StripTags(tt.in)
			if got != tt.want {
				t.Errorf("StripTags(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
