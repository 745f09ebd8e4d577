package css_test

import (
	"errors"
	"slices"
	"testing"

	"stylo/css"
)

func TestSplitRules(t *testing.T) {
	got := css.SplitRules("@import url(a.css);\n.a{x:y}/* c */ @media p{.b{z:w}} .c{")
	want := []string{"@import url(a.css);", ".a{x:y}", "@media p{.b{z:w}}", ".c{"}
	if !slices.Equal(got, want) {
		t.Errorf("SplitRules() = %q, want %q", got, want)
	}
	if got := css.SplitRules("  "); len(got) != 0 {
		t.Errorf("SplitRules() of blank text = %q", got)
	}
}

func TestValidateRule(t *testing.T) {
	tests := []struct {
		rule string
		ok   bool
	}{
		{".a{color:red;}", true},
		{"@media print{.a{color:red;}}", true},
		{"@import url(a.css);", true},
		{"@font-face{font-family:x;}", true},
		{"", false},
		{"{color:red}", false},
		{"color:red", false},
		{".a{color:red", false},
		{".a{color:red}}", false},
		{".a{}.b{}", false},
		{"@import url(a.css)", false},
	}
	for _, tt := range tests {
		err := css.ValidateRule(tt.rule)
		if tt.ok && err != nil {
			t.Errorf("ValidateRule(%q) error = %v", tt.rule, err)
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("ValidateRule(%q) expected error", tt.rule)
			} else if !errors.Is(err, css.ErrMalformedRule) {
				t.Errorf("ValidateRule(%q) error %v does not wrap ErrMalformedRule", tt.rule, err)
			}
		}
	}
}

func TestHyphenate(t *testing.T) {
	tests := map[string]string{
		"color":            "color",
		"fontSize":         "font-size",
		"borderTopWidth":   "border-top-width",
		"WebkitTransition": "-webkit-transition",
		"msFlex":           "-ms-flex",
		"--myVar":          "--myVar",
		"line-height":      "line-height",
	}
	for in, want := range tests {
		if got := css.Hyphenate(in); got != want {
			t.Errorf("Hyphenate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrefix(t *testing.T) {
	tests := []struct {
		prop, value, want string
	}{
		{"color", "red", ""},
		{"position", "sticky", "position:-webkit-sticky;"},
		{"width", "fit-content", "width:-webkit-fit-content;width:-moz-fit-content;"},
		{"background-clip", "text", "-webkit-background-clip:text;"},
		{"background-clip", "border-box", ""},
		{"background-clip:text", "text", ""},
		{"backdrop-filter", "blur(2px)", "-webkit-backdrop-filter:blur(2px);"},
	}
	for _, tt := range tests {
		if got := css.Prefix(tt.prop, tt.value); got != tt.want {
			t.Errorf("Prefix(%q, %q) = %q, want %q", tt.prop, tt.value, got, tt.want)
		}
	}
}
