package debug

import (
	"testing"
)

func TestTreeWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{"no depth", 0, "cache", nil, "cache\n"},
		{"depth 1", 1, "stats", nil, "  stats\n"},
		{"depth 2", 2, "nodes: %d", []any{3}, "    nodes: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tests := []struct {
		name  string
		max   int
		label string
		value string
		want  string
	}{
		{"quoted", 0, "rule", `.a{content:"x";}`, `rule: ".a{content:\"x\";}"` + "\n"},
		{"empty", 0, "nonce", "", "nonce: \n"},
		{"cut", 4, "rule", ".abcdef{}", `rule: ".abc"... (9 bytes)` + "\n"},
		{"short enough", 20, "rule", ".a{}", `rule: ".a{}"` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.MaxText = tt.max
			tw.TextBlock(0, tt.label, tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("TextBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_List(t *testing.T) {
	tw := NewTreeWriter()
	tw.List(1, "rules", []string{".a{}", ".b{}"})
	tw.List(0, "", []string{"x"})
	tw.List(0, "ids", nil)

	want := "  rules: 2\n" +
		"    [0]: \".a{}\"\n" +
		"    [1]: \".b{}\"\n" +
		"[0]: \"x\"\n" +
		"ids: 0\n"
	if got := tw.String(); got != want {
		t.Errorf("List() output:\n%s\nwant:\n%s", got, want)
	}
}
