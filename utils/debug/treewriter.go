// Package debug renders indented text trees for engine state dumps.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter accumulates indented lines, two spaces per level.
type TreeWriter struct {
	w *strings.Builder
	// MaxText limits quoted values, longer ones are cut and marked with
	// their full length. Zero means no limit.
	MaxText int
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes "label: value" with value quoted.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(tw.encodeText(value))
	tw.w.WriteByte('\n')
}

// List writes header with item count followed by indexed quoted items one
// level deeper. Nothing is written for empty header.
func (tw *TreeWriter) List(depth int, header string, items []string) {
	if header != "" {
		tw.Line(depth, "%s: %d", header, len(items))
		depth++
	}
	for i, item := range items {
		tw.TextBlock(depth, "["+strconv.Itoa(i)+"]", item)
	}
}

func (tw *TreeWriter) encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	if tw.MaxText > 0 && len(raw) > tw.MaxText {
		return strconv.Quote(raw[:tw.MaxText]) + fmt.Sprintf("... (%d bytes)", len(raw))
	}
	return strconv.Quote(raw)
}
