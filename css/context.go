// Package css compiles nested style text into flat rule text and reports
// rules that must be inserted on their own through plugin hooks.
package css

import "fmt"

// Context identifies which construct a plugin is looking at.
type Context int

const (
	// ContextProperty is a single declaration ("color:red;") or a statement
	// at-rule ("@import url(a.css);").
	ContextProperty Context = iota + 1
	// ContextSelector is a complete flat rule ("a:hover{color:red;}").
	ContextSelector
	// ContextAtRule is a complete block at-rule ("@media print{...}").
	ContextAtRule
	// ContextFinalize is the whole compiled output of a single Compile call.
	ContextFinalize
)

func (c Context) String() string {
	switch c {
	case ContextProperty:
		return "property"
	case ContextSelector:
		return "selector"
	case ContextAtRule:
		return "at-rule"
	case ContextFinalize:
		return "finalize"
	default:
		return fmt.Sprintf("context(%d)", int(c))
	}
}

// Element is a compiled construct handed to plugins.
type Element struct {
	Context Context
	// Value is the compiled text of the construct, including its block.
	Value string
	// Selectors are resolved selectors for ContextSelector and the at-rule
	// prelude for ContextAtRule.
	Selectors []string
	// AtRule is lower case at-rule name without '@' ("media", "font-face",
	// "import"). Empty for plain rules and declarations.
	AtRule string
	// Depth is number of enclosing at-rules, 0 means outermost.
	Depth int
}

// Plugin may replace compiled text of an element. Returning false keeps the
// element unchanged.
type Plugin func(el Element) (string, bool)
