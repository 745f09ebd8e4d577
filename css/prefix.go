package css

import "strings"

// Properties which still need vendor prefixed variants in some engines.
var propertyPrefixes = map[string][]string{
	"appearance":                 {"-webkit-", "-moz-"},
	"backdrop-filter":            {"-webkit-"},
	"box-decoration-break":       {"-webkit-"},
	"clip-path":                  {"-webkit-"},
	"hyphens":                    {"-webkit-", "-ms-"},
	"mask":                       {"-webkit-"},
	"mask-clip":                  {"-webkit-"},
	"mask-composite":             {"-webkit-"},
	"mask-image":                 {"-webkit-"},
	"mask-origin":                {"-webkit-"},
	"mask-position":              {"-webkit-"},
	"mask-repeat":                {"-webkit-"},
	"mask-size":                  {"-webkit-"},
	"print-color-adjust":         {"-webkit-"},
	"tab-size":                   {"-moz-"},
	"text-decoration-skip":       {"-webkit-"},
	"text-emphasis":              {"-webkit-"},
	"text-size-adjust":           {"-webkit-", "-moz-", "-ms-"},
	"user-select":                {"-webkit-", "-moz-", "-ms-"},
	"text-orientation":           {"-webkit-"},
	"font-feature-settings":      {"-webkit-", "-moz-"},
	"scroll-snap-type":           {"-webkit-", "-ms-"},
	"overscroll-behavior":        {"-ms-"},
	"initial-letter":             {"-webkit-"},
	"text-decoration-skip-ink":   {"-webkit-"},
	"writing-mode":               {"-webkit-", "-ms-"},
	"column-count":               {"-webkit-", "-moz-"},
	"column-gap":                 {"-webkit-", "-moz-"},
	"column-rule":                {"-webkit-", "-moz-"},
	"columns":                    {"-webkit-", "-moz-"},
	"break-inside":               {"-webkit-"},
	"transition-timing-function": {"-webkit-"},
}

// Values which have vendor specific spellings, keyed by property.
var valuePrefixes = map[string]map[string][]string{
	"display": {
		"flex":        {"-webkit-box", "-webkit-flex", "-ms-flexbox"},
		"inline-flex": {"-webkit-inline-box", "-webkit-inline-flex", "-ms-inline-flexbox"},
		"grid":        {"-ms-grid"},
		"inline-grid": {"-ms-inline-grid"},
	},
	"position": {
		"sticky": {"-webkit-sticky"},
	},
}

// Intrinsic size keywords prefixed for any sizing property.
var sizingValues = map[string][]string{
	"fit-content": {"-webkit-fit-content", "-moz-fit-content"},
	"max-content": {"-webkit-max-content", "-moz-max-content"},
	"min-content": {"-webkit-min-content", "-moz-min-content"},
}

// textClipPrefixes apply to background-clip only when clipping to text.
var textClipPrefixes = []string{"-webkit-"}

// Prefix returns vendor prefixed variants of a declaration, empty when the
// declaration needs none. The standard declaration itself is not included.
func Prefix(property, value string) string {
	prop := strings.ToLower(property)
	val := strings.ToLower(value)

	var sb strings.Builder
	if prop == "background-clip" && val == "text" {
		for _, p := range textClipPrefixes {
			sb.WriteString(p + prop + ":" + value + ";")
		}
		return sb.String()
	}
	for _, p := range propertyPrefixes[prop] {
		sb.WriteString(p + prop + ":" + value + ";")
	}
	if values, ok := valuePrefixes[prop]; ok {
		for _, v := range values[val] {
			sb.WriteString(prop + ":" + v + ";")
		}
	}
	if isSizing(prop) {
		for _, v := range sizingValues[val] {
			sb.WriteString(prop + ":" + v + ";")
		}
	}
	return sb.String()
}

func isSizing(prop string) bool {
	switch prop {
	case "width", "min-width", "max-width", "height", "min-height", "max-height",
		"inline-size", "block-size", "flex-basis":
		return true
	}
	return false
}
