package descriptor

import "strings"

// Unitless lists properties whose numeric values are never suffixed with
// a unit.
var Unitless = map[string]bool{
	"animation-iteration-count": true,
	"aspect-ratio":              true,
	"border-image-outset":       true,
	"border-image-slice":        true,
	"border-image-width":        true,
	"box-flex":                  true,
	"box-flex-group":            true,
	"box-ordinal-group":         true,
	"column-count":              true,
	"columns":                   true,
	"flex":                      true,
	"flex-grow":                 true,
	"flex-positive":             true,
	"flex-shrink":               true,
	"flex-negative":             true,
	"flex-order":                true,
	"font-weight":               true,
	"grid-area":                 true,
	"grid-row":                  true,
	"grid-row-end":              true,
	"grid-row-span":             true,
	"grid-row-start":            true,
	"grid-column":               true,
	"grid-column-end":           true,
	"grid-column-span":          true,
	"grid-column-start":         true,
	"line-clamp":                true,
	"line-height":               true,
	"opacity":                   true,
	"order":                     true,
	"orphans":                   true,
	"scale":                     true,
	"tab-size":                  true,
	"widows":                    true,
	"z-index":                   true,
	"zoom":                      true,
	// svg
	"fill-opacity":      true,
	"flood-opacity":     true,
	"stop-opacity":      true,
	"stroke-dasharray":  true,
	"stroke-dashoffset": true,
	"stroke-miterlimit": true,
	"stroke-opacity":    true,
	"stroke-width":      true,
}

var vendorPrefixes = []string{"-webkit-", "-moz-", "-ms-", "-o-"}

// IsUnitless reports whether property (hyphenated, possibly vendor
// prefixed) takes plain numbers.
func IsUnitless(prop string) bool {
	for _, p := range vendorPrefixes {
		if rest, ok := strings.CutPrefix(prop, p); ok {
			prop = rest
			break
		}
	}
	return Unitless[prop]
}
