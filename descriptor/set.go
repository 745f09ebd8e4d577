package descriptor

import (
	"slices"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"stylo/object"
)

// DefaultName is the entry always included into a selection.
const DefaultName = "default"

// Definition maps style names to values.
type Definition map[string]Value

// Set is a compiled Definition. Literal and object values are converted to
// text once, callbacks are kept and invoked on every selection.
type Set struct {
	text      map[string]string
	callbacks map[string]Callback
}

// Compile prepares definition for selections.
func Compile(def Definition) *Set {
	s := &Set{
		text:      make(map[string]string, len(def)),
		callbacks: make(map[string]Callback),
	}
	for name, v := range def {
		switch v := v.(type) {
		case Callback:
			if v != nil {
				s.callbacks[name] = v
			}
		case nil:
		default:
			s.text[name] = Text(v, nil)
		}
	}
	return s
}

// Names returns defined names in natural order ("size2" before "size10").
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.text)+len(s.callbacks))
	for name := range s.text {
		names = append(names, name)
	}
	for name := range s.callbacks {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

// Has reports whether name is defined.
func (s *Set) Has(name string) bool {
	if _, ok := s.text[name]; ok {
		return true
	}
	_, ok := s.callbacks[name]
	return ok
}

// Lookup returns text of a single name, empty for unknown names.
func (s *Set) Lookup(name string, vars *object.Map) string {
	if text, ok := s.text[name]; ok {
		return text
	}
	if cb, ok := s.callbacks[name]; ok {
		return Text(cb, vars)
	}
	return ""
}

// Resolve concatenates text of the default entry followed by selected items
// in order. Item is a name (string), map of names to flags (selected names
// are taken in ascending order) or anything falsy which is skipped. Explicit
// "default" is never repeated.
func (s *Set) Resolve(vars *object.Map, items ...any) string {
	var sb strings.Builder
	sb.WriteString(s.Lookup(DefaultName, vars))

	add := func(name string) {
		if name != DefaultName {
			sb.WriteString(s.Lookup(name, vars))
		}
	}
	for _, item := range items {
		switch v := item.(type) {
		case string:
			add(v)
		case map[string]bool:
			keys := make([]string, 0, len(v))
			for name, on := range v {
				if on {
					keys = append(keys, name)
				}
			}
			slices.Sort(keys)
			for _, name := range keys {
				add(name)
			}
		}
	}
	return sb.String()
}
