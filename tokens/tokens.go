// Package tokens turns token trees into custom property declarations and
// mirrored trees of var() references.
package tokens

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stylo/css"
	"stylo/object"
)

// Name returns custom property name for a path of keys:
// ("colors", "primaryBlue") -> "--colors-primary-blue".
func Name(path ...string) string {
	lower := cases.Lower(language.Und)
	parts := make([]string, 0, len(path))
	for _, key := range path {
		key = strings.Join(strings.Fields(key), "-")
		seg := strings.Trim(css.Hyphenate(key), "-")
		if seg != "" {
			parts = append(parts, lower.String(seg))
		}
	}
	return "--" + strings.Join(parts, "-")
}

// Var returns var() reference to the custom property of path.
func Var(path ...string) string {
	return "var(" + Name(path...) + ")"
}

// Serialize walks tree emitting declaration for every leaf and returns
// declarations together with tree of the same shape holding var()
// references in place of leaf values.
func Serialize(tree *object.Map) (string, *object.Map) {
	var sb strings.Builder
	vars := walk(tree, nil, &sb)
	return sb.String(), vars
}

func walk(tree *object.Map, path []string, sb *strings.Builder) *object.Map {
	out := object.New()
	tree.Each(func(key string, value any) {
		p := append(slices.Clip(path), key)
		switch v := value.(type) {
		case *object.Map:
			out.Set(key, walk(v, p, sb))
		case nil:
		default:
			name := Name(p...)
			sb.WriteString(name + ":" + Value(v) + ";")
			out.Set(key, "var("+name+")")
		}
	})
	return out
}

// Value formats leaf value as declaration value. Lists are space separated.
func Value(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Value(item))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(v)
	}
}

// Merge merges src into copy of dst: nested maps merge key by key, any other
// value from src overwrites. Neither argument is modified.
func Merge(dst, src *object.Map) *object.Map {
	out := dst.Clone()
	src.Each(func(key string, value any) {
		sv, ok := value.(*object.Map)
		if !ok {
			if list, isList := value.([]any); isList {
				value = slices.Clone(list)
			}
			out.Set(key, value)
			return
		}
		if dv, ok := out.Sub(key); ok {
			out.Set(key, Merge(dv, sv))
			return
		}
		out.Set(key, sv.Clone())
	})
	return out
}
