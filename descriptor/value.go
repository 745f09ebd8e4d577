// Package descriptor compiles style definitions: named style values which
// are literal text, style objects or callbacks over the token tree, and
// resolves selections of names into rule text.
package descriptor

import (
	"strconv"
	"strings"

	"stylo/css"
	"stylo/object"
)

// Value is one of Literal, Object or Callback.
type Value interface {
	value()
}

// Literal is declaration text used verbatim.
type Literal string

// Object is a style object: leaves are declarations, nested maps are nested
// rules under their key.
type Object struct {
	Map *object.Map
}

// Callback produces value from the current token tree of var() references.
// It is invoked every time selection references it.
type Callback func(vars *object.Map) Value

func (Literal) value()  {}
func (Object) value()   {}
func (Callback) value() {}

// Obj is a shortcut for Object{Map: object.New(pairs...)}.
func Obj(pairs ...any) Object {
	return Object{Map: object.New(pairs...)}
}

// Text resolves value into declaration text.
func Text(v Value, vars *object.Map) string {
	switch v := v.(type) {
	case Literal:
		return string(v)
	case Object:
		return Stringify(v.Map)
	case Callback:
		if v == nil {
			return ""
		}
		return Text(v(vars), vars)
	default:
		return ""
	}
}

// Stringify converts style object to declaration text. Numeric values get
// "px" unless the value is zero, property is unitless or a custom property.
// Lists repeat the declaration for each item, nil and boolean values are
// skipped.
func Stringify(m *object.Map) string {
	var sb strings.Builder
	m.Each(func(key string, value any) {
		switch v := value.(type) {
		case *object.Map:
			sb.WriteString(key + "{" + Stringify(v) + "}")
		case []any:
			prop := css.Hyphenate(key)
			for _, item := range v {
				if s, ok := scalar(prop, item); ok {
					sb.WriteString(prop + ":" + s + ";")
				}
			}
		default:
			prop := css.Hyphenate(key)
			if s, ok := scalar(prop, v); ok {
				sb.WriteString(prop + ":" + s + ";")
			}
		}
	})
	return sb.String()
}

func scalar(prop string, v any) (string, bool) {
	var (
		num  string
		zero bool
	)
	switch v := v.(type) {
	case nil, bool:
		return "", false
	case string:
		return v, true
	case Literal:
		return string(v), true
	case int:
		num, zero = strconv.Itoa(v), v == 0
	case int8:
		num, zero = strconv.FormatInt(int64(v), 10), v == 0
	case int16:
		num, zero = strconv.FormatInt(int64(v), 10), v == 0
	case int32:
		num, zero = strconv.FormatInt(int64(v), 10), v == 0
	case int64:
		num, zero = strconv.FormatInt(v, 10), v == 0
	case uint:
		num, zero = strconv.FormatUint(uint64(v), 10), v == 0
	case uint8:
		num, zero = strconv.FormatUint(uint64(v), 10), v == 0
	case uint16:
		num, zero = strconv.FormatUint(uint64(v), 10), v == 0
	case uint32:
		num, zero = strconv.FormatUint(uint64(v), 10), v == 0
	case uint64:
		num, zero = strconv.FormatUint(v, 10), v == 0
	case float32:
		num, zero = strconv.FormatFloat(float64(v), 'f', -1, 32), v == 0
	case float64:
		num, zero = strconv.FormatFloat(v, 'f', -1, 64), v == 0
	default:
		return "", false
	}
	if zero || css.IsCustomProperty(prop) || IsUnitless(prop) {
		return num, true
	}
	return num + "px", true
}
