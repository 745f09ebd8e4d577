// Package object provides ordered string keyed trees. Style objects and
// token trees are built from them so that declaration order survives from
// definition to generated rule text.
package object

import (
	"fmt"
	"slices"

	"github.com/elliotchance/orderedmap/v3"
	yaml "gopkg.in/yaml.v3"
)

// Map is an insertion ordered tree node. Values are scalars (string, bool,
// any numeric type), slices of scalars or nested *Map.
type Map struct {
	om *orderedmap.OrderedMap[string, any]
}

// New builds a map from alternating key/value pairs:
//
//	object.New("display", "flex", "&:hover", object.New("color", "red"))
//
// Plain Go maps given as values are converted with their keys sorted, since
// they carry no order of their own.
func New(pairs ...any) *Map {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("object.New: odd number of arguments (%d)", len(pairs)))
	}
	m := &Map{om: orderedmap.NewOrderedMap[string, any]()}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("object.New: key at position %d is %T, not string", i, pairs[i]))
		}
		m.Set(key, pairs[i+1])
	}
	return m
}

func (m *Map) init() {
	if m.om == nil {
		m.om = orderedmap.NewOrderedMap[string, any]()
	}
}

// Set stores value under key keeping the original position when the key is
// already present. It returns m to allow chaining.
func (m *Map) Set(key string, value any) *Map {
	m.init()
	if gm, ok := value.(map[string]any); ok {
		value = fromGoMap(gm)
	}
	m.om.Set(key, value)
	return m
}

// Get returns value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil || m.om == nil {
		return nil, false
	}
	return m.om.Get(key)
}

// Sub returns nested map stored under key.
func (m *Map) Sub(key string) (*Map, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Map)
	return sub, ok
}

// Lookup walks the path of keys through nested maps.
func (m *Map) Lookup(path ...string) (any, bool) {
	var cur any = m
	for _, key := range path {
		node, ok := cur.(*Map)
		if !ok {
			return nil, false
		}
		if cur, ok = node.Get(key); !ok {
			return nil, false
		}
	}
	return cur, true
}

// Delete removes key, reporting whether it was present.
func (m *Map) Delete(key string) bool {
	if m == nil || m.om == nil {
		return false
	}
	return m.om.Delete(key)
}

// Len returns number of keys at this level.
func (m *Map) Len() int {
	if m == nil || m.om == nil {
		return 0
	}
	return m.om.Len()
}

// Keys returns keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.Len())
	m.Each(func(key string, _ any) {
		keys = append(keys, key)
	})
	return keys
}

// Each calls fn for every entry in insertion order.
func (m *Map) Each(fn func(key string, value any)) {
	if m == nil || m.om == nil {
		return
	}
	for el := m.om.Front(); el != nil; el = el.Next() {
		fn(el.Key, el.Value)
	}
}

// Clone returns deep copy of the tree. Slices are copied, scalars shared.
func (m *Map) Clone() *Map {
	out := New()
	m.Each(func(key string, value any) {
		switch v := value.(type) {
		case *Map:
			out.Set(key, v.Clone())
		case []any:
			out.Set(key, slices.Clone(v))
		default:
			out.Set(key, v)
		}
	})
	return out
}

func fromGoMap(gm map[string]any) *Map {
	keys := make([]string, 0, len(gm))
	for k := range gm {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := New()
	for _, k := range keys {
		out.Set(k, gm[k])
	}
	return out
}

// UnmarshalYAML decodes a mapping node keeping key order.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected mapping, got %s", node.Line, kindName(node.Kind))
	}
	m.init()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value, err := decodeNode(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		m.om.Set(key, value)
	}
	return nil
}

func decodeNode(node *yaml.Node) (any, error) {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	switch node.Kind {
	case yaml.MappingNode:
		sub := New()
		if err := sub.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return sub, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := decodeNode(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return v, nil
	}
}

// MarshalYAML encodes the tree as an ordered mapping node.
func (m *Map) MarshalYAML() (any, error) {
	return m.node()
}

func (m *Map) node() (*yaml.Node, error) {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	var err error
	m.Each(func(key string, value any) {
		if err != nil {
			return
		}
		var vn *yaml.Node
		if sub, ok := value.(*Map); ok {
			vn, err = sub.node()
		} else {
			vn = &yaml.Node{}
			err = vn.Encode(value)
		}
		if err != nil {
			err = fmt.Errorf("key %q: %w", key, err)
			return
		}
		out.Content = append(out.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, vn)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
