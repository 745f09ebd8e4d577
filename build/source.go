// Package build renders YAML stylesheet definitions into static CSS and class
// manifests.
package build

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	yaml "gopkg.in/yaml.v3"

	"stylo/descriptor"
	"stylo/object"
)

// Source is stylesheet definition. Style values are either strings of
// declaration text or style objects, nested objects are nested rules.
//
//	tokens:
//	  colors: { fg: "#000" }
//	themes:
//	  dark: { colors: { fg: "#fff" } }
//	globals:
//	  - body: { margin: 0 }
//	keyframes:
//	  spin: { from: { transform: rotate(0deg) }, to: { transform: rotate(360deg) } }
//	styles:
//	  button:
//	    default: { display: inline-flex, padding: 4 }
//	    primary: { color: var(--colors-fg) }
type Source struct {
	Tokens    *object.Map            `yaml:"tokens,omitempty"`
	Themes    map[string]*object.Map `yaml:"themes,omitempty"`
	Globals   []*object.Map          `yaml:"globals,omitempty"`
	Keyframes *object.Map            `yaml:"keyframes,omitempty"`
	Styles    *object.Map            `yaml:"styles,omitempty"`
}

// Load reads source definition from file.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read source: %w", err)
	}
	src, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse source (%s): %w", path, err)
	}
	return src, nil
}

// Parse decodes source definition. Unknown top level fields are rejected.
func Parse(data []byte) (*Source, error) {
	src := &Source{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(src); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return src, nil
}

// toValue converts decoded YAML value into style value.
func toValue(v any) (descriptor.Value, error) {
	switch v := v.(type) {
	case nil:
		return descriptor.Literal(""), nil
	case string:
		return descriptor.Literal(v), nil
	case *object.Map:
		return descriptor.Object{Map: v}, nil
	default:
		return nil, fmt.Errorf("unexpected %T, expecting declaration text or style object", v)
	}
}
