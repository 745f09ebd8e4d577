package build

import (
	"context"
	"fmt"
	"sort"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"stylo/descriptor"
	"stylo/object"
	"stylo/styles"
)

// Manifest maps source names to generated class and animation names.
type Manifest struct {
	Key       string                       `yaml:"key"`
	File      string                       `yaml:"file,omitempty"`
	Themes    map[string]string            `yaml:"themes,omitempty"`
	Keyframes map[string]string            `yaml:"keyframes,omitempty"`
	Styles    map[string]map[string]string `yaml:"styles,omitempty"`
}

// Render registers everything source defines with the instance in the order
// tokens, themes, globals, keyframes, styles. Each style group records class
// for its default style and for every other style combined with default.
func Render(ctx context.Context, in *styles.Instance, src *Source, log *zap.Logger) (*Manifest, error) {
	if log == nil {
		log = zap.NewNop()
	}

	m := &Manifest{
		Key:       in.Cache().Key(),
		Themes:    make(map[string]string),
		Keyframes: make(map[string]string),
		Styles:    make(map[string]map[string]string),
	}

	if src.Tokens != nil {
		if _, err := in.Tokens(src.Tokens); err != nil {
			return nil, fmt.Errorf("unable to register tokens: %w", err)
		}
	}

	names := make([]string, 0, len(src.Themes))
	for name := range src.Themes {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	for _, name := range names {
		class, _, err := in.Theme(name, src.Themes[name])
		if err != nil {
			return nil, fmt.Errorf("unable to register theme %q: %w", name, err)
		}
		if class != "" {
			m.Themes[name] = class
		}
	}

	for i, g := range src.Globals {
		if _, err := in.Global(descriptor.Object{Map: g}); err != nil {
			return nil, fmt.Errorf("unable to register global rules #%d: %w", i, err)
		}
	}

	if err := eachValue(src.Keyframes, func(name string, v descriptor.Value) error {
		anim, _, err := in.Keyframes(v)
		if err != nil {
			return err
		}
		if anim != "" {
			m.Keyframes[name] = anim
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("unable to register keyframes: %w", err)
	}

	var groupErr error
	src.Styles.Each(func(group string, value any) {
		if groupErr != nil {
			return
		}
		if err := ctx.Err(); err != nil {
			groupErr = err
			return
		}
		classes, err := renderGroup(in, value)
		if err != nil {
			groupErr = fmt.Errorf("unable to render style group %q: %w", group, err)
			return
		}
		m.Styles[group] = classes
		log.Debug("Style group rendered", zap.String("group", group), zap.Int("classes", len(classes)))
	})
	if groupErr != nil {
		return nil, groupErr
	}
	return m, nil
}

func renderGroup(in *styles.Instance, value any) (map[string]string, error) {
	def, ok := value.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("unexpected %T, expecting map of styles", value)
	}

	d := make(descriptor.Definition, def.Len())
	if err := eachValue(def, func(name string, v descriptor.Value) error {
		d[name] = v
		return nil
	}); err != nil {
		return nil, err
	}

	group := in.Create(d)
	classes := make(map[string]string)
	for _, name := range group.Names() {
		var (
			class string
			err   error
		)
		if name == descriptor.DefaultName {
			class, err = group.Class()
		} else {
			class, err = group.Class(name)
		}
		if err != nil {
			return nil, fmt.Errorf("style %q: %w", name, err)
		}
		if class != "" {
			classes[name] = class
		}
	}
	return classes, nil
}

// eachValue walks map converting entries into style values, stops on first
// error.
func eachValue(m *object.Map, fn func(name string, v descriptor.Value) error) error {
	var err error
	m.Each(func(key string, value any) {
		if err != nil {
			return
		}
		var v descriptor.Value
		if v, err = toValue(value); err != nil {
			err = fmt.Errorf("%q: %w", key, err)
			return
		}
		if err = fn(key, v); err != nil {
			err = fmt.Errorf("%q: %w", key, err)
		}
	})
	return err
}
