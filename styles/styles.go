// Package styles is the public style creation API: style groups, one-off
// styles, lazy styles, keyframes, globals, tokens and themes over an
// insertion cache.
package styles

import (
	"fmt"
	"sort"
	"sync"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"stylo/cache"
	"stylo/css"
	"stylo/descriptor"
	"stylo/object"
	"stylo/surface"
	"stylo/tokens"
)

// Options configure an Instance.
type Options struct {
	Key   string
	Nonce string
	Hash  cache.HashFunc
	// Prefix controls vendor prefixing, nil disables it.
	Prefix css.PrefixFunc
	// Document is the render surface, nil makes a server instance.
	Document  *surface.Document
	Container *surface.Element
	Speedy    *bool
	Dev       bool
	Plugins   []css.Plugin
	// Tokens are registered at creation.
	Tokens *object.Map
	// Themes are registered at creation in natural name order.
	Themes map[string]*object.Map
}

// Instance composes cache, style compilation and token state. It is not safe
// for concurrent use.
type Instance struct {
	log    *zap.Logger
	cache  *cache.Cache
	values *object.Map
	vars   *object.Map
	themes map[string]string
}

// New creates a new instance.
func New(opts Options, log *zap.Logger) (*Instance, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c, err := cache.New(opts.Document, cache.Options{
		Key:       opts.Key,
		Nonce:     opts.Nonce,
		Hash:      opts.Hash,
		Prefix:    opts.Prefix,
		Container: opts.Container,
		Speedy:    opts.Speedy,
		Dev:       opts.Dev,
		Plugins:   opts.Plugins,
	}, log)
	if err != nil {
		return nil, err
	}

	in := &Instance{
		log:    log.Named("styles"),
		cache:  c,
		values: object.New(),
		vars:   object.New(),
		themes: make(map[string]string),
	}
	if opts.Tokens != nil {
		if _, err := in.Tokens(opts.Tokens); err != nil {
			return nil, fmt.Errorf("unable to register tokens: %w", err)
		}
	}
	names := make([]string, 0, len(opts.Themes))
	for name := range opts.Themes {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	for _, name := range names {
		if _, _, err := in.Theme(name, opts.Themes[name]); err != nil {
			return nil, fmt.Errorf("unable to register theme %q: %w", name, err)
		}
	}
	return in, nil
}

// Default returns process wide instance with default options: a server
// instance keyed "css". Independent work should construct its own instance.
var Default = sync.OnceValue(func() *Instance {
	in, err := New(Options{}, nil)
	if err != nil {
		panic(fmt.Sprintf("unable to create default style instance: %v", err))
	}
	return in
})

// Cache returns underlying insertion cache.
func (in *Instance) Cache() *cache.Cache {
	return in.cache
}

// Vars returns token tree of var() references.
func (in *Instance) Vars() *object.Map {
	return in.vars
}

// Values returns token tree of current values.
func (in *Instance) Values() *object.Map {
	return in.values
}

// Group is a compiled style definition bound to an instance.
type Group struct {
	in  *Instance
	set *descriptor.Set
}

// Create compiles definition. Literal and object values are resolved now,
// callbacks on every selection.
func (in *Instance) Create(def descriptor.Definition) *Group {
	return &Group{in: in, set: descriptor.Compile(def)}
}

// Class resolves selection (names, maps of names to flags, falsy values are
// skipped) into class name, inserting its rules once. Selection resolving to
// nothing returns empty class.
func (g *Group) Class(items ...any) (string, error) {
	return g.in.class(g.set.Resolve(g.in.vars, items...))
}

// Names returns style names of the group in natural order.
func (g *Group) Names() []string {
	return g.set.Names()
}

// CSS resolves one-off values into class name.
func (in *Instance) CSS(values ...descriptor.Value) (string, error) {
	var text string
	for _, v := range values {
		text += descriptor.Text(v, in.vars)
	}
	return in.class(text)
}

func (in *Instance) class(text string) (string, error) {
	if text == "" {
		return "", nil
	}
	id := in.cache.Hash(text)
	name := in.cache.Key() + "-" + id
	if err := in.cache.Insert("."+name, id, text); err != nil {
		return "", err
	}
	return name, nil
}

// Keyframes registers keyframes body ("from{...}to{...}") and returns
// animation name. Release ejects the rule once every acquirer released it.
func (in *Instance) Keyframes(v descriptor.Value) (string, func(), error) {
	text := descriptor.Text(v, in.vars)
	if text == "" {
		return "", func() {}, nil
	}
	id := in.cache.Hash("@keyframes" + text)
	name := in.cache.Key() + "-" + id
	release, err := in.cache.Acquire("", id, "@keyframes "+name+"{"+text+"}")
	if err != nil {
		return "", release, err
	}
	return name, release, nil
}

// Global registers unscoped rules ("body{margin:0}").
func (in *Instance) Global(v descriptor.Value) (func(), error) {
	text := descriptor.Text(v, in.vars)
	if text == "" {
		return func() {}, nil
	}
	return in.cache.Acquire("", in.cache.Hash("@global"+text), text)
}

// Tokens registers token tree as custom properties on :root and merges it
// into the ambient token state.
func (in *Instance) Tokens(tree *object.Map) (func(), error) {
	decls, vars := tokens.Serialize(tree)
	in.merge(tree, vars)
	if decls == "" {
		return func() {}, nil
	}
	text := ":root{" + decls + "}"
	return in.cache.Acquire("", in.cache.Hash("@tokens"+text), text)
}

// Theme registers token tree scoped under a theme class and merges values
// into the ambient token state, so callbacks resolved afterwards see them.
func (in *Instance) Theme(name string, tree *object.Map) (string, func(), error) {
	decls, vars := tokens.Serialize(tree)
	in.merge(tree, vars)
	if decls == "" {
		return "", func() {}, nil
	}
	id := in.cache.Hash("@theme" + decls)
	class := in.cache.Key() + "-" + id
	release, err := in.cache.Acquire("."+class, id, decls)
	if err != nil {
		return "", release, err
	}
	in.themes[name] = class
	in.log.Debug("Theme registered", zap.String("name", name), zap.String("class", class))
	return class, release, nil
}

// ThemeClass returns class of registered theme.
func (in *Instance) ThemeClass(name string) (string, bool) {
	class, ok := in.themes[name]
	return class, ok
}

func (in *Instance) merge(values, vars *object.Map) {
	in.values = tokens.Merge(in.values, values)
	in.vars = tokens.Merge(in.vars, vars)
}

// Extract returns CSS text of everything inserted, server only.
func (in *Instance) Extract() (string, error) {
	return in.cache.Extract()
}

// ExtractTag returns extracted CSS as style tag, server only.
func (in *Instance) ExtractTag() (string, error) {
	return in.cache.ExtractTag()
}

// Clear resets insertion registry, usually between server requests.
func (in *Instance) Clear() {
	in.cache.Clear()
}

// Flush removes all written nodes and resets registry, browser only. Token
// state and theme registry are kept.
func (in *Instance) Flush() error {
	return in.cache.Flush()
}

// Lazy produces styles from an argument, memoizing resolved text per
// argument value.
type Lazy[T comparable] struct {
	in   *Instance
	fn   func(arg T) descriptor.Value
	memo map[T]string
}

// NewLazy creates lazy style over fn.
func NewLazy[T comparable](in *Instance, fn func(arg T) descriptor.Value) *Lazy[T] {
	return &Lazy[T]{in: in, fn: fn, memo: make(map[T]string)}
}

// Class returns class name for arg.
func (l *Lazy[T]) Class(arg T) (string, error) {
	text, ok := l.memo[arg]
	if !ok {
		text = descriptor.Text(l.fn(arg), l.in.vars)
		l.memo[arg] = text
	}
	return l.in.class(text)
}
