// Package cache implements content addressed insertion cache: it hashes
// resolved style text, compiles every unseen text once and routes emitted
// rules into a rule sink, keeping track of what was inserted.
package cache

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"stylo/css"
	"stylo/sheet"
	"stylo/surface"
	"stylo/utils/debug"
)

// DefaultKey is namespace used when Options.Key is empty.
const DefaultKey = "css"

// ErrEnvironmentMismatch is returned by operations which are only available
// on server (no surface) or browser (surface) instances.
var ErrEnvironmentMismatch = errors.New("operation is not available in this environment")

var keyRe = regexp.MustCompile(`^[a-z][a-z-]*$`)

// Sink receives compiled rules.
type Sink interface {
	// Insert writes single top level rule.
	Insert(rule string)
	// Tag records id of content whose rules were just inserted.
	Tag(id string)
}

// Options configure a Cache.
type Options struct {
	Key       string
	Nonce     string
	Hash      HashFunc
	Prefix    css.PrefixFunc
	Container *surface.Element
	// Speedy selects batched sheet mode, defaults to !Dev.
	Speedy *bool
	// Dev enables validation of style text and sink warnings.
	Dev bool
	// Plugins are applied to compiled output before it is split into rules.
	Plugins []css.Plugin
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type record struct {
	counted bool
	count   int
	shared  bool         // counted on top of present content it does not own
	sheet   *sheet.Sheet // dedicated sheet of counted browser entry
	rules   []string     // captured rules on server
}

// Cache is an insertion cache. Instances never share state and are not
// safe for concurrent use: construct one per independent unit of work.
type Cache struct {
	log      *zap.Logger
	key      string
	nonce    string
	hash     HashFunc
	memo     map[string]string
	compiler *css.Compiler
	plugins  []css.Plugin

	doc       *surface.Document
	sheetOpts sheet.Options
	sheet     *sheet.Sheet

	records map[string]*record
	order   []string
	sink    Sink
	stats   Stats
}

// New creates cache instance. With doc == nil instance works in server mode:
// rules are only recorded and can be extracted, nothing is written. Otherwise
// nodes already present in doc and tagged with the key are adopted and ids
// listed on them are marked as inserted.
func New(doc *surface.Document, opts Options, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	if !keyRe.MatchString(key) {
		return nil, fmt.Errorf("invalid cache key %q, only lower case letters and '-' are allowed", key)
	}

	c := &Cache{
		log:     log.Named("cache").With(zap.String("key", key)),
		key:     key,
		nonce:   opts.Nonce,
		hash:    opts.Hash,
		memo:    make(map[string]string),
		doc:     doc,
		records: make(map[string]*record),
	}
	if c.hash == nil {
		c.hash = DefaultHash
	}

	copts := []css.Option{css.WithPrefix(opts.Prefix), css.WithValidation(opts.Dev)}
	c.compiler = css.NewCompiler(log, copts...)
	c.plugins = append(slices.Clone(opts.Plugins), css.RuleSheet(c.emit))

	if doc == nil {
		c.log.Debug("Server cache created")
		return c, nil
	}

	speedy := !opts.Dev
	if opts.Speedy != nil {
		speedy = *opts.Speedy
	}
	c.sheetOpts = sheet.Options{
		Key:       key,
		Nonce:     opts.Nonce,
		Container: opts.Container,
		Speedy:    speedy,
		Dev:       opts.Dev,
	}
	c.sheet = sheet.New(doc, c.sheetOpts, log)
	c.hydrate()
	return c, nil
}

func (c *Cache) hydrate() {
	nodes := c.doc.StyleNodes(c.key)
	for _, n := range nodes {
		for id := range strings.FieldsSeq(n.Attr(surface.AttrIDs)) {
			if _, ok := c.records[id]; !ok {
				c.records[id] = &record{}
				c.order = append(c.order, id)
			}
		}
	}
	c.sheet.Hydrate(nodes)
	if len(nodes) > 0 {
		c.log.Debug("Rehydrated", zap.Int("nodes", len(nodes)), zap.Int("ids", len(c.records)))
	}
}

// Key returns cache namespace.
func (c *Cache) Key() string {
	return c.key
}

// Nonce returns nonce attached to nodes.
func (c *Cache) Nonce() string {
	return c.nonce
}

// Server reports whether cache has no surface.
func (c *Cache) Server() bool {
	return c.doc == nil
}

// Sheet returns main sheet, nil on server.
func (c *Cache) Sheet() *sheet.Sheet {
	return c.sheet
}

// Stats returns counters snapshot.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Inserted reports whether id is recorded.
func (c *Cache) Inserted(id string) bool {
	_, ok := c.records[id]
	return ok
}

// Insert compiles text under selector into the main sheet unless content
// with id was already inserted.
func (c *Cache) Insert(selector, id, text string) error {
	if _, ok := c.records[id]; ok {
		c.stats.Hits++
		return nil
	}
	c.stats.Misses++

	rec := &record{}
	var sink Sink = c.sheet
	if c.Server() {
		sink = &capture{rec: rec}
	}
	return c.insert(selector, id, text, rec, sink)
}

// Acquire inserts text like Insert but keeps reference count of the content.
// Returned release decrements the count, content is removed when it drops to
// zero. Calling release more times than content was acquired is a no-op.
func (c *Cache) Acquire(selector, id, text string) (func(), error) {
	rec, ok := c.records[id]
	switch {
	case ok:
		c.stats.Hits++
		// present only entries (hydrated or plain) become counted without
		// inserting anything
		if !rec.counted {
			rec.counted, rec.shared = true, true
		}
		rec.count++
	default:
		c.stats.Misses++
		rec = &record{counted: true, count: 1}
		var sink Sink
		if c.Server() {
			sink = &capture{rec: rec}
		} else {
			rec.sheet = sheet.New(c.doc, c.sheetOpts, c.log)
			sink = rec.sheet
		}
		if err := c.insert(selector, id, text, rec, sink); err != nil {
			return func() {}, err
		}
	}
	return func() { c.release(id, rec) }, nil
}

func (c *Cache) release(id string, rec *record) {
	if c.records[id] != rec || rec.count == 0 {
		return
	}
	if rec.count--; rec.count > 0 {
		return
	}
	if rec.shared {
		// rules stay where present content put them
		rec.counted, rec.shared = false, false
		c.log.Debug("Released shared content", zap.String("id", id))
		return
	}
	if rec.sheet != nil {
		rec.sheet.Flush()
	}
	c.remove(id)
	c.stats.Evictions++
	c.log.Debug("Ejected", zap.String("id", id))
}

// insert marks id first so re-entrant insertion of the same content while
// compiling is a no-op.
func (c *Cache) insert(selector, id, text string, rec *record, sink Sink) error {
	c.records[id] = rec
	c.order = append(c.order, id)

	prev := c.sink
	c.sink = sink
	defer func() { c.sink = prev }()

	if _, err := c.compiler.Compile(selector, text, c.plugins...); err != nil {
		c.remove(id)
		return fmt.Errorf("unable to compile %q: %w", selector, err)
	}
	sink.Tag(id)
	return nil
}

func (c *Cache) emit(rule string) {
	if c.sink != nil {
		c.sink.Insert(rule)
	}
}

func (c *Cache) remove(id string) {
	delete(c.records, id)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
}

// Clear resets insertion registry. Surface is left as is, see Flush.
func (c *Cache) Clear() {
	c.records = make(map[string]*record)
	c.order = nil
}

// Flush removes every node written by the cache and resets registry.
func (c *Cache) Flush() error {
	if c.Server() {
		return fmt.Errorf("flush: %w", ErrEnvironmentMismatch)
	}
	for _, rec := range c.records {
		if rec.sheet != nil {
			rec.sheet.Flush()
		}
	}
	c.sheet.Flush()
	c.Clear()
	return nil
}

// IDs returns recorded ids in insertion order.
func (c *Cache) IDs() []string {
	return slices.Clone(c.order)
}

// Extract returns rules of all recorded content in insertion order.
func (c *Cache) Extract() (string, error) {
	if !c.Server() {
		return "", fmt.Errorf("extract: %w", ErrEnvironmentMismatch)
	}
	var sb strings.Builder
	for _, id := range c.order {
		for _, rule := range c.records[id].rules {
			sb.WriteString(rule)
		}
	}
	return sb.String(), nil
}

// ExtractTag returns extracted rules wrapped into single style tag with
// the same attributes browser nodes carry, so the markup can be rehydrated.
func (c *Cache) ExtractTag() (string, error) {
	text, err := c.Extract()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(`<style ` + surface.AttrKey + `="` + html.EscapeString(c.key) + `"`)
	sb.WriteString(` ` + surface.AttrIDs + `="` + html.EscapeString(strings.Join(c.order, " ")) + `"`)
	if c.nonce != "" {
		sb.WriteString(` ` + surface.AttrNonce + `="` + html.EscapeString(c.nonce) + `"`)
	}
	sb.WriteString(">" + text + "</style>")
	return sb.String(), nil
}

const dumpTextLimit = 256

// Dump renders indented view of the registry, long rules are cut.
func (c *Cache) Dump() string {
	tw := debug.NewTreeWriter()
	tw.MaxText = dumpTextLimit
	mode := "browser"
	if c.Server() {
		mode = "server"
	}
	tw.Line(0, "cache %s (%s)", c.key, mode)
	tw.Line(1, "stats: hits=%d misses=%d evictions=%d", c.stats.Hits, c.stats.Misses, c.stats.Evictions)
	for _, id := range c.order {
		rec := c.records[id]
		if rec.counted {
			tw.Line(1, "%s refs=%d", id, rec.count)
		} else {
			tw.Line(1, "%s", id)
		}
		for _, rule := range rec.rules {
			tw.TextBlock(2, "rule", rule)
		}
		if rec.sheet != nil {
			tw.Line(2, "nodes: %d", len(rec.sheet.Nodes()))
		}
	}
	return tw.String()
}

// capture is server sink recording rules of a single record.
type capture struct {
	rec *record
}

func (s *capture) Insert(rule string) {
	s.rec.rules = append(s.rec.rules, rule)
}

func (s *capture) Tag(string) {}
