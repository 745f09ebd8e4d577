// Package sheet implements stylesheet engine: ordered list of capacity
// bounded style nodes rule text is written into.
package sheet

import (
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"stylo/surface"
)

// BatchCapacity is number of rules a node holds in speedy mode.
const BatchCapacity = 65000

// Options configure a Sheet.
type Options struct {
	// Key is written into surface.AttrKey of every node.
	Key string
	// Nonce is written into surface.AttrNonce of every node when not empty.
	Nonce string
	// Container receives nodes, document head when nil.
	Container *surface.Element
	// Speedy inserts rules into live rule lists in large batches, otherwise
	// every rule is appended as text into its own node.
	Speedy bool
	// Dev enables warnings about rejected and misplaced rules.
	Dev bool
}

// Sheet is a rule sink over a surface.Document.
type Sheet struct {
	log       *zap.Logger
	doc       *surface.Document
	key       string
	nonce     string
	container *surface.Element
	speedy    bool
	dev       bool
	capacity  int

	tags []*surface.Element
	ctr  int
}

// New creates sheet writing into doc.
func New(doc *surface.Document, opts Options, log *zap.Logger) *Sheet {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sheet{
		log:       log.Named("sheet"),
		doc:       doc,
		key:       opts.Key,
		nonce:     opts.Nonce,
		container: opts.Container,
		speedy:    opts.Speedy,
		dev:       opts.Dev,
		capacity:  1,
	}
	if s.container == nil {
		s.container = doc.Head()
	}
	if s.speedy {
		s.capacity = BatchCapacity
	}
	return s
}

// Speedy reports sheet mode.
func (s *Sheet) Speedy() bool {
	return s.speedy
}

// Nodes returns managed nodes in creation order.
func (s *Sheet) Nodes() []*surface.Element {
	return slices.Clone(s.tags)
}

// Hydrate adopts nodes rendered earlier. Nodes are moved into container
// after already managed ones, keeping their relative order.
func (s *Sheet) Hydrate(nodes []*surface.Element) {
	for _, n := range nodes {
		s.attach(n)
	}
	if len(nodes) > 0 {
		s.log.Debug("Hydrated style nodes", zap.Int("count", len(nodes)))
	}
}

// Insert writes single rule. Rules rejected by the surface are dropped.
func (s *Sheet) Insert(rule string) {
	if s.ctr%s.capacity == 0 {
		s.attach(s.createNode())
	}
	node := s.tags[len(s.tags)-1]
	isImport := strings.HasPrefix(rule, "@import")

	if s.dev && isImport && s.ctr > 0 && !s.speedy {
		s.log.Warn("@import rule inserted after other rules, it must come before any other rule", zap.String("rule", rule))
	}

	if s.speedy {
		index := node.RuleCount()
		if isImport {
			index = 0
		}
		if _, err := node.InsertRule(rule, index); err != nil {
			var rej *surface.RejectedRuleError
			if s.dev && errors.As(err, &rej) {
				s.log.Warn("Rule rejected by the surface, dropping", zap.String("rule", rule), zap.Error(err))
			}
		}
	} else {
		node.AppendText(rule)
	}
	s.ctr++
}

// Tag records id of inserted content on the newest node.
func (s *Sheet) Tag(id string) {
	if len(s.tags) == 0 || id == "" {
		return
	}
	node := s.tags[len(s.tags)-1]
	ids := strings.Fields(node.Attr(surface.AttrIDs))
	if slices.Contains(ids, id) {
		return
	}
	node.SetAttr(surface.AttrIDs, strings.Join(append(ids, id), " "))
}

// Flush detaches all managed nodes and resets the sheet.
func (s *Sheet) Flush() {
	for _, n := range s.tags {
		n.Detach()
	}
	if len(s.tags) > 0 {
		s.log.Debug("Flushed style nodes", zap.Int("count", len(s.tags)))
	}
	s.tags = nil
	s.ctr = 0
}

func (s *Sheet) createNode() *surface.Element {
	n := s.doc.CreateElement("style")
	n.SetAttr(surface.AttrKey, s.key)
	if s.nonce != "" {
		n.SetAttr(surface.AttrNonce, s.nonce)
	}
	n.SetAttr(surface.AttrIDs, "")
	return n
}

func (s *Sheet) attach(n *surface.Element) {
	if len(s.tags) > 0 {
		if last := s.tags[len(s.tags)-1]; last.Attached() {
			last.InsertAfter(n)
			s.tags = append(s.tags, n)
			return
		}
	}
	s.container.Append(n)
	s.tags = append(s.tags, n)
}
