// Package surface models render surface style engine writes into: a DOM
// document with <style> nodes, their tagging attributes and live rule lists.
package surface

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"stylo/utils/debug"
)

// Attributes used to tag style nodes.
const (
	AttrKey   = "data-css"
	AttrIDs   = "data-css-ids"
	AttrNonce = "nonce"
)

// Document is a render surface. It is not safe for concurrent use.
type Document struct {
	doc   *etree.Document
	head  *etree.Element
	body  *etree.Element
	nodes map[*etree.Element]*Element
}

// New creates an empty document with head and body.
func New() *Document {
	doc := etree.NewDocument()
	html := doc.CreateElement("html")
	d := &Document{
		doc:   doc,
		head:  html.CreateElement("head"),
		body:  html.CreateElement("body"),
		nodes: make(map[*etree.Element]*Element),
	}
	return d
}

// Parse creates document from previously rendered markup. Markup which is
// not a complete html document is placed into body.
func Parse(markup string) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(markup); err != nil || doc.Root() == nil || doc.Root().Tag != "html" {
		doc = etree.NewDocument()
		if err := doc.ReadFromString("<html><body>" + markup + "</body></html>"); err != nil {
			return nil, fmt.Errorf("unable to parse markup: %w", err)
		}
	}

	html := doc.Root()
	d := &Document{doc: doc, nodes: make(map[*etree.Element]*Element)}
	if d.head = html.SelectElement("head"); d.head == nil {
		d.head = etree.NewElement("head")
		html.InsertChildAt(0, d.head)
	}
	if d.body = html.SelectElement("body"); d.body == nil {
		d.body = html.CreateElement("body")
	}
	return d, nil
}

// Head returns document head, default container for style nodes.
func (d *Document) Head() *Element {
	return d.wrap(d.head)
}

// Body returns document body.
func (d *Document) Body() *Element {
	return d.wrap(d.body)
}

// CreateElement creates detached element.
func (d *Document) CreateElement(tag string) *Element {
	return d.wrap(etree.NewElement(tag))
}

// StyleNodes returns all style nodes tagged with key in document order,
// wherever they are.
func (d *Document) StyleNodes(key string) []*Element {
	var out []*Element
	for _, el := range d.doc.FindElements("//style") {
		if el.SelectAttrValue(AttrKey, "") == key {
			out = append(out, d.wrap(el))
		}
	}
	return out
}

// String serializes document as markup. Rules inserted into live rule lists
// are not part of markup, same as in a browser.
func (d *Document) String() string {
	s, err := d.doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

// Render serializes document with live rule lists written out as style node
// text, so the markup carries every rule inserted so far.
func (d *Document) Render() string {
	for _, el := range d.doc.FindElements("//style") {
		if n := d.wrap(el); n.live {
			el.SetText(strings.Join(n.rules, ""))
		}
	}
	return d.String()
}

// Dump renders indented view of all style nodes and their rules.
func (d *Document) Dump() string {
	tw := debug.NewTreeWriter()
	for _, el := range d.doc.FindElements("//style") {
		n := d.wrap(el)
		parent := "<detached>"
		if p := el.Parent(); p != nil {
			parent = p.Tag
		}
		tw.Line(0, "style in %s", parent)
		for _, attr := range el.Attr {
			tw.TextBlock(1, attr.Key, attr.Value)
		}
		tw.List(1, "rules", n.Rules())
	}
	return tw.String()
}

func (d *Document) wrap(el *etree.Element) *Element {
	n, ok := d.nodes[el]
	if !ok {
		n = &Element{doc: d, el: el}
		d.nodes[el] = n
	}
	return n
}
