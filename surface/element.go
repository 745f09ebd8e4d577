package surface

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"stylo/css"
)

// RejectedRuleError is returned when live rule list refuses rule text.
type RejectedRuleError struct {
	Rule string
	Err  error
}

func (e *RejectedRuleError) Error() string {
	return fmt.Sprintf("rule rejected: %v: %q", e.Err, e.Rule)
}

func (e *RejectedRuleError) Unwrap() error {
	return e.Err
}

// Element is a node of the document. For style nodes it also carries live
// rule list, which starts as a reflection of text content and diverges once
// rules are inserted directly.
type Element struct {
	doc   *Document
	el    *etree.Element
	rules []string
	live  bool
}

// Tag returns element name.
func (e *Element) Tag() string {
	return e.el.Tag
}

// Attr returns attribute value or empty string.
func (e *Element) Attr(name string) string {
	return e.el.SelectAttrValue(name, "")
}

// SetAttr sets attribute value.
func (e *Element) SetAttr(name, value string) {
	e.el.CreateAttr(name, value)
}

// Text returns text content.
func (e *Element) Text() string {
	return e.el.Text()
}

// AppendText appends to text content. Live rule list is reset to reflect
// the new text.
func (e *Element) AppendText(text string) {
	e.el.SetText(e.el.Text() + text)
	e.rules, e.live = nil, false
}

// Rules returns current live rule list.
func (e *Element) Rules() []string {
	if !e.live {
		return css.SplitRules(e.el.Text())
	}
	return append([]string(nil), e.rules...)
}

// RuleCount returns length of live rule list.
func (e *Element) RuleCount() int {
	if !e.live {
		return len(css.SplitRules(e.el.Text()))
	}
	return len(e.rules)
}

// InsertRule inserts single rule into live rule list at index and returns
// the index. Malformed rule or index out of range results in
// RejectedRuleError and leaves the list unchanged.
func (e *Element) InsertRule(rule string, index int) (int, error) {
	if !e.live {
		e.rules, e.live = css.SplitRules(e.el.Text()), true
	}
	if index < 0 || index > len(e.rules) {
		return 0, &RejectedRuleError{Rule: rule, Err: fmt.Errorf("index %d out of range [0, %d]", index, len(e.rules))}
	}
	if err := css.ValidateRule(rule); err != nil {
		return 0, &RejectedRuleError{Rule: rule, Err: err}
	}
	rule = strings.TrimSpace(rule)
	e.rules = append(e.rules, "")
	copy(e.rules[index+1:], e.rules[index:])
	e.rules[index] = rule
	return index, nil
}

// Parent returns parent element or nil for detached one.
func (e *Element) Parent() *Element {
	if p := e.el.Parent(); p != nil {
		return e.doc.wrap(p)
	}
	return nil
}

// Children returns child elements in order.
func (e *Element) Children() []*Element {
	var out []*Element
	for _, el := range e.el.ChildElements() {
		out = append(out, e.doc.wrap(el))
	}
	return out
}

// Append moves child to the end of element children.
func (e *Element) Append(child *Element) {
	child.Detach()
	e.el.AddChild(child.el)
}

// InsertAfter moves el right after e among e's siblings. When e is
// detached el is detached as well.
func (e *Element) InsertAfter(el *Element) {
	if el == e {
		return
	}
	el.Detach()
	p := e.el.Parent()
	if p == nil {
		return
	}
	p.InsertChildAt(e.el.Index()+1, el.el)
}

// Detach removes element from its parent. Detaching detached element is
// a no-op.
func (e *Element) Detach() {
	if p := e.el.Parent(); p != nil {
		p.RemoveChild(e.el)
	}
}

// Attached reports whether element has a parent.
func (e *Element) Attached() bool {
	return e.el.Parent() != nil
}
