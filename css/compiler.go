package css

import (
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// PrefixFunc decides whether vendor prefixed variants are emitted for a
// declaration.
type PrefixFunc func(property, value string, ctx Context) bool

// PrefixAll enables prefixing of every known property.
func PrefixAll(string, string, Context) bool { return true }

// Option configures Compiler.
type Option func(*Compiler)

// WithPrefix sets vendor prefixing predicate, nil disables prefixing.
func WithPrefix(fn PrefixFunc) Option {
	return func(c *Compiler) {
		c.prefix = fn
	}
}

// WithValidation enables structural checks of the source text. Checks cost
// time and are meant for development builds.
func WithValidation(enable bool) Option {
	return func(c *Compiler) {
		c.validate = enable
	}
}

// Compiler turns selector plus nested declaration text into flat rule text.
type Compiler struct {
	log      *zap.Logger
	prefix   PrefixFunc
	validate bool
}

// NewCompiler creates a new style compiler.
func NewCompiler(log *zap.Logger, opts ...Option) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Compiler{log: log.Named("css-compiler")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles text scoped under selector. Selector may be empty, in
// which case text must consist of complete rules. Plugins are applied in
// order to every compiled construct, see Context.
func (c *Compiler) Compile(selector, text string, plugins ...Plugin) (string, error) {
	toks, err := c.tokenize(text)
	if err != nil {
		return "", err
	}

	p := &treeParser{toks: toks}
	nodes := p.list(false)

	var parents []string
	if sel := strings.TrimSpace(selector); sel != "" {
		selToks, err := c.tokenize(sel)
		if err != nil {
			return "", err
		}
		parents = splitSelectors(selToks)
	}

	e := &emitter{log: c.log, prefix: c.prefix, plugins: plugins}
	out := e.block(nodes, parents, 0)
	c.log.Debug("Compiled style text", zap.String("selector", selector), zap.Int("in", len(text)), zap.Int("out", len(out)))
	return e.apply(Element{Context: ContextFinalize, Value: out, Selectors: parents}), nil
}

type token struct {
	tt   css.TokenType
	data string
}

// tokenize lexes text dropping comments and collapsing whitespace.
func (c *Compiler) tokenize(text string) ([]token, error) {
	l := css.NewLexer(parse.NewInputString(text))

	var (
		toks   []token
		offset int
	)
	for {
		tt, data := l.Next()
		start := offset
		offset += len(data)

		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, fmt.Errorf("unable to tokenize style text: %w", err)
			}
			return toks, nil

		case css.CommentToken:
			if c.validate && !terminatedComment(data) {
				snippet := string(data)
				if len(snippet) > 32 {
					snippet = snippet[:32]
				}
				return nil, &StructuralTextError{Offset: start, Snippet: snippet}
			}
			// comment separates tokens the same way whitespace does
			tt, data = css.WhitespaceToken, []byte(" ")

		case css.WhitespaceToken:
			data = []byte(" ")
		}

		if tt == css.WhitespaceToken && (len(toks) == 0 || toks[len(toks)-1].tt == css.WhitespaceToken) {
			continue
		}
		toks = append(toks, token{tt: tt, data: string(data)})
	}
}

func terminatedComment(data []byte) bool {
	return len(data) >= 4 && data[len(data)-2] == '*' && data[len(data)-1] == '/'
}

type nodeKind int

const (
	declNode nodeKind = iota
	ruleNode
	atNode
)

type node struct {
	kind      nodeKind
	prop      string   // declaration property
	value     string   // declaration value
	selectors []string // rule selectors
	prelude   string   // at-rule prelude including name, "@media print"
	name      string   // at-rule lower case name without '@'
	block     bool     // at-rule has a block
	children  []node
}

type treeParser struct {
	toks []token
	pos  int
}

type scanEnd int

const (
	endEOF scanEnd = iota
	endSemicolon
	endOpenBrace
	endCloseBrace
)

// scan finds end of current declaration or rule prelude, it does not move
// the position.
func (p *treeParser) scan() (int, scanEnd) {
	var stack []css.TokenType
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].tt {
		case css.SemicolonToken:
			if len(stack) == 0 {
				return i, endSemicolon
			}
		case css.FunctionToken, css.LeftParenthesisToken:
			stack = append(stack, css.RightParenthesisToken)
		case css.LeftBracketToken:
			stack = append(stack, css.RightBracketToken)
		case css.LeftBraceToken:
			if len(stack) == 0 {
				return i, endOpenBrace
			}
			stack = append(stack, css.RightBraceToken)
		case css.RightParenthesisToken, css.RightBracketToken:
			if n := len(stack); n > 0 && p.toks[i].tt == stack[n-1] {
				stack = stack[:n-1]
			}
		case css.RightBraceToken:
			if n := len(stack); n > 0 && stack[n-1] == css.RightBraceToken {
				stack = stack[:n-1]
			} else {
				return i, endCloseBrace
			}
		}
	}
	return len(p.toks), endEOF
}

// list parses items until the closing brace of the current block (nested)
// or end of input.
func (p *treeParser) list(nested bool) []node {
	var nodes []node
	for p.pos < len(p.toks) {
		switch p.toks[p.pos].tt {
		case css.WhitespaceToken, css.SemicolonToken:
			p.pos++
			continue
		case css.RightBraceToken:
			p.pos++
			if nested {
				return nodes
			}
			// stray closing brace at top level
			continue
		case css.AtKeywordToken:
			nodes = append(nodes, p.atRule())
			continue
		}

		end, kind := p.scan()
		if kind == endOpenBrace {
			selectors := splitSelectors(p.toks[p.pos:end])
			p.pos = end + 1
			children := p.list(true)
			nodes = append(nodes, node{kind: ruleNode, selectors: selectors, children: children})
			continue
		}
		if n, ok := declaration(p.toks[p.pos:end]); ok {
			nodes = append(nodes, n)
		}
		p.pos = end
	}
	return nodes
}

func (p *treeParser) atRule() node {
	name := strings.ToLower(strings.TrimPrefix(p.toks[p.pos].data, "@"))
	start := p.pos
	p.pos++

	end, kind := p.scan()
	n := node{kind: atNode, name: name, prelude: joinTokens(p.toks[start:end])}
	if kind == endOpenBrace {
		n.block = true
		p.pos = end + 1
		n.children = p.list(true)
		return n
	}
	p.pos = end
	return n
}

func declaration(toks []token) (node, bool) {
	depth := 0
	for i, t := range toks {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.ColonToken:
			if depth != 0 {
				continue
			}
			prop, value := joinTokens(toks[:i]), joinTokens(toks[i+1:])
			if prop == "" || value == "" {
				return node{}, false
			}
			return node{kind: declNode, prop: prop, value: value}, true
		}
	}
	return node{}, false
}

// splitSelectors splits selector list on top level commas.
func splitSelectors(toks []token) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, t := range toks {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.CommaToken:
			if depth == 0 {
				if s := joinTokens(toks[start:i]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := joinTokens(toks[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func joinTokens(toks []token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.data)
	}
	return strings.TrimSpace(sb.String())
}

// resolveSelectors combines parent and nested selectors as a cross product.
func resolveSelectors(parents, selectors []string) []string {
	if len(parents) == 0 {
		out := make([]string, 0, len(selectors))
		for _, s := range selectors {
			if s = strings.TrimSpace(strings.ReplaceAll(s, "&", "")); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	out := make([]string, 0, len(parents)*len(selectors))
	for _, parent := range parents {
		for _, s := range selectors {
			switch {
			case strings.Contains(s, "&"):
				out = append(out, strings.ReplaceAll(s, "&", parent))
			case strings.HasPrefix(s, ":"):
				out = append(out, parent+s)
			default:
				out = append(out, parent+" "+s)
			}
		}
	}
	return out
}

type emitter struct {
	log     *zap.Logger
	prefix  PrefixFunc
	plugins []Plugin
}

func (e *emitter) apply(el Element) string {
	for _, plugin := range e.plugins {
		if out, ok := plugin(el); ok {
			el.Value = out
		}
	}
	return el.Value
}

// block emits declarations of a block under parents followed by its nested
// rules in source order.
func (e *emitter) block(nodes []node, parents []string, depth int) string {
	var decls, nested strings.Builder
	for _, n := range nodes {
		switch n.kind {
		case declNode:
			decls.WriteString(e.declaration(n.prop, n.value, depth))
		case ruleNode:
			nested.WriteString(e.block(n.children, resolveSelectors(parents, n.selectors), depth))
		case atNode:
			nested.WriteString(e.atRule(n, parents, depth))
		}
	}

	var out string
	if decls.Len() > 0 {
		if len(parents) == 0 {
			e.log.Debug("Dropping declarations without selector", zap.String("declarations", decls.String()))
		} else {
			out = e.apply(Element{
				Context:   ContextSelector,
				Value:     strings.Join(parents, ",") + "{" + decls.String() + "}",
				Selectors: parents,
				Depth:     depth,
			})
		}
	}
	return out + nested.String()
}

func (e *emitter) declaration(prop, value string, depth int) string {
	decl := prop + ":" + value + ";"
	if e.prefix != nil && e.prefix(prop, value, ContextProperty) {
		decl = Prefix(prop, value) + decl
	}
	return e.apply(Element{Context: ContextProperty, Value: decl, Depth: depth})
}

func (e *emitter) declarations(nodes []node, depth int) string {
	var sb strings.Builder
	for _, n := range nodes {
		if n.kind == declNode {
			sb.WriteString(e.declaration(n.prop, n.value, depth))
		}
	}
	return sb.String()
}

func (e *emitter) atRule(n node, parents []string, depth int) string {
	if !n.block {
		return e.apply(Element{Context: ContextProperty, Value: n.prelude + ";", AtRule: n.name, Depth: depth})
	}

	var body string
	switch {
	case strings.HasSuffix(n.name, "keyframes"):
		var frames strings.Builder
		for _, frame := range n.children {
			if frame.kind != ruleNode {
				continue
			}
			if decls := e.declarations(frame.children, depth+1); decls != "" {
				frames.WriteString(e.apply(Element{
					Context:   ContextSelector,
					Value:     strings.Join(frame.selectors, ",") + "{" + decls + "}",
					Selectors: frame.selectors,
					Depth:     depth + 1,
				}))
			}
		}
		body = frames.String()
	case n.name == "font-face" || n.name == "page":
		var sb strings.Builder
		sb.WriteString(e.declarations(n.children, depth+1))
		for _, child := range n.children {
			if child.kind == atNode {
				sb.WriteString(e.atRule(child, nil, depth+1))
			}
		}
		body = sb.String()
	default:
		body = e.block(n.children, parents, depth+1)
	}
	if body == "" {
		return ""
	}

	return e.apply(Element{
		Context:   ContextAtRule,
		Value:     n.prelude + "{" + body + "}",
		Selectors: []string{n.prelude},
		AtRule:    n.name,
		Depth:     depth,
	})
}
