package css

import (
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// SplitRules splits flat rule text into top level rules: blocks and
// statement at-rules. Comments are dropped, everything else is kept as is.
// Unterminated trailing text is returned as the last element.
func SplitRules(text string) []string {
	l := css.NewLexer(parse.NewInputString(text))

	var (
		rules []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			rules = append(rules, s)
		}
		cur.Reset()
	}
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			flush()
			return rules
		case css.CommentToken:
			continue
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			depth--
		}
		cur.Write(data)
		switch {
		case tt == css.RightBraceToken && depth <= 0:
			depth = 0
			flush()
		case tt == css.SemicolonToken && depth == 0:
			flush()
		}
	}
}

// ValidateRule checks rule text is a single well formed rule: balanced
// block with non empty prelude or a statement at-rule.
func ValidateRule(rule string) error {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return fmt.Errorf("%w: empty rule", ErrMalformedRule)
	}

	l := css.NewLexer(parse.NewInputString(rule))
	var (
		depth   int
		prelude strings.Builder
		blocks  int
	)
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && err != io.EOF {
				return fmt.Errorf("%w: %w", ErrMalformedRule, err)
			}
			break
		}
		switch tt {
		case css.BadStringToken, css.BadURLToken:
			return fmt.Errorf("%w: bad token %q", ErrMalformedRule, data)
		case css.LeftBraceToken:
			if depth == 0 {
				blocks++
			}
			depth++
		case css.RightBraceToken:
			if depth--; depth < 0 {
				return fmt.Errorf("%w: unexpected '}'", ErrMalformedRule)
			}
		case css.CommentToken, css.WhitespaceToken:
		default:
			if depth == 0 && blocks == 0 {
				prelude.Write(data)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: unbalanced braces", ErrMalformedRule)
	}
	if n := len(SplitRules(rule)); n != 1 {
		return fmt.Errorf("%w: expected single rule, got %d", ErrMalformedRule, n)
	}

	head := prelude.String()
	switch {
	case strings.HasPrefix(head, "@"):
		if blocks == 0 && !strings.HasSuffix(rule, ";") {
			return fmt.Errorf("%w: statement at-rule must end with ';'", ErrMalformedRule)
		}
	case blocks == 0:
		return fmt.Errorf("%w: no block", ErrMalformedRule)
	case head == "":
		return fmt.Errorf("%w: empty selector", ErrMalformedRule)
	}
	return nil
}
