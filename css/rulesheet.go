package css

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Delimiter marks the end of a top level rule in compiled output. It is a
// comment so it can never come from source text, comments are stripped
// while compiling.
const Delimiter = "/*|*/"

const needle = Delimiter + "}"

// splitAnnotated splits output on Delimiter comments closing a block and
// returns the fragments along with output stripped of annotations. Strings
// holding delimiter text are single tokens and left intact.
func splitAnnotated(text string) ([]string, string) {
	l := css.NewLexer(parse.NewInputString(text))

	var (
		blocks    []string
		cur, out  strings.Builder
		annotated bool
	)
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		if tt == css.CommentToken && string(data) == Delimiter {
			annotated = true
			continue
		}
		cur.Write(data)
		out.Write(data)
		if annotated && tt == css.RightBraceToken {
			if strings.TrimSpace(cur.String()) != "}" {
				blocks = append(blocks, cur.String())
			}
			cur.Reset()
		}
		annotated = false
	}
	if strings.TrimSpace(cur.String()) != "" {
		blocks = append(blocks, cur.String())
	}
	return blocks, out.String()
}

// RuleSheet returns plugin which routes compiled output to insert one top
// level rule at a time:
//
//   - statement at-rules (@import) are inserted directly and removed from
//     the output;
//   - @font-face and @page blocks are inserted directly and removed from the
//     output;
//   - outermost rules and at-rules are annotated with Delimiter;
//   - finalized output is split on the annotation and every fragment is
//     inserted separately, the returned output has annotations removed.
func RuleSheet(insert func(rule string)) Plugin {
	return func(el Element) (string, bool) {
		switch el.Context {
		case ContextProperty:
			if strings.HasPrefix(el.Value, "@") {
				insert(el.Value)
				return "", true
			}
		case ContextSelector:
			if el.Depth == 0 {
				return annotate(el.Value), true
			}
		case ContextAtRule:
			switch el.AtRule {
			case "font-face", "page":
				insert(el.Value)
				return "", true
			}
			if el.Depth == 0 {
				return annotate(el.Value), true
			}
		case ContextFinalize:
			blocks, out := splitAnnotated(el.Value)
			for _, block := range blocks {
				insert(block)
			}
			return out, true
		}
		return "", false
	}
}

// annotate places Delimiter right before the closing brace of a block.
func annotate(block string) string {
	if !strings.HasSuffix(block, "}") {
		return block
	}
	return block[:len(block)-1] + needle
}
