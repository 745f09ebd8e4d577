package css

import (
	"errors"
	"fmt"
)

// ErrMalformedRule is wrapped by ValidateRule failures.
var ErrMalformedRule = errors.New("malformed rule")

// StructuralTextError reports style text that cannot be compiled safely, an
// opening comment marker without matching closing marker. It is only
// produced when compiler validation is enabled.
type StructuralTextError struct {
	Offset  int    // byte offset of the comment opening in the source text
	Snippet string // beginning of the offending comment
}

func (e *StructuralTextError) Error() string {
	return fmt.Sprintf("unterminated comment at offset %d: %q", e.Offset, e.Snippet)
}
