package cache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// HashFunc computes content hash of resolved style text. It must be pure.
type HashFunc func(text string) string

// DefaultHash is base 36 form of 64 bit xxhash.
func DefaultHash(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(text), 36)
}

// Hash returns memoized content hash of text. Hashes are used as parts of
// identifiers, so leading digit is replaced with a letter ('0' -> 'g', ...,
// '9' -> 'p').
func (c *Cache) Hash(text string) string {
	if h, ok := c.memo[text]; ok {
		return h
	}
	h := c.hash(text)
	if h != "" && h[0] >= '0' && h[0] <= '9' {
		h = string(rune('g'+h[0]-'0')) + h[1:]
	}
	c.memo[text] = h
	return h
}
