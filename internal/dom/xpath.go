// internal/dom/xpath.go
package dom

import (
	"strconv"
	"strings"
)

// xpathCounter numbers same-tag element siblings while a parent's children
// are iterated in document order. Positions are 1-based, matching XPath
// semantics.
type xpathCounter struct {
	seen map[string]int
}

func newXPathCounter() *xpathCounter {
	return &xpathCounter{seen: make(map[string]int)}
}

// next registers one more element with the given tag and returns its
// position among same-tag siblings, 1-based.
func (c *xpathCounter) next(tag string) int {
	c.seen[tag]++
	return c.seen[tag]
}

// childXPath extends a parent's path with one segment. The positional
// predicate is omitted for the first element of its tag, matching locators
// like "html/body/div/span[2]". Paths are local to their document or shadow
// tree: a descent through a shadow or frame boundary starts over with an
// empty prefix, so the root element of each subtree gets a bare segment.
func childXPath(parent, tag string, pos int) string {
	var b strings.Builder
	b.Grow(len(parent) + len(tag) + 6)
	b.WriteString(parent)
	if parent != "" {
		b.WriteByte('/')
	}
	b.WriteString(tag)
	if pos > 1 {
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(pos))
		b.WriteByte(']')
	}
	return b.String()
}
