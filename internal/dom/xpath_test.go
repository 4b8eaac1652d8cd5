// internal/dom/xpath_test.go
package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChildXPath(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		tag    string
		pos    int
		want   string
	}{
		{"first of kind omits predicate", "html/body", "div", 1, "html/body/div"},
		{"second of kind qualified", "html/body", "div", 2, "html/body/div[2]"},
		{"deep nesting", "html/body/div/ul", "li", 3, "html/body/div/ul/li[3]"},
		{"boundary root is bare", "", "button", 1, "button"},
		{"boundary root qualified", "", "button", 2, "button[2]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, childXPath(tc.parent, tc.tag, tc.pos))
		})
	}
}

func TestXPathCounterTracksPerTag(t *testing.T) {
	c := newXPathCounter()
	assert.Equal(t, 1, c.next("div"))
	assert.Equal(t, 1, c.next("span"))
	assert.Equal(t, 2, c.next("div"))
	assert.Equal(t, 3, c.next("div"))
	assert.Equal(t, 2, c.next("span"))
}
