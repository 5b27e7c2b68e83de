// Package sanitize restricts letter bodies to the markup produced by the
// rich-text editor.
package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// colorValue accepts #rgb through #rrggbb hex colors and rgb(...) values.
var colorValue = regexp.MustCompile(`^(#[0-9a-fA-F]{3,6}|rgb\(.*)$`)

// HTMLPolicy implements ports.Sanitizer with a fixed allow-list.
type HTMLPolicy struct {
	policy *bluemonday.Policy
}

// NewHTMLPolicy allows headings, paragraphs, lists, emphasis and links, plus
// color and text-align styles on span, p and div.
func NewHTMLPolicy() *HTMLPolicy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "strong", "em", "u",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "a", "span", "div",
	)

	p.AllowStandardURLs()
	p.AllowAttrs("href", "target", "rel").OnElements("a")

	p.AllowStyles("color").Matching(colorValue).OnElements("span", "p", "div")
	p.AllowStyles("text-align").MatchingEnum("left", "right", "center", "justify").OnElements("span", "p", "div")

	return &HTMLPolicy{policy: p}
}

// Sanitize returns html with every disallowed element, attribute and style removed.
func (h *HTMLPolicy) Sanitize(html string) string {
	return h.policy.Sanitize(html)
}
