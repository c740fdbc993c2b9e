package enhancer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ZaguanLabs/tlcache"
)

// skipSelector matches elements whose text is never collected.
var skipSelector = func() string {
	parts := make([]string, 0, len(tlcache.IgnoredTags)+3)
	for tag := range tlcache.IgnoredTags {
		parts = append(parts, tag)
	}
	parts = append(parts, "[data-no-translate]", "[hidden]", `[aria-hidden="true"]`)
	return strings.Join(parts, ", ")
}()

// HTMLAdapter binds the tree utilities to golang.org/x/net/html nodes.
type HTMLAdapter struct {
	skip map[*html.Node]bool
}

// NewHTMLAdapter prepares an adapter for the tree rooted at root.
func NewHTMLAdapter(root *html.Node) *HTMLAdapter {
	skip := make(map[*html.Node]bool)
	goquery.NewDocumentFromNode(root).Find(skipSelector).Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			skip[n] = true
		}
	})
	return &HTMLAdapter{skip: skip}
}

// Children implements TreeAdapter.
func (a *HTMLAdapter) Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Leaf implements TreeAdapter. Only non-blank text nodes are leaves.
func (a *HTMLAdapter) Leaf(n *html.Node) (string, bool) {
	if n.Type != html.TextNode || strings.TrimSpace(n.Data) == "" {
		return "", false
	}
	return n.Data, true
}

// Skip implements TreeAdapter.
func (a *HTMLAdapter) Skip(n *html.Node) bool {
	return a.skip[n]
}

// WithLeaf implements TreeAdapter.
func (a *HTMLAdapter) WithLeaf(n *html.Node, text string) *html.Node {
	c := shallowClone(n)
	c.Data = text
	return c
}

// WithChildren implements TreeAdapter. Children still attached to the source
// tree are deep-copied so the source is left intact.
func (a *HTMLAdapter) WithChildren(n *html.Node, children []*html.Node) *html.Node {
	c := shallowClone(n)
	for _, child := range children {
		if child.Parent != nil {
			child = deepClone(child)
		}
		c.AppendChild(child)
	}
	return c
}

func shallowClone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	return c
}

func deepClone(n *html.Node) *html.Node {
	c := shallowClone(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(deepClone(child))
	}
	return c
}

// preserveWhitespace keeps the original leading/trailing whitespace.
func preserveWhitespace(original, translated string) string {
	leadingLen := len(original) - len(strings.TrimLeft(original, " \t\n\r"))
	leading := original[:leadingLen]

	trailingLen := len(original) - len(strings.TrimRight(original, " \t\n\r"))
	trailing := ""
	if trailingLen > 0 {
		trailing = original[len(original)-trailingLen:]
	}

	return leading + strings.TrimSpace(translated) + trailing
}

var _ TreeAdapter[*html.Node] = (*HTMLAdapter)(nil)
