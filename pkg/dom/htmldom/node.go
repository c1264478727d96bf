package htmldom

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/pkg/dom"
)

// ErrHierarchy is returned when a mutation would make a node its own ancestor.
var ErrHierarchy = errors.New("htmldom: node cannot be inserted into its own subtree")

// Node wraps an *html.Node. There is exactly one *Node per *html.Node.
type Node struct {
	doc   *Document
	n     *html.Node
	props map[string]any
}

var _ dom.Node = (*Node)(nil)

// HTML returns the underlying parse tree node.
func (n *Node) HTML() *html.Node {
	return n.n
}

// Tag returns the element tag name, or "" for non-element nodes.
func (n *Node) Tag() string {
	if n.n.Type != html.ElementNode {
		return ""
	}
	return n.n.Data
}

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() dom.Node {
	if n.n.Parent == nil {
		return nil
	}
	return n.doc.wrap(n.n.Parent)
}

// Children returns the current child nodes.
func (n *Node) Children() []dom.Node {
	var out []dom.Node
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, n.doc.wrap(c))
	}
	return out
}

// AppendChild moves child to the end of n's children.
func (n *Node) AppendChild(child dom.Node) error {
	c, err := n.adopt(child)
	if err != nil {
		return err
	}
	detach(c.n)
	n.n.AppendChild(c.n)
	return nil
}

// InsertBefore moves child immediately before ref. A nil ref appends.
func (n *Node) InsertBefore(child, ref dom.Node) error {
	if ref == nil {
		return n.AppendChild(child)
	}
	c, err := n.adopt(child)
	if err != nil {
		return err
	}
	r, ok := ref.(*Node)
	if !ok || r.n.Parent != n.n {
		return dom.ErrNotChild
	}
	if c == r {
		return nil
	}
	detach(c.n)
	n.n.InsertBefore(c.n, r.n)
	return nil
}

// ReplaceChild puts newChild where oldChild is and detaches oldChild.
func (n *Node) ReplaceChild(newChild, oldChild dom.Node) error {
	c, err := n.adopt(newChild)
	if err != nil {
		return err
	}
	o, ok := oldChild.(*Node)
	if !ok || o.n.Parent != n.n {
		return dom.ErrNotChild
	}
	if c == o {
		return nil
	}
	detach(c.n)
	n.n.InsertBefore(c.n, o.n)
	n.n.RemoveChild(o.n)
	return nil
}

// RemoveChild detaches child from n.
func (n *Node) RemoveChild(child dom.Node) error {
	c, ok := child.(*Node)
	if !ok || c == nil || c.n.Parent != n.n {
		return dom.ErrNotChild
	}
	n.n.RemoveChild(c.n)
	return nil
}

// TextContent returns the concatenated text of every descendant text node.
func (n *Node) TextContent() string {
	var b strings.Builder
	collectText(&b, n.n)
	return b.String()
}

// SetTextContent replaces all children with a single text node.
func (n *Node) SetTextContent(text string) {
	for c := n.n.FirstChild; c != nil; {
		next := c.NextSibling
		n.n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// Attribute returns the value of the named attribute.
func (n *Node) Attribute(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range n.n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// AttributeNames returns attribute names in document order.
func (n *Node) AttributeNames() []string {
	names := make([]string, 0, len(n.n.Attr))
	for _, a := range n.n.Attr {
		names = append(names, a.Key)
	}
	return names
}

// SetAttribute sets an attribute, rejecting names the HTML parser could
// never produce.
func (n *Node) SetAttribute(name, value string) error {
	if n.n.Type != html.ElementNode {
		return fmt.Errorf("htmldom: set attribute %q on non-element", name)
	}
	if !validName(name) {
		return fmt.Errorf("htmldom: invalid attribute name %q", name)
	}
	name = strings.ToLower(name)
	for i, a := range n.n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.n.Attr[i].Val = value
			return nil
		}
	}
	n.n.Attr = append(n.n.Attr, html.Attribute{Key: name, Val: value})
	return nil
}

// RemoveAttribute removes an attribute if present.
func (n *Node) RemoveAttribute(name string) {
	name = strings.ToLower(name)
	for i, a := range n.n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.n.Attr = append(n.n.Attr[:i], n.n.Attr[i+1:]...)
			return
		}
	}
}

// reflected maps string IDL properties to the content attribute a browser
// keeps in sync with them.
var reflected = map[string]string{
	"accessKey":   "accesskey",
	"alt":         "alt",
	"className":   "class",
	"dir":         "dir",
	"download":    "download",
	"href":        "href",
	"htmlFor":     "for",
	"id":          "id",
	"lang":        "lang",
	"name":        "name",
	"placeholder": "placeholder",
	"rel":         "rel",
	"src":         "src",
	"target":      "target",
	"title":       "title",
}

// Property returns a property assigned with SetProperty.
func (n *Node) Property(name string) (any, bool) {
	if name == "textContent" {
		return n.TextContent(), true
	}
	if attr, ok := reflected[name]; ok {
		v, _ := n.Attribute(attr)
		return v, true
	}
	v, ok := n.props[name]
	return v, ok
}

// SetProperty assigns a property. textContent and reflected string
// properties such as title or className write through to the tree like
// their browser counterparts; anything else is kept on the handle. nil
// removes the property.
func (n *Node) SetProperty(name string, value any) {
	if name == "textContent" {
		s, _ := value.(string)
		n.SetTextContent(s)
		return
	}
	if attr, ok := reflected[name]; ok {
		if value == nil {
			n.RemoveAttribute(attr)
			return
		}
		s, ok := value.(string)
		if !ok {
			s = fmt.Sprint(value)
		}
		_ = n.SetAttribute(attr, s)
		return
	}
	if value == nil {
		delete(n.props, name)
		return
	}
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[name] = value
}

// detach removes n from its parent, if any.
func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// adopt checks that child belongs to the same document and would not
// become its own ancestor.
func (n *Node) adopt(child dom.Node) (*Node, error) {
	c, ok := child.(*Node)
	if !ok || c == nil {
		return nil, fmt.Errorf("htmldom: foreign node %T", child)
	}
	if c.doc != n.doc {
		return nil, fmt.Errorf("htmldom: node belongs to another document")
	}
	for p := n.n; p != nil; p = p.Parent {
		if p == c.n {
			return nil, ErrHierarchy
		}
	}
	return c, nil
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}
