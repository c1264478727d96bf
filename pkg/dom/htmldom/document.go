// Package htmldom is an in-memory dom.Document built on golang.org/x/net/html.
//
// It is the headless render target used by the CLI, the server and tests.
// Bulk parsing goes through html.ParseFragment in a <div> context, which is
// what assigning innerHTML on a container does in a browser. Document-level
// listeners receive every event dispatched to a connected node, mirroring an
// event bubbling up to the document.
package htmldom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/domsync/pkg/dom"
)

// Document is an in-memory HTML document.
type Document struct {
	doc  *html.Node
	body *Node

	// nodes holds one wrapper per node handed out until Forget drops it.
	nodes map[*html.Node]*Node

	listeners  map[string][]*listener
	listenerID int
}

type listener struct {
	id int
	fn func(dom.NativeEvent)
}

var (
	_ dom.Document  = (*Document)(nil)
	_ dom.Forgetter = (*Document)(nil)
)

// New creates an empty document with a <body> root.
func New() *Document {
	doc, err := html.Parse(strings.NewReader("<!DOCTYPE html><html><head></head><body></body></html>"))
	if err != nil {
		// html.Parse only fails on reader errors.
		panic(fmt.Sprintf("htmldom: parse skeleton: %v", err))
	}
	d := &Document{
		doc:       doc,
		nodes:     make(map[*html.Node]*Node),
		listeners: make(map[string][]*listener),
	}
	d.body = d.wrap(findElement(doc, atom.Body))
	return d
}

// Root returns the <body> element.
func (d *Document) Root() *Node {
	return d.body
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) (dom.Node, error) {
	if !validName(tag) {
		return nil, fmt.Errorf("htmldom: invalid tag name %q", tag)
	}
	tag = strings.ToLower(tag)
	return d.wrap(&html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}), nil
}

// ParseMarkup parses markup as the inner HTML of a <div> and returns the
// first produced node, detached.
func (d *Document) ParseMarkup(markup string) (dom.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("htmldom: parse markup: %w", err)
	}
	if len(nodes) == 0 {
		return nil, dom.ErrNoNode
	}
	return d.wrap(nodes[0]), nil
}

// Listen attaches a document-level listener for eventType.
func (d *Document) Listen(eventType string, fn func(dom.NativeEvent)) dom.Release {
	d.listenerID++
	l := &listener{id: d.listenerID, fn: fn}
	d.listeners[eventType] = append(d.listeners[eventType], l)

	released := false
	return func() {
		if released {
			return
		}
		released = true
		list := d.listeners[eventType]
		for i, other := range list {
			if other.id == l.id {
				d.listeners[eventType] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(d.listeners[eventType]) == 0 {
			delete(d.listeners, eventType)
		}
	}
}

// ListenerCount returns the number of document-level listeners for eventType.
func (d *Document) ListenerCount(eventType string) int {
	return len(d.listeners[eventType])
}

// ListenerTotal returns the number of document-level listeners of any type.
func (d *Document) ListenerTotal() int {
	n := 0
	for _, list := range d.listeners {
		n += len(list)
	}
	return n
}

// Dispatch fires an event of eventType at target. Listeners run in the order
// they were attached. Events on detached targets never reach the document,
// so Dispatch reports false for them.
func (d *Document) Dispatch(target dom.Node, eventType string, fields map[string]any) bool {
	t, ok := target.(*Node)
	if !ok || t == nil || !d.connected(t) {
		return false
	}
	list := append([]*listener(nil), d.listeners[eventType]...)
	if len(list) == 0 {
		return false
	}
	ev := &Event{typ: eventType, target: t, fields: fields}
	for _, l := range list {
		l.fn(ev)
	}
	return true
}

// Render returns the outer HTML of n.
func (d *Document) Render(n dom.Node) string {
	node, ok := n.(*Node)
	if !ok || node == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, node.n); err != nil {
		return ""
	}
	return buf.String()
}

// InnerHTML returns the rendered children of n.
func (d *Document) InnerHTML(n dom.Node) string {
	node, ok := n.(*Node)
	if !ok || node == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := node.n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

// wrap returns the stable handle for n.
func (d *Document) wrap(n *html.Node) *Node {
	if n == nil {
		return nil
	}
	if w, ok := d.nodes[n]; ok {
		return w
	}
	w := &Node{doc: d, n: n}
	d.nodes[n] = w
	return w
}

// Forget drops the wrappers of n and its descendants if n is detached.
func (d *Document) Forget(n dom.Node) {
	node, ok := n.(*Node)
	if !ok || node == nil || node.doc != d || d.connected(node) {
		return
	}
	d.forget(node.n)
}

func (d *Document) forget(n *html.Node) {
	delete(d.nodes, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.forget(c)
	}
}

// Handles returns the number of live node wrappers.
func (d *Document) Handles() int {
	return len(d.nodes)
}

func (d *Document) connected(n *Node) bool {
	for p := n.n; p != nil; p = p.Parent {
		if p == d.doc {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// validName reports whether s is acceptable as a tag or attribute name.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r <= ' ', r == '"', r == '\'', r == '>', r == '/', r == '=', r == '<':
			return false
		}
	}
	return true
}
