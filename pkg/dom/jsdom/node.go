//go:build js && wasm

package jsdom

import (
	"strings"
	"syscall/js"

	"github.com/vango-dev/domsync/pkg/dom"
	"github.com/vango-dev/domsync/pkg/view"
)

// Node is a handle to a browser node.
type Node struct {
	v   js.Value
	doc *Document
}

// Value returns the underlying node.
func (n *Node) Value() js.Value { return n.v }

func (n *Node) Parent() dom.Node {
	if p := n.doc.wrap(n.v.Get("parentNode")); p != nil {
		return p
	}
	return nil
}

func (n *Node) Children() []dom.Node {
	list := n.v.Get("childNodes")
	out := make([]dom.Node, 0, list.Length())
	for i := 0; i < list.Length(); i++ {
		out = append(out, n.doc.wrap(list.Index(i)))
	}
	return out
}

func unwrap(node dom.Node) js.Value {
	if jn, ok := node.(*Node); ok && jn != nil {
		return jn.v
	}
	return js.Null()
}

func (n *Node) AppendChild(child dom.Node) error {
	return catch(func() { n.v.Call("appendChild", unwrap(child)) })
}

func (n *Node) InsertBefore(child, ref dom.Node) error {
	return catch(func() { n.v.Call("insertBefore", unwrap(child), unwrap(ref)) })
}

func (n *Node) ReplaceChild(newChild, oldChild dom.Node) error {
	return catch(func() { n.v.Call("replaceChild", unwrap(newChild), unwrap(oldChild)) })
}

func (n *Node) RemoveChild(child dom.Node) error {
	return catch(func() { n.v.Call("removeChild", unwrap(child)) })
}

func (n *Node) TextContent() string {
	return n.v.Get("textContent").String()
}

func (n *Node) SetTextContent(text string) {
	n.v.Set("textContent", text)
}

func (n *Node) SetAttribute(name, value string) error {
	return catch(func() { n.v.Call("setAttribute", name, value) })
}

func (n *Node) RemoveAttribute(name string) {
	n.v.Call("removeAttribute", name)
}

// SetStyle sets a style property. Dashed names go through setProperty so
// custom properties work; others are assigned directly.
func (n *Node) SetStyle(name, value string) {
	style := n.v.Get("style")
	if strings.Contains(name, "-") {
		if value == "" {
			style.Call("removeProperty", name)
			return
		}
		style.Call("setProperty", name, value)
		return
	}
	style.Set(name, value)
}

func (n *Node) SetProperty(name string, value any) {
	if value == nil {
		n.v.Set(name, js.Null())
		return
	}
	n.v.Set(name, toJS(value))
}

// toJS converts a view value into something js.ValueOf accepts.
func toJS(v any) any {
	switch x := v.(type) {
	case *view.Props:
		m := make(map[string]any, x.Len())
		for _, e := range x.Entries() {
			m[e.Key] = toJS(e.Value)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = toJS(e)
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = toJS(e)
		}
		return out
	default:
		return x
	}
}
