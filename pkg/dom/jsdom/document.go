//go:build js && wasm

package jsdom

import (
	"fmt"
	"sync"
	"syscall/js"

	"github.com/vango-dev/domsync/pkg/dom"
)

// tokenProp is the expando property carrying a node's handle token.
const tokenProp = "__domsyncToken"

// Document wraps a browser document.
type Document struct {
	v       js.Value
	handles map[int]*Node
	next    int
}

// Global returns the page's document.
func Global() *Document {
	return New(js.Global().Get("document"))
}

// New wraps doc.
func New(doc js.Value) *Document {
	return &Document{v: doc, handles: make(map[int]*Node)}
}

// Value returns the underlying document.
func (d *Document) Value() js.Value { return d.v }

// Root returns the document body.
func (d *Document) Root() *Node {
	return d.wrap(d.v.Get("body"))
}

// Query returns the first element matching selector, or nil.
func (d *Document) Query(selector string) (*Node, error) {
	var n js.Value
	if err := catch(func() { n = d.v.Call("querySelector", selector) }); err != nil {
		return nil, err
	}
	return d.wrap(n), nil
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) (dom.Node, error) {
	var el js.Value
	if err := catch(func() { el = d.v.Call("createElement", tag) }); err != nil {
		return nil, err
	}
	return d.wrap(el), nil
}

// ParseMarkup parses markup through a template element and returns its
// first node, detached.
func (d *Document) ParseMarkup(markup string) (dom.Node, error) {
	var first js.Value
	err := catch(func() {
		tpl := d.v.Call("createElement", "template")
		tpl.Set("innerHTML", markup)
		content := tpl.Get("content")
		first = content.Get("firstChild")
		if truthy(first) {
			content.Call("removeChild", first)
		}
	})
	if err != nil {
		return nil, err
	}
	if !truthy(first) {
		return nil, dom.ErrNoNode
	}
	return d.wrap(first), nil
}

// Listen attaches fn for eventType on the document.
func (d *Document) Listen(eventType string, fn func(dom.NativeEvent)) dom.Release {
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			fn(&Event{v: args[0], doc: d})
		}
		return nil
	})
	// Capture, so events that do not bubble (focus, blur, mouseenter) still
	// reach the document.
	d.v.Call("addEventListener", eventType, cb, true)

	var once sync.Once
	return func() {
		once.Do(func() {
			d.v.Call("removeEventListener", eventType, cb, true)
			cb.Release()
		})
	}
}

// Forget drops the handles of n and its descendants if n is detached, so
// the page can collect the nodes.
func (d *Document) Forget(n dom.Node) {
	node, ok := n.(*Node)
	if !ok || node == nil || node.doc != d || node.v.Get("isConnected").Bool() {
		return
	}
	d.forget(node.v)
}

func (d *Document) forget(v js.Value) {
	if tok := v.Get(tokenProp); tok.Type() == js.TypeNumber {
		delete(d.handles, tok.Int())
		v.Delete(tokenProp)
	}
	for c := v.Get("firstChild"); truthy(c); c = c.Get("nextSibling") {
		d.forget(c)
	}
}

// Handles returns the number of live node handles.
func (d *Document) Handles() int {
	return len(d.handles)
}

// wrap returns the stable handle for v, or nil for null and undefined.
func (d *Document) wrap(v js.Value) *Node {
	if !truthy(v) {
		return nil
	}
	if tok := v.Get(tokenProp); tok.Type() == js.TypeNumber {
		if n, ok := d.handles[tok.Int()]; ok {
			return n
		}
	}
	d.next++
	v.Set(tokenProp, d.next)
	n := &Node{v: v, doc: d}
	d.handles[d.next] = n
	return n
}

func truthy(v js.Value) bool {
	return !v.IsNull() && !v.IsUndefined()
}

// catch runs fn and converts a thrown JS exception into an error.
func catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if jsErr, ok := r.(js.Error); ok {
				err = jsErr
				return
			}
			err = fmt.Errorf("jsdom: %v", r)
		}
	}()
	fn()
	return nil
}
