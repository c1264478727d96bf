// Package dom defines the host document interface the patch engine drives.
//
// The engine never touches a concrete DOM. A host (the in-memory htmldom
// package, or jsdom in a browser) supplies Node handles and a Document.
// Handles for the same native node must compare equal with ==, which is what
// lets the identity map key nodes by native reference rather than content.
package dom

import "errors"

// ErrNoNode is returned by ParseMarkup when the markup produced no node.
var ErrNoNode = errors.New("dom: markup produced no node")

// ErrNotChild is returned when a reference node is not a child of the parent.
var ErrNotChild = errors.New("dom: node is not a child of this parent")

// Node is a live host node handle.
type Node interface {
	// Parent returns the parent node, or nil when detached.
	Parent() Node

	// Children returns the current child nodes in document order.
	Children() []Node

	AppendChild(child Node) error
	InsertBefore(child, ref Node) error
	ReplaceChild(newChild, oldChild Node) error
	RemoveChild(child Node) error

	TextContent() string
	SetTextContent(text string)

	SetAttribute(name, value string) error
	RemoveAttribute(name string)

	// SetStyle assigns one style property; "" clears it.
	SetStyle(name, value string)

	// SetProperty assigns a native property; nil resets it.
	SetProperty(name string, value any)
}

// NativeEvent is an event fired by the host.
type NativeEvent interface {
	// Type is the DOM event type, e.g. "click".
	Type() string

	// Target is the node the event was dispatched to, or nil.
	Target() Node

	// Fields snapshots the event's enumerable properties.
	Fields() map[string]any
}

// Release detaches a listener. Calling it more than once is a no-op.
type Release func()

// Document creates nodes and owns document-level listeners.
type Document interface {
	CreateElement(tag string) (Node, error)

	// ParseMarkup parses markup with the host's bulk parser and returns the
	// first node produced, detached.
	ParseMarkup(markup string) (Node, error)

	// Listen attaches a native listener for eventType at the document root.
	Listen(eventType string, fn func(NativeEvent)) Release
}

// Forgetter is implemented by hosts that cache node handles. Forget drops
// the cached handles of a detached subtree rooted at n; connected nodes are
// left alone. Callers must not reattach a forgotten subtree.
type Forgetter interface {
	Forget(n Node)
}
