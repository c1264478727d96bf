package htmldom

import "github.com/vango-dev/domsync/pkg/dom"

// Event is a synthetic native event fired by Document.Dispatch.
type Event struct {
	typ    string
	target *Node
	fields map[string]any
}

var _ dom.NativeEvent = (*Event)(nil)

// Type returns the event type.
func (e *Event) Type() string { return e.typ }

// Target returns the node the event was dispatched to.
func (e *Event) Target() dom.Node {
	if e.target == nil {
		return nil
	}
	return e.target
}

// Fields returns a copy of the dispatched fields plus "type".
func (e *Event) Fields() map[string]any {
	out := make(map[string]any, len(e.fields)+1)
	for k, v := range e.fields {
		out[k] = v
	}
	out["type"] = e.typ
	return out
}
