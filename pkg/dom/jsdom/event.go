//go:build js && wasm

package jsdom

import (
	"sync"
	"syscall/js"

	"github.com/vango-dev/domsync/pkg/dom"
)

var (
	snapshotFn   js.Value
	snapshotOnce sync.Once
)

// primitiveFields copies an event's enumerable primitive properties,
// inherited ones included, into a plain object.
func primitiveFields() js.Value {
	snapshotOnce.Do(func() {
		snapshotFn = js.Global().Get("Function").New("e", `
const o = {};
for (const k in e) {
	const v = e[k];
	const t = typeof v;
	if (t === "string" || t === "number" || t === "boolean") o[k] = v;
}
return o;`)
	})
	return snapshotFn
}

// Event wraps a native DOM event.
type Event struct {
	v   js.Value
	doc *Document
}

func (e *Event) Type() string { return e.v.Get("type").String() }

func (e *Event) Target() dom.Node {
	if t := e.doc.wrap(e.v.Get("target")); t != nil {
		return t
	}
	return nil
}

func (e *Event) Fields() map[string]any {
	obj := primitiveFields().Invoke(e.v)
	keys := js.Global().Get("Object").Call("keys", obj)
	out := make(map[string]any, keys.Length())
	for i := 0; i < keys.Length(); i++ {
		k := keys.Index(i).String()
		v := obj.Get(k)
		switch v.Type() {
		case js.TypeNumber:
			out[k] = v.Float()
		case js.TypeString:
			out[k] = v.String()
		case js.TypeBoolean:
			out[k] = v.Bool()
		}
	}
	return out
}
