//go:build js && wasm

package jsdom

import (
	"strings"
	"syscall/js"

	"github.com/vango-dev/domsync/pkg/dom"
	"github.com/vango-dev/domsync/pkg/patch"
)

// TransactionEvent is the DOM event type that carries transactions.
const TransactionEvent = "viewtransaction"

// OnTransaction calls fn for every "viewtransaction" event on the document.
// The event's transaction field holds the JSON encoding, either as a string
// or as a plain object.
func OnTransaction(d *Document, fn func(*patch.Transaction, error)) dom.Release {
	return d.Listen(TransactionEvent, func(ev dom.NativeEvent) {
		raw := ev.(*Event).v.Get("transaction")
		if raw.Type() != js.TypeString {
			raw = js.Global().Get("JSON").Call("stringify", raw)
		}
		fn(patch.DecodeTransaction(strings.NewReader(raw.String())))
	})
}

// Emit dispatches a CustomEvent named name on the document with detail.
func Emit(d *Document, name string, detail map[string]any) {
	ev := js.Global().Get("CustomEvent").New(name, map[string]any{
		"detail": toJS(detail),
	})
	d.v.Call("dispatchEvent", ev)
}
