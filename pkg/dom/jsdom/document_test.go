//go:build js && wasm

package jsdom

import (
	"syscall/js"
	"testing"

	"github.com/vango-dev/domsync/pkg/dom"
)

// browserDocument returns the page document, skipping under runners that
// have no DOM.
func browserDocument(t *testing.T) *Document {
	t.Helper()
	if !truthy(js.Global().Get("document")) {
		t.Skip("no DOM in this runtime")
	}
	return Global()
}

func TestListenSeesNonBubblingEvents(t *testing.T) {
	d := browserDocument(t)
	input, err := d.CreateElement("input")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Root().AppendChild(input); err != nil {
		t.Fatal(err)
	}
	defer d.Root().RemoveChild(input)

	var got []string
	release := d.Listen("focus", func(e dom.NativeEvent) {
		if e.Target() == input {
			got = append(got, e.Type())
		}
	})
	defer release()

	ev := js.Global().Get("Event").New("focus", map[string]any{"bubbles": false})
	input.(*Node).Value().Call("dispatchEvent", ev)

	if len(got) != 1 {
		t.Errorf("focus reached the document %d times, want 1", len(got))
	}
}

func TestForgetDropsDetachedHandles(t *testing.T) {
	d := New(js.Global().Get("document"))
	if !truthy(d.Value()) {
		t.Skip("no DOM in this runtime")
	}
	root := d.Root()
	base := d.Handles()

	for i := 0; i < 50; i++ {
		n, err := d.ParseMarkup("<div><span>x</span></div>")
		if err != nil {
			t.Fatal(err)
		}
		if err := root.AppendChild(n); err != nil {
			t.Fatal(err)
		}
		_ = n.Children()[0].Children()
		if err := root.RemoveChild(n); err != nil {
			t.Fatal(err)
		}
		d.Forget(n)
	}
	if got := d.Handles(); got != base {
		t.Errorf("handles = %d, want %d", got, base)
	}
}
