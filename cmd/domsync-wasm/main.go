//go:build js && wasm

// Command domsync-wasm runs the patcher inside a browser. Transactions
// arrive as "viewtransaction" DOM events; delegated events leave as
// "viewevent" CustomEvents whose detail is {id, name, data}.
package main

import (
	"context"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/vango-dev/domsync/pkg/dom/jsdom"
	"github.com/vango-dev/domsync/pkg/events"
	"github.com/vango-dev/domsync/pkg/patch"
)

// EventName is the CustomEvent type delegated events are emitted as.
const EventName = "viewevent"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	doc := jsdom.Global()

	root := doc.Root()
	if sel := js.Global().Get("domsyncRoot"); sel.Type() == js.TypeString {
		n, err := doc.Query(sel.String())
		if err != nil || n == nil {
			logger.Error("root not found", "selector", sel.String(), "error", err)
			return
		}
		root = n
	}

	manager := events.ManagerFunc(func(id string, e *events.Event) {
		jsdom.Emit(doc, EventName, map[string]any{
			"id":   id,
			"name": e.Name,
			"data": e.Data,
		})
	})
	p := patch.New(root, doc, manager, patch.WithLogger(logger))

	ctx := context.Background()
	jsdom.OnTransaction(doc, func(tx *patch.Transaction, err error) {
		if err != nil {
			logger.Error("decode transaction", "error", err)
			return
		}
		if err := p.Patch(ctx, tx); err != nil {
			logger.Error("patch failed; remount required", "error", err)
		}
	})

	logger.Info("domsync ready")
	select {}
}
