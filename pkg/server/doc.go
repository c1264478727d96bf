// Package server runs a headless render target behind HTTP and WebSocket.
//
// A Server owns one in-memory document and the Patcher driving it. Every
// access to that document goes through a Runner, which executes jobs on a
// single goroutine, so transactions from any number of connections apply
// one at a time and reads never see a half-applied transaction.
//
// # Routes
//
//	GET  /ws            stream of JSON transactions, one per text frame
//	POST /transactions  JSON array or stream of transactions
//	GET  /snapshot      inner HTML of the root (?minify=true|false)
//	POST /snapshot      render and persist through the configured Store
//	POST /dispatch      fire a native event at the node for an id
//	POST /reset         discard the document and mount a fresh one
//	GET  /healthz       runner status
//	GET  /metrics       Prometheus metrics, when enabled
//
// Each websocket frame is answered with {"seq":n,"ok":bool,"error":"..."}.
// Events that the delegation layer routes to the hub are pushed to every
// connected client as {"event":{"id":"0.1","name":"click","data":{...}}}.
//
// # Failure
//
// A transaction that fails leaves the document partially patched. The
// runner marks the target stale and rejects further transactions with
// DS106 until POST /reset.
//
// # Usage
//
//	srv := server.New(&server.ServerConfig{Address: ":7070"},
//	    server.WithMetrics(telemetry.NewMetrics()),
//	)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
