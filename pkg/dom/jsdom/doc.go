// Package jsdom implements the dom host over a browser document through
// syscall/js.
//
// Every native node handed out is tagged with a numeric token property so
// that the same node always maps to the same *Node, which keeps handles
// comparable with ==. Bulk markup is parsed through a <template> element.
//
// Transactions reach a page-side patcher as "viewtransaction" DOM events
// whose transaction field carries the JSON encoding; see OnTransaction.
package jsdom
