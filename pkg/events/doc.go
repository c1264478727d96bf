// Package events implements delegated event handling for patched trees.
//
// Instead of one native listener per node, the Delegator keeps a single
// document-level listener per event name, reference counted by the ids that
// subscribe to it. When a native event fires, its exact target is resolved
// through the identity map and a synthesized Event is handed to the Manager
// together with the target's id. Targets that are not registered are dropped.
//
//	d := events.NewDelegator(doc, identityMap, manager)
//	d.Listen("onclick", "0.1") // attaches the native "click" listener
//	d.Listen("click", "0.2")   // refcount only
//	d.Unlisten("click", "0.1")
//	d.Unlisten("click", "0.2") // detaches
package events
