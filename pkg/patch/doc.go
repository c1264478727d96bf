// Package patch applies transactions of patches to a live document tree.
//
// A Transaction is computed elsewhere by diffing two view trees. The Patcher
// consumes it in three fixed phases:
//
//  1. patches: for each id, Mount, Insert, Replace, Order and Props patches
//     in list order
//  2. removes: detach each removed node and purge its subtree's ids
//  3. events: subscribe or unsubscribe ids from delegated events
//
// Every materialized node is registered in the identity map under an id
// derived from its parent id and its key or position, so later patches can
// address any node at any depth by id.
//
// Basic usage:
//
//	doc := htmldom.New()
//	p := patch.New(doc.Root(), doc, manager)
//
//	tx := patch.NewTransaction().
//	    AddPatch("0", patch.Mount(view.Data("div", nil, view.Text("Count 0"))))
//	if err := p.Patch(ctx, tx); err != nil {
//	    // the tree is out of sync; remount
//	}
package patch
