// Package errors provides structured, coded errors for domsync.
//
// Every failure the engine can report carries a stable code that maps to a
// registered template:
//   - contract: the transaction referenced state the engine does not have
//     (missing node at a patch site, node without a parent, order index out
//     of range). The live tree may now diverge from the logical view tree.
//   - native: the host rejected a mutation or a bulk parse produced no node.
//   - protocol: a transaction or view could not be decoded.
//   - config: configuration could not be loaded or is invalid.
//   - cli: command line usage errors.
//
// # Usage
//
//	err := errors.New("DS101").
//	    WithID("0.1").
//	    WithPatch("Props")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR DS101: No node registered for patch target
//	//
//	//   id 0.1 (Props)
//	//
//	//   Hint: Remount the render target from scratch.
package errors
