package patch

import (
	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/dom"
)

// reorder applies op to parent's children in two phases over a snapshot
// taken up front, so indexes never shift while the list is mutated.
//
// Removals detach the snapshot child at each index and stash keyed ones.
// Inserts put stashed nodes back before the snapshot child at index, or
// append when index is past the end of the snapshot. Inserts whose key was
// not stashed belong to a separate Insert patch and are skipped. Removed
// children that were not put back are handed to release.
func reorder(parent dom.Node, op OrderOp, release func(dom.Node)) error {
	snapshot := parent.Children()
	stash := make(map[string]dom.Node, len(op.Removes))
	dropped := make([]dom.Node, 0, len(op.Removes))

	for _, rm := range op.Removes {
		if rm.Index < 0 || rm.Index >= len(snapshot) {
			return errors.New("DS103").WithDetailf("remove index %d, %d children", rm.Index, len(snapshot))
		}
		child := snapshot[rm.Index]
		if rm.Key != "" {
			stash[rm.Key] = child
		}
		if err := parent.RemoveChild(child); err != nil {
			return errors.New("DS203").WithDetailf("remove child %d", rm.Index).Wrap(err)
		}
		dropped = append(dropped, child)
	}

	reinserted := make(map[dom.Node]bool, len(op.Inserts))
	for _, in := range op.Inserts {
		if in.Key == "" {
			continue
		}
		node, ok := stash[in.Key]
		if !ok {
			continue
		}

		var err error
		switch {
		case in.Index < 0:
			return errors.New("DS103").WithDetailf("insert index %d", in.Index)
		case in.Index >= len(snapshot):
			err = parent.AppendChild(node)
		default:
			err = parent.InsertBefore(node, snapshot[in.Index])
		}
		if err != nil {
			return errors.New("DS203").WithDetailf("reinsert key %q at %d", in.Key, in.Index).Wrap(err)
		}
		reinserted[node] = true
	}

	if release != nil {
		for _, child := range dropped {
			if !reinserted[child] {
				release(child)
			}
		}
	}
	return nil
}
