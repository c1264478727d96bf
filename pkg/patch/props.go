package patch

import (
	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/dom"
	"github.com/vango-dev/domsync/pkg/view"
)

// applyProps applies a sparse props diff to node. prev is the node's
// previous props and tells unset how the key was applied before.
//
//   - nil unsets the key
//   - "attributes" and "style" objects are applied entry by entry
//   - any other object is assigned whole as a property
//   - scalars are set as attributes in their string form
func applyProps(node dom.Node, prev, diff *view.Props) error {
	for _, e := range diff.Entries() {
		switch {
		case e.Value == nil:
			unsetProp(node, e.Key, prev)

		case view.IsObject(e.Value):
			if err := setObjectProp(node, e.Key, e.Value); err != nil {
				return err
			}

		default:
			if err := node.SetAttribute(e.Key, view.ValueString(e.Value)); err != nil {
				return errors.New("DS202").WithDetailf("attribute %q", e.Key).Wrap(err)
			}
		}
	}
	return nil
}

func unsetProp(node dom.Node, key string, prev *view.Props) {
	before, _ := prev.Get(key)

	switch key {
	case view.PropAttributes:
		entries, _ := view.Entries(before)
		for _, attr := range entries {
			node.RemoveAttribute(attr.Key)
		}
	case view.PropStyle:
		entries, _ := view.Entries(before)
		for _, decl := range entries {
			node.SetStyle(decl.Key, "")
		}
	default:
		if _, ok := before.(string); ok {
			node.SetProperty(key, "")
		} else {
			node.SetProperty(key, nil)
		}
	}
}

func setObjectProp(node dom.Node, key string, value any) error {
	switch key {
	case view.PropAttributes:
		entries, _ := view.Entries(value)
		for _, attr := range entries {
			if attr.Value == nil {
				node.RemoveAttribute(attr.Key)
				continue
			}
			if err := node.SetAttribute(attr.Key, view.ValueString(attr.Value)); err != nil {
				return errors.New("DS202").WithDetailf("attribute %q", attr.Key).Wrap(err)
			}
		}
	case view.PropStyle:
		entries, _ := view.Entries(value)
		for _, decl := range entries {
			if decl.Value == nil {
				node.SetStyle(decl.Key, "")
				continue
			}
			node.SetStyle(decl.Key, view.ValueString(decl.Value))
		}
	default:
		node.SetProperty(key, value)
	}
	return nil
}
