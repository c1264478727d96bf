package patch

import (
	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/dom"
	"github.com/vango-dev/domsync/pkg/view"
)

// materialize creates live nodes for v and registers id and every
// descendant id before returning the detached subtree root.
//
// Text views become a span holding the text. Data views are serialized to
// markup, parsed in one call by the host, then walked in lockstep with the
// view so each produced node gets the id the view structure derives for it.
func (p *Patcher) materialize(id string, v *view.View) (dom.Node, error) {
	switch v.Kind {
	case view.KindText:
		node, err := p.doc.CreateElement(view.TextTag)
		if err != nil {
			return nil, errors.New("DS204").WithID(id).Wrap(err)
		}
		node.SetTextContent(v.Text)
		p.nodes.Insert(id, node)
		return node, nil

	case view.KindData:
		markup := view.ToMarkupString(v)
		node, err := p.doc.ParseMarkup(markup)
		if err != nil {
			return nil, errors.New("DS201").WithID(id).WithDetailf("parsing <%s>", v.Tag).Wrap(err)
		}
		if err := p.register(id, node, v); err != nil {
			return nil, err
		}
		return node, nil

	default:
		return nil, errors.New("DS302").WithID(id).WithDetailf("unknown view kind %d", v.Kind)
	}
}

// register assigns id to node and recurses into the children of a Data view.
// Object-valued props that markup cannot carry are set as properties here.
func (p *Patcher) register(id string, node dom.Node, v *view.View) error {
	p.nodes.Insert(id, node)
	if v.Kind != view.KindData {
		return nil
	}

	for _, e := range v.Props.Entries() {
		if e.Key == view.PropAttributes || e.Key == view.PropStyle {
			continue
		}
		if view.IsObject(e.Value) {
			node.SetProperty(e.Key, e.Value)
		}
	}

	children := node.Children()
	if len(children) != len(v.Children) {
		return errors.New("DS104").WithID(id).
			WithDetailf("<%s> produced %d children, view has %d", v.Tag, len(children), len(v.Children))
	}
	for i, child := range v.Children {
		if child == nil {
			return errors.New("DS302").WithID(id).WithDetailf("child %d is null", i)
		}
		if err := p.register(view.ChildID(id, child, i), children[i], child); err != nil {
			return err
		}
	}
	return nil
}
