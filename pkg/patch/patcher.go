package patch

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/dom"
	"github.com/vango-dev/domsync/pkg/events"
	"github.com/vango-dev/domsync/pkg/identity"
	"github.com/vango-dev/domsync/pkg/telemetry"
	"github.com/vango-dev/domsync/pkg/view"
)

// Option configures a Patcher.
type Option func(*Patcher)

// WithLogger sets the logger for the patcher and its event delegator.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Patcher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink for the patcher and its event delegator.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Patcher) {
		p.metrics = m
	}
}

// WithTracer sets the tracer used for transaction spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Patcher) {
		p.tracer = tracer
	}
}

// Patcher applies transactions to a live tree under root. It owns the
// identity map and the event delegator.
//
// A Patcher is not safe for concurrent use. Callers serialize Patch calls
// and any reads of the tree, e.g. through a single goroutine.
type Patcher struct {
	root    dom.Node
	doc     dom.Document
	nodes   *identity.Map
	events  *events.Delegator
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// New creates a Patcher mounting under root. Delegated events are routed to
// manager.
func New(root dom.Node, doc dom.Document, manager events.Manager, opts ...Option) *Patcher {
	p := &Patcher{
		root:   root,
		doc:    doc,
		nodes:  identity.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracer == nil {
		p.tracer = telemetry.Tracer("")
	}
	p.events = events.NewDelegator(doc, p.nodes, manager,
		events.WithLogger(p.logger),
		events.WithMetrics(p.metrics),
	)
	return p
}

// Root returns the node Mount appends to.
func (p *Patcher) Root() dom.Node { return p.root }

// NodeFor returns the node registered for id.
func (p *Patcher) NodeFor(id string) (dom.Node, bool) { return p.nodes.NodeFor(id) }

// IDFor returns the id registered for node.
func (p *Patcher) IDFor(node dom.Node) (string, bool) { return p.nodes.IDFor(node) }

// Identity returns the identity map. Callers must not mutate it.
func (p *Patcher) Identity() *identity.Map { return p.nodes }

// Events returns the event delegator.
func (p *Patcher) Events() *events.Delegator { return p.events }

// Close detaches every native listener owned by the patcher.
func (p *Patcher) Close() {
	p.events.Close()
}

// Patch applies tx in three fixed phases: patches, removes, events. It
// stops at the first contract violation or host failure and returns it as a
// coded *errors.Error; work already done is not rolled back, so the caller
// should treat the tree as out of sync and remount.
//
// Patch runs to completion once started. ctx carries the trace span only.
func (p *Patcher) Patch(ctx context.Context, tx *Transaction) (err error) {
	if tx == nil {
		return errors.New("DS301").WithDetail("transaction is nil")
	}
	nPatches, nRemoves, nEvents := tx.Counts()

	start := time.Now()
	_, span := telemetry.StartPatch(ctx, p.tracer, telemetry.TransactionShape{
		Patches: nPatches,
		Removes: nRemoves,
		Events:  nEvents,
	})
	defer func() {
		p.metrics.ObserveTransaction(time.Since(start).Seconds(), errors.Code(err))
		p.metrics.SetRegisteredIDs(p.nodes.Len())
		telemetry.EndSpan(span, err, attribute.Int("domsync.registered_ids", p.nodes.Len()))
		if err != nil {
			p.logger.Error("transaction aborted", "error", err, "registered", p.nodes.Len())
		}
	}()

	if err = p.applyPatches(tx); err != nil {
		return err
	}
	if err = p.applyRemoves(tx); err != nil {
		return err
	}
	p.applyEvents(tx)

	p.logger.Debug("transaction applied",
		"patches", nPatches,
		"removes", nRemoves,
		"events", nEvents,
		"registered", p.nodes.Len(),
	)
	return nil
}

func (p *Patcher) applyPatches(tx *Transaction) error {
	for pair := tx.Patches.Oldest(); pair != nil; pair = pair.Next() {
		id := pair.Key
		// Resolved once: patches earlier in the list that re-register id do
		// not change the node later patches in the same list target.
		node, _ := p.nodes.NodeFor(id)
		for _, patch := range pair.Value {
			if err := p.apply(id, node, patch); err != nil {
				e := errors.FromError(err, "DS203")
				if e.ID == "" {
					e.WithID(id)
				}
				if e.Patch == "" {
					e.WithPatch(patch.Kind.String())
				}
				return e
			}
			p.metrics.RecordPatch(patch.Kind.String())
		}
	}
	return nil
}

func (p *Patcher) apply(id string, node dom.Node, patch Patch) error {
	switch patch.Kind {
	case KindMount:
		if patch.View == nil {
			return errors.New("DS105")
		}
		created, err := p.materialize(id, patch.View)
		if err != nil {
			return err
		}
		if err := p.root.AppendChild(created); err != nil {
			return errors.New("DS203").Wrap(err)
		}
		return nil

	case KindInsert:
		if patch.View == nil {
			return errors.New("DS105")
		}
		if node == nil {
			return errors.New("DS101")
		}
		created, err := p.materialize(patch.ChildID, patch.View)
		if err != nil {
			return err
		}
		return insertAt(node, created, patch.Index)

	case KindReplace:
		if patch.View == nil {
			return errors.New("DS105")
		}
		if node == nil {
			return errors.New("DS101")
		}
		parent := node.Parent()
		if parent == nil {
			return errors.New("DS102")
		}
		created, err := p.materialize(id, patch.View)
		if err != nil {
			return err
		}
		if err := parent.ReplaceChild(created, node); err != nil {
			return errors.New("DS203").Wrap(err)
		}
		p.release(node)
		return nil

	case KindOrder:
		if patch.Order == nil {
			return errors.New("DS105")
		}
		if node == nil {
			return errors.New("DS101")
		}
		return reorder(node, *patch.Order, p.release)

	case KindProps:
		if node == nil {
			return errors.New("DS101")
		}
		return applyProps(node, patch.PrevProps, patch.Diff)

	default:
		return errors.New("DS303").WithDetailf("kind %d", patch.Kind)
	}
}

// insertAt places child before the current child at index+1, or appends it.
// index is the child's final position; the sibling that ends up after it is
// the one currently one slot further along.
func insertAt(parent, child dom.Node, index int) error {
	children := parent.Children()
	var err error
	if next := index + 1; next >= 0 && next < len(children) {
		err = parent.InsertBefore(child, children[next])
	} else {
		err = parent.AppendChild(child)
	}
	if err != nil {
		return errors.New("DS203").Wrap(err)
	}
	return nil
}

func (p *Patcher) applyRemoves(tx *Transaction) error {
	for pair := tx.Removes.Oldest(); pair != nil; pair = pair.Next() {
		id, v := pair.Key, pair.Value
		if node, ok := p.nodes.NodeFor(id); ok {
			parent := node.Parent()
			if parent == nil {
				return errors.New("DS102").WithID(id).WithDetail("removed node is not attached")
			}
			if err := parent.RemoveChild(node); err != nil {
				return errors.New("DS203").WithID(id).Wrap(err)
			}
			p.release(node)
		}
		p.purge(id, v)
		p.metrics.RecordRemove()
	}
	return nil
}

// release lets a host that caches handles drop a detached subtree.
func (p *Patcher) release(node dom.Node) {
	if f, ok := p.doc.(dom.Forgetter); ok {
		f.Forget(node)
	}
}

// purge unregisters id and, while ids are found, every descendant id derived
// from v the same way materialization derived them.
func (p *Patcher) purge(id string, v *view.View) {
	if _, ok := p.nodes.RemoveByID(id); !ok {
		return
	}
	p.events.Forget(id)
	if v == nil || v.Kind != view.KindData {
		return
	}
	for i, child := range v.Children {
		p.purge(view.ChildID(id, child, i), child)
	}
}

func (p *Patcher) applyEvents(tx *Transaction) {
	for pair := tx.Events.Oldest(); pair != nil; pair = pair.Next() {
		id := pair.Key
		if _, ok := p.nodes.NodeFor(id); !ok {
			p.logger.Debug("event subscription for unknown id", "id", id)
			continue
		}
		if pair.Value == nil {
			continue
		}
		for ev := pair.Value.Oldest(); ev != nil; ev = ev.Next() {
			if ev.Value {
				p.events.Listen(ev.Key, id)
			} else {
				p.events.Unlisten(ev.Key, id)
			}
		}
	}
}
