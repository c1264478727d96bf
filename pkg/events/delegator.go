package events

import (
	"log/slog"
	"sort"

	"github.com/vango-dev/domsync/pkg/dom"
	"github.com/vango-dev/domsync/pkg/telemetry"
	"github.com/vango-dev/domsync/pkg/view"
)

// Resolver maps a live node back to its id.
type Resolver interface {
	IDFor(node dom.Node) (string, bool)
}

// Option configures a Delegator.
type Option func(*Delegator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Delegator) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(d *Delegator) {
		d.metrics = m
	}
}

// Delegator attaches one document-level native listener per event name and
// routes events to the Manager by the id of their exact target.
//
// Subscribers are tracked per name as a set of ids; the native listener lives
// while the set is non-empty.
type Delegator struct {
	doc     dom.Document
	ids     Resolver
	manager Manager
	logger  *slog.Logger
	metrics *telemetry.Metrics

	subs     map[string]map[string]struct{}
	releases map[string]dom.Release
}

// NewDelegator creates a Delegator over doc.
func NewDelegator(doc dom.Document, ids Resolver, manager Manager, opts ...Option) *Delegator {
	d := &Delegator{
		doc:      doc,
		ids:      ids,
		manager:  manager,
		logger:   slog.Default(),
		subs:     make(map[string]map[string]struct{}),
		releases: make(map[string]dom.Release),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Listen subscribes id to the named event. The first subscriber for a name
// attaches the native listener; subscribing the same id twice is a no-op.
func (d *Delegator) Listen(name, id string) {
	name = NormalizeName(name)
	set, ok := d.subs[name]
	if !ok {
		set = make(map[string]struct{})
		d.subs[name] = set
	}
	if _, dup := set[id]; dup {
		return
	}
	set[id] = struct{}{}

	if len(set) == 1 {
		d.releases[name] = d.doc.Listen(name, d.handle)
		d.metrics.ListenerAttached()
		d.logger.Debug("native listener attached", "event", name)
	}
}

// Unlisten unsubscribes id from the named event. The last subscriber leaving
// detaches the native listener. Unknown ids are ignored.
func (d *Delegator) Unlisten(name, id string) {
	name = NormalizeName(name)
	set, ok := d.subs[name]
	if !ok {
		return
	}
	if _, ok := set[id]; !ok {
		return
	}
	delete(set, id)
	if len(set) > 0 {
		return
	}

	delete(d.subs, name)
	if release, ok := d.releases[name]; ok {
		release()
		delete(d.releases, name)
		d.metrics.ListenerDetached()
		d.logger.Debug("native listener detached", "event", name)
	}
}

// Forget unsubscribes id from every event and returns how many
// subscriptions were dropped.
func (d *Delegator) Forget(id string) int {
	var names []string
	for name, set := range d.subs {
		if _, ok := set[id]; ok {
			names = append(names, name)
		}
	}
	for _, name := range names {
		d.Unlisten(name, id)
	}
	return len(names)
}

// Count returns the number of subscribers for the named event.
func (d *Delegator) Count(name string) int {
	return len(d.subs[NormalizeName(name)])
}

// Subscribed reports whether id listens to the named event.
func (d *Delegator) Subscribed(name, id string) bool {
	_, ok := d.subs[NormalizeName(name)][id]
	return ok
}

// Listening returns the event names with an attached native listener, sorted.
func (d *Delegator) Listening() []string {
	names := make([]string, 0, len(d.releases))
	for name := range d.releases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close detaches every native listener and drops all subscriptions.
func (d *Delegator) Close() {
	for name, release := range d.releases {
		release()
		d.metrics.ListenerDetached()
		delete(d.releases, name)
	}
	clear(d.subs)
}

func (d *Delegator) handle(native dom.NativeEvent) {
	name := NormalizeName(native.Type())
	id, ok := d.ids.IDFor(native.Target())
	if !ok {
		d.metrics.RecordEvent(name, false)
		d.logger.Debug("event target not in identity map", "event", name)
		return
	}

	e := NewEvent(name, view.NormalizeFields(native.Fields()))
	d.metrics.RecordEvent(name, true)
	if d.manager != nil {
		d.manager.Dispatch(id, e)
	}
}
