package events

import (
	"encoding/json"
	"strings"
)

// Event is the synthesized event handed to a Manager.
type Event struct {
	// Name is the DOM event type without any "on" prefix.
	Name string

	// Data is a snapshot of the native event's enumerable, non-function
	// properties in the generic value model.
	Data map[string]any

	propagation bool
}

// NewEvent creates an event that continues propagating.
func NewEvent(name string, data map[string]any) *Event {
	if data == nil {
		data = map[string]any{}
	}
	return &Event{Name: name, Data: data, propagation: true}
}

// StopPropagation stops framework-level propagation. The native event is
// not affected.
func (e *Event) StopPropagation() {
	e.propagation = false
}

// Propagation reports whether the event should keep propagating.
func (e *Event) Propagation() bool {
	return e.propagation
}

// MarshalJSON encodes the event with its propagation flag.
func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name        string         `json:"name"`
		Data        map[string]any `json:"data"`
		Propagation bool           `json:"propagation"`
	}{e.Name, e.Data, e.propagation})
}

// Manager routes synthesized events to application handlers.
type Manager interface {
	Dispatch(id string, e *Event)
}

// ManagerFunc adapts a function to Manager.
type ManagerFunc func(id string, e *Event)

// Dispatch implements Manager.
func (f ManagerFunc) Dispatch(id string, e *Event) {
	f(id, e)
}

// nativeOn lists DOM event types that themselves start with "on".
var nativeOn = map[string]bool{
	"online": true,
}

// NormalizeName strips a leading "on" from an event name ("onclick" → "click").
func NormalizeName(name string) string {
	if nativeOn[name] {
		return name
	}
	if len(name) > 2 && strings.HasPrefix(name, "on") {
		return name[2:]
	}
	return name
}
