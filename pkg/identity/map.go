// Package identity maintains the bijection between virtual-node ids and live
// host nodes.
//
// Nodes are keyed by handle equality, which hosts guarantee to be native
// reference equality: two content-identical nodes are distinct keys.
package identity

import (
	"sort"

	"github.com/vango-dev/domsync/pkg/dom"
)

// Map is a bidirectional id ↔ node table. It is not safe for concurrent
// mutation; concurrent lookups are fine.
type Map struct {
	nodes map[string]dom.Node
	ids   map[dom.Node]string
}

// New creates an empty Map.
func New() *Map {
	return &Map{
		nodes: make(map[string]dom.Node),
		ids:   make(map[dom.Node]string),
	}
}

// Insert maps id to node in both directions. Any previous node of id and any
// previous id of node are unlinked first, so the map stays a bijection.
func (m *Map) Insert(id string, node dom.Node) {
	if prev, ok := m.nodes[id]; ok && prev != node {
		delete(m.ids, prev)
	}
	if prevID, ok := m.ids[node]; ok && prevID != id {
		delete(m.nodes, prevID)
	}
	m.nodes[id] = node
	m.ids[node] = id
}

// RemoveByID removes id and returns the node it mapped to.
func (m *Map) RemoveByID(id string) (dom.Node, bool) {
	node, ok := m.nodes[id]
	if !ok {
		return nil, false
	}
	delete(m.nodes, id)
	delete(m.ids, node)
	return node, true
}

// RemoveByNode removes node and returns the id it mapped to. Used when a
// node is detached by something other than a transaction.
func (m *Map) RemoveByNode(node dom.Node) (string, bool) {
	id, ok := m.ids[node]
	if !ok {
		return "", false
	}
	delete(m.ids, node)
	delete(m.nodes, id)
	return id, true
}

// NodeFor returns the node registered for id.
func (m *Map) NodeFor(id string) (dom.Node, bool) {
	node, ok := m.nodes[id]
	return node, ok
}

// IDFor returns the id registered for node.
func (m *Map) IDFor(node dom.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	id, ok := m.ids[node]
	return id, ok
}

// Len returns the number of registered ids.
func (m *Map) Len() int {
	return len(m.nodes)
}

// IDs returns the registered ids in sorted order.
func (m *Map) IDs() []string {
	ids := make([]string, 0, len(m.nodes))
	for id := range m.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Check verifies the bijection and returns the ids that violate it.
func (m *Map) Check() []string {
	var bad []string
	for id, node := range m.nodes {
		if back, ok := m.ids[node]; !ok || back != id {
			bad = append(bad, id)
		}
	}
	if len(m.ids) != len(m.nodes) {
		for node, id := range m.ids {
			if fwd, ok := m.nodes[id]; !ok || fwd != node {
				bad = append(bad, id)
			}
		}
	}
	sort.Strings(bad)
	return bad
}
