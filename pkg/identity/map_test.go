package identity

import (
	"testing"

	"github.com/vango-dev/domsync/pkg/dom"
	"github.com/vango-dev/domsync/pkg/dom/htmldom"
)

func newNodes(t *testing.T, n int) []dom.Node {
	t.Helper()
	d := htmldom.New()
	out := make([]dom.Node, n)
	for i := range out {
		node, err := d.CreateElement("span")
		if err != nil {
			t.Fatal(err)
		}
		out[i] = node
	}
	return out
}

func TestInsertAndLookup(t *testing.T) {
	m := New()
	nodes := newNodes(t, 2)

	m.Insert("0", nodes[0])
	m.Insert("0.0", nodes[1])

	if n, ok := m.NodeFor("0"); !ok || n != nodes[0] {
		t.Error("NodeFor(0) mismatch")
	}
	if id, ok := m.IDFor(nodes[1]); !ok || id != "0.0" {
		t.Errorf("IDFor = %q, %v", id, ok)
	}
	if _, ok := m.IDFor(nil); ok {
		t.Error("IDFor(nil) should miss")
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
	if ids := m.IDs(); len(ids) != 2 || ids[0] != "0" || ids[1] != "0.0" {
		t.Errorf("IDs = %v", ids)
	}
}

func TestContentIdenticalNodesAreDistinct(t *testing.T) {
	m := New()
	nodes := newNodes(t, 2)
	m.Insert("a", nodes[0])
	m.Insert("b", nodes[1])

	if id, _ := m.IDFor(nodes[0]); id != "a" {
		t.Errorf("IDFor(first) = %q, want a", id)
	}
	if id, _ := m.IDFor(nodes[1]); id != "b" {
		t.Errorf("IDFor(second) = %q, want b", id)
	}
}

func TestInsertKeepsBijection(t *testing.T) {
	tests := []struct {
		name string
		run  func(m *Map, n []dom.Node)
		want map[string]int
	}{
		{
			name: "overwrite id with new node",
			run: func(m *Map, n []dom.Node) {
				m.Insert("0", n[0])
				m.Insert("0", n[1])
			},
			want: map[string]int{"0": 1},
		},
		{
			name: "move node to new id",
			run: func(m *Map, n []dom.Node) {
				m.Insert("0", n[0])
				m.Insert("1", n[0])
			},
			want: map[string]int{"1": 0},
		},
		{
			name: "reinsert same pair",
			run: func(m *Map, n []dom.Node) {
				m.Insert("0", n[0])
				m.Insert("0", n[0])
			},
			want: map[string]int{"0": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			nodes := newNodes(t, 2)
			tt.run(m, nodes)

			if bad := m.Check(); len(bad) != 0 {
				t.Fatalf("bijection violated for %v", bad)
			}
			if m.Len() != len(tt.want) {
				t.Fatalf("Len = %d, want %d", m.Len(), len(tt.want))
			}
			for id, idx := range tt.want {
				if n, ok := m.NodeFor(id); !ok || n != nodes[idx] {
					t.Errorf("NodeFor(%q) mismatch", id)
				}
				if back, _ := m.IDFor(nodes[idx]); back != id {
					t.Errorf("IDFor(node %d) = %q, want %q", idx, back, id)
				}
			}
		})
	}
}

func TestRemove(t *testing.T) {
	m := New()
	nodes := newNodes(t, 2)
	m.Insert("a", nodes[0])
	m.Insert("b", nodes[1])

	n, ok := m.RemoveByID("a")
	if !ok || n != nodes[0] {
		t.Fatal("RemoveByID should return the node")
	}
	if _, ok := m.IDFor(nodes[0]); ok {
		t.Error("inverse entry should be gone")
	}
	if _, ok := m.RemoveByID("a"); ok {
		t.Error("second RemoveByID should miss")
	}

	id, ok := m.RemoveByNode(nodes[1])
	if !ok || id != "b" {
		t.Fatalf("RemoveByNode = %q, %v", id, ok)
	}
	if _, ok := m.NodeFor("b"); ok {
		t.Error("forward entry should be gone")
	}
	if _, ok := m.RemoveByNode(nodes[1]); ok {
		t.Error("second RemoveByNode should miss")
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}
