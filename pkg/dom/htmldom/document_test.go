package htmldom

import (
	"errors"
	"testing"

	"github.com/vango-dev/domsync/pkg/dom"
)

func mustCreate(t *testing.T, d *Document, tag string) *Node {
	t.Helper()
	n, err := d.CreateElement(tag)
	if err != nil {
		t.Fatalf("CreateElement(%q): %v", tag, err)
	}
	return n.(*Node)
}

func TestParseMarkup(t *testing.T) {
	d := New()

	n, err := d.ParseMarkup(`<div class="a"><span>x</span><p>y</p></div>`)
	if err != nil {
		t.Fatalf("ParseMarkup: %v", err)
	}
	if n.Parent() != nil {
		t.Error("parsed node should be detached")
	}
	node := n.(*Node)
	if node.Tag() != "div" {
		t.Errorf("Tag = %q, want div", node.Tag())
	}
	if got := len(node.Children()); got != 2 {
		t.Fatalf("children = %d, want 2", got)
	}
	if got := node.TextContent(); got != "xy" {
		t.Errorf("TextContent = %q, want xy", got)
	}

	if _, err := d.ParseMarkup(""); !errors.Is(err, dom.ErrNoNode) {
		t.Errorf("empty markup err = %v, want ErrNoNode", err)
	}
}

func TestHandleIdentity(t *testing.T) {
	d := New()
	parent := mustCreate(t, d, "ul")
	child := mustCreate(t, d, "li")
	if err := parent.AppendChild(child); err != nil {
		t.Fatal(err)
	}

	if parent.Children()[0] != dom.Node(child) {
		t.Error("Children should return the same handle")
	}
	if child.Parent() != dom.Node(parent) {
		t.Error("Parent should return the same handle")
	}

	twin := mustCreate(t, d, "li")
	if dom.Node(twin) == dom.Node(child) {
		t.Error("content-identical nodes must not compare equal")
	}
}

func TestTreeMutations(t *testing.T) {
	d := New()
	root := d.Root()
	a, b, c := mustCreate(t, d, "a"), mustCreate(t, d, "b"), mustCreate(t, d, "i")

	for _, n := range []*Node{a, b} {
		if err := root.AppendChild(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := root.InsertBefore(c, a); err != nil {
		t.Fatal(err)
	}
	if got := d.InnerHTML(root); got != "<i></i><a></a><b></b>" {
		t.Fatalf("after InsertBefore = %s", got)
	}

	// Moving an attached node detaches it first.
	if err := root.AppendChild(c); err != nil {
		t.Fatal(err)
	}
	if got := d.InnerHTML(root); got != "<a></a><b></b><i></i>" {
		t.Fatalf("after move = %s", got)
	}

	s := mustCreate(t, d, "s")
	if err := root.ReplaceChild(s, b); err != nil {
		t.Fatal(err)
	}
	if b.Parent() != nil {
		t.Error("replaced node should be detached")
	}
	if got := d.InnerHTML(root); got != "<a></a><s></s><i></i>" {
		t.Fatalf("after ReplaceChild = %s", got)
	}

	if err := root.RemoveChild(a); err != nil {
		t.Fatal(err)
	}
	if err := root.RemoveChild(a); !errors.Is(err, dom.ErrNotChild) {
		t.Errorf("second RemoveChild err = %v, want ErrNotChild", err)
	}
	if err := root.InsertBefore(a, b); !errors.Is(err, dom.ErrNotChild) {
		t.Errorf("InsertBefore detached ref err = %v, want ErrNotChild", err)
	}
	if err := root.InsertBefore(a, nil); err != nil {
		t.Errorf("InsertBefore(nil ref) err = %v", err)
	}
}

func TestHierarchyRejected(t *testing.T) {
	d := New()
	outer := mustCreate(t, d, "div")
	inner := mustCreate(t, d, "div")
	if err := outer.AppendChild(inner); err != nil {
		t.Fatal(err)
	}
	if err := inner.AppendChild(outer); !errors.Is(err, ErrHierarchy) {
		t.Errorf("err = %v, want ErrHierarchy", err)
	}

	other := New()
	foreign := mustCreate(t, other, "p")
	if err := outer.AppendChild(foreign); err == nil {
		t.Error("appending a node from another document should fail")
	}
}

func TestAttributesAndProperties(t *testing.T) {
	d := New()
	n := mustCreate(t, d, "input")

	if err := n.SetAttribute("Value", "1"); err != nil {
		t.Fatal(err)
	}
	if v, ok := n.Attribute("value"); !ok || v != "1" {
		t.Errorf("Attribute = %q, %v", v, ok)
	}
	if err := n.SetAttribute("bad name", "x"); err == nil {
		t.Error("SetAttribute should reject names with spaces")
	}
	n.RemoveAttribute("value")
	if _, ok := n.Attribute("value"); ok {
		t.Error("attribute should be removed")
	}

	n.SetProperty("dataset", map[string]any{"a": 1.0})
	if v, ok := n.Property("dataset"); !ok || v.(map[string]any)["a"] != 1.0 {
		t.Errorf("Property = %v, %v", v, ok)
	}
	n.SetProperty("dataset", nil)
	if _, ok := n.Property("dataset"); ok {
		t.Error("nil should reset the property")
	}

	n.SetProperty("className", "big")
	if v, _ := n.Attribute("class"); v != "big" {
		t.Errorf("className should reflect to class, got %q", v)
	}
	n.SetProperty("className", nil)
	if _, ok := n.Attribute("class"); ok {
		t.Error("nil className should remove class")
	}

	reflectedProps := []struct {
		prop  string
		value any
		want  string
	}{
		{"title", "hello", `<input title="hello"/>`},
		{"title", "", `<input title=""/>`},
		{"htmlFor", "x", `<input for="x"/>`},
		{"placeholder", "type here", `<input placeholder="type here"/>`},
	}
	for _, tt := range reflectedProps {
		m := mustCreate(t, d, "input")
		m.SetProperty(tt.prop, tt.value)
		if got := d.Render(m); got != tt.want {
			t.Errorf("SetProperty(%q, %q) renders %s, want %s", tt.prop, tt.value, got, tt.want)
		}
	}

	p := mustCreate(t, d, "p")
	p.SetProperty("textContent", "hello")
	if p.TextContent() != "hello" {
		t.Errorf("TextContent = %q", p.TextContent())
	}
}

func TestStyle(t *testing.T) {
	d := New()
	n := mustCreate(t, d, "div")

	n.SetStyle("color", "#f00")
	n.SetStyle("z-index", "2")
	if got, _ := n.Attribute("style"); got != "color: #f00; z-index: 2;" {
		t.Errorf("style attr = %q", got)
	}
	if n.Style("color") != "#f00" {
		t.Errorf("Style(color) = %q", n.Style("color"))
	}

	n.SetStyle("color", "")
	if n.Style("color") != "" {
		t.Error("color should be cleared")
	}
	n.SetStyle("z-index", "")
	if _, ok := n.Attribute("style"); ok {
		t.Error("empty style should drop the attribute")
	}

	parsed, err := d.ParseMarkup(`<p style="color: red;font-size:12px"></p>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := parsed.(*Node).Style("font-size"); got != "12px" {
		t.Errorf("parsed Style(font-size) = %q", got)
	}
}

func TestDispatch(t *testing.T) {
	d := New()
	btn := mustCreate(t, d, "button")

	var got []string
	release := d.Listen("click", func(e dom.NativeEvent) {
		if e.Target() != dom.Node(btn) {
			t.Error("target handle mismatch")
		}
		got = append(got, e.Fields()["type"].(string))
	})
	d.Listen("click", func(dom.NativeEvent) { got = append(got, "second") })

	if d.Dispatch(btn, "click", nil) {
		t.Error("detached target should not reach document listeners")
	}

	if err := d.Root().AppendChild(btn); err != nil {
		t.Fatal(err)
	}
	if !d.Dispatch(btn, "click", map[string]any{"button": 0}) {
		t.Fatal("Dispatch should deliver")
	}
	if len(got) != 2 || got[0] != "click" || got[1] != "second" {
		t.Errorf("listener order = %v", got)
	}

	if d.ListenerCount("click") != 2 {
		t.Errorf("ListenerCount = %d, want 2", d.ListenerCount("click"))
	}
	release()
	release()
	if d.ListenerCount("click") != 1 {
		t.Errorf("ListenerCount after release = %d, want 1", d.ListenerCount("click"))
	}
	if d.ListenerTotal() != 1 {
		t.Errorf("ListenerTotal = %d, want 1", d.ListenerTotal())
	}
	if d.Dispatch(btn, "input", nil) {
		t.Error("no listeners for input")
	}
}

func TestCreateElementRejectsBadTag(t *testing.T) {
	if _, err := New().CreateElement("a b"); err == nil {
		t.Error("CreateElement should reject invalid tag")
	}
}

func TestForgetDetachedSubtrees(t *testing.T) {
	d := New()
	root := d.Root()
	base := d.Handles()

	for i := 0; i < 100; i++ {
		n, err := d.ParseMarkup("<div><span>x</span></div>")
		if err != nil {
			t.Fatal(err)
		}
		if err := root.AppendChild(n); err != nil {
			t.Fatal(err)
		}
		_ = n.Children()[0].Children()
		if err := root.RemoveChild(n); err != nil {
			t.Fatal(err)
		}
		d.Forget(n)
	}
	if got := d.Handles(); got != base {
		t.Errorf("handles = %d, want %d", got, base)
	}

	kept := mustCreate(t, d, "p")
	if err := root.AppendChild(kept); err != nil {
		t.Fatal(err)
	}
	d.Forget(kept)
	if root.Children()[0] != dom.Node(kept) {
		t.Error("Forget should leave connected nodes alone")
	}
}
