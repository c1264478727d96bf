package view

import "fmt"

// Kind is the view type discriminator.
type Kind uint8

const (
	KindText Kind = iota // Text leaf
	KindData             // Element with props and children
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindData:
		return "Data"
	default:
		return "Unknown"
	}
}

// View is one node of the view tree.
type View struct {
	Kind     Kind    // Node type
	Text     string  // For KindText
	Tag      string  // Element tag name (e.g., "div")
	Props    *Props  // Attributes, style and properties
	Children []*View // Child views
	Key      string  // Reconciliation key, "" when unkeyed
}

// Text creates a text leaf.
func Text(content string) *View {
	return &View{
		Kind: KindText,
		Text: content,
	}
}

// Textf creates a formatted text leaf.
func Textf(format string, args ...any) *View {
	return Text(fmt.Sprintf(format, args...))
}

// Data creates an element view. A nil props is treated as empty.
func Data(tag string, props *Props, children ...*View) *View {
	if props == nil {
		props = NewProps()
	}
	return &View{
		Kind:     KindData,
		Tag:      tag,
		Props:    props,
		Children: children,
	}
}

// WithKey sets the reconciliation key and returns the view.
func (v *View) WithKey(key string) *View {
	v.Key = key
	return v
}

// HasKey reports whether the view carries a reconciliation key.
func (v *View) HasKey() bool {
	return v != nil && v.Key != ""
}

// Count returns the number of views in the subtree rooted at v.
func (v *View) Count() int {
	if v == nil {
		return 0
	}
	n := 1
	for _, child := range v.Children {
		n += child.Count()
	}
	return n
}
