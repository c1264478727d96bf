// Package view provides the immutable view tree consumed by the patch engine.
//
// A View is either a Text leaf or a Data element with a tag name, ordered
// props and ordered children. Views are produced upstream by a diff step and
// arrive here already built; this package only describes, serializes and
// addresses them.
//
// # Props
//
// Props is an ordered map from prop name to a JSON-like value. The keys
// "attributes" and "style" are structural: their object values are applied
// entry by entry. Any other object value is assigned as a node property.
// Scalars become attributes.
//
//	view.Data("a", view.PropsOf(
//	    "href", "/home",
//	    "style", view.PropsOf("color", "#f00"),
//	), view.Text("Home"))
//
// # Ids
//
// DeriveID computes a child's virtual-node id from its parent id, its key
// (if any) and its position. The same function is used when a subtree is
// materialized and when it is purged, so both traversals agree.
//
// # Markup
//
// ToMarkupString serializes a subtree to HTML for bulk materialization. Text
// leaves render as a span so that every view maps to exactly one element.
package view
