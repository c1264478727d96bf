package view

import "strconv"

// IDSeparator joins a parent id and a child segment.
const IDSeparator = "."

// DeriveID returns the id of the child at index under parentID. A non-empty
// key replaces the positional segment, so keyed children keep their id when
// they move.
func DeriveID(parentID, key string, index int) string {
	if key != "" {
		return parentID + IDSeparator + key
	}
	return parentID + IDSeparator + strconv.Itoa(index)
}

// ChildID returns the id of child, positioned at index under parentID.
func ChildID(parentID string, child *View, index int) string {
	key := ""
	if child != nil {
		key = child.Key
	}
	return DeriveID(parentID, key, index)
}

// WalkIDs visits id and every descendant id of v, parents before children,
// children in order.
func WalkIDs(id string, v *View, fn func(id string, v *View)) {
	if v == nil {
		return
	}
	fn(id, v)
	if v.Kind != KindData {
		return
	}
	for i, child := range v.Children {
		WalkIDs(ChildID(id, child, i), child, fn)
	}
}
