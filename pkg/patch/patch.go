package patch

import (
	"encoding/json"
	"fmt"

	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/view"
)

// Kind is the type of patch operation.
type Kind uint8

const (
	KindMount   Kind = iota + 1 // Materialize the whole tree under the root
	KindInsert                  // Materialize a new child at a position
	KindReplace                 // Swap a node for a fresh materialization
	KindOrder                   // Keyed reorder of existing children
	KindProps                   // Sparse property/attribute diff
)

// String returns the wire tag of the kind.
func (k Kind) String() string {
	switch k {
	case KindMount:
		return "Mount"
	case KindInsert:
		return "Insert"
	case KindReplace:
		return "Replace"
	case KindOrder:
		return "Order"
	case KindProps:
		return "Props"
	default:
		return "Unknown"
	}
}

// Patch is one tree or attribute instruction addressed to an id. Which
// fields are meaningful depends on Kind.
type Patch struct {
	Kind Kind

	// View is the subtree to materialize (Mount, Insert) or the next view
	// (Replace).
	View *view.View

	// ChildID is the id the inserted subtree is registered under (Insert).
	ChildID string

	// Index is the final position of the inserted node among its siblings
	// (Insert).
	Index int

	// Prev is the view being replaced (Replace). It is informational only.
	Prev *view.View

	// Order is the keyed reorder (Order).
	Order *OrderOp

	// PrevProps is the node's previous props and Diff the sparse change set
	// (Props). A nil value in Diff unsets the key.
	PrevProps *view.Props
	Diff      *view.Props
}

// Mount creates a Mount patch.
func Mount(v *view.View) Patch {
	return Patch{Kind: KindMount, View: v}
}

// Insert creates an Insert patch.
func Insert(childID string, index int, v *view.View) Patch {
	return Patch{Kind: KindInsert, ChildID: childID, Index: index, View: v}
}

// Replace creates a Replace patch.
func Replace(prev, next *view.View) Patch {
	return Patch{Kind: KindReplace, Prev: prev, View: next}
}

// Order creates an Order patch.
func Order(op OrderOp) Patch {
	return Patch{Kind: KindOrder, Order: &op}
}

// Props creates a Props patch.
func Props(prev, diff *view.Props) Patch {
	return Patch{Kind: KindProps, PrevProps: prev, Diff: diff}
}

// String returns a short description of the patch for logs.
func (p Patch) String() string {
	switch p.Kind {
	case KindInsert:
		return fmt.Sprintf("Insert(%s, %d)", p.ChildID, p.Index)
	case KindOrder:
		if p.Order == nil {
			return "Order(nil)"
		}
		return fmt.Sprintf("Order(-%d, +%d)", len(p.Order.Removes), len(p.Order.Inserts))
	case KindProps:
		return fmt.Sprintf("Props(%d)", p.Diff.Len())
	default:
		return p.Kind.String()
	}
}

// OrderRemove detaches the child at Index of the pre-order snapshot. A
// non-empty Key stashes the node for reinsertion.
type OrderRemove struct {
	Index int
	Key   string
}

// OrderInsert reinserts the node stashed under Key at Index. Entries with an
// empty or unknown key are skipped.
type OrderInsert struct {
	Key   string
	Index int
}

// OrderOp is a two-phase keyed reorder.
type OrderOp struct {
	Removes []OrderRemove
	Inserts []OrderInsert
}

func optionalKey(k string) *string {
	if k == "" {
		return nil
	}
	return &k
}

func keyOf(k *string) string {
	if k == nil {
		return ""
	}
	return *k
}

// MarshalJSON encodes the op as {"removes": [[i, k]], "inserts": [[k, i]]}.
func (op OrderOp) MarshalJSON() ([]byte, error) {
	removes := make([][2]any, len(op.Removes))
	for i, r := range op.Removes {
		removes[i] = [2]any{r.Index, optionalKey(r.Key)}
	}
	inserts := make([][2]any, len(op.Inserts))
	for i, in := range op.Inserts {
		inserts[i] = [2]any{optionalKey(in.Key), in.Index}
	}
	return json.Marshal(struct {
		Removes [][2]any `json:"removes"`
		Inserts [][2]any `json:"inserts"`
	}{removes, inserts})
}

// UnmarshalJSON decodes the tuple form written by MarshalJSON.
func (op *OrderOp) UnmarshalJSON(data []byte) error {
	var raw struct {
		Removes [][2]json.RawMessage `json:"removes"`
		Inserts [][2]json.RawMessage `json:"inserts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("DS301").WithPatch("Order").Wrap(err)
	}

	*op = OrderOp{}
	for _, r := range raw.Removes {
		var rm OrderRemove
		var key *string
		if err := json.Unmarshal(r[0], &rm.Index); err != nil {
			return errors.New("DS301").WithPatch("Order").Wrap(err)
		}
		if err := json.Unmarshal(r[1], &key); err != nil {
			return errors.New("DS301").WithPatch("Order").Wrap(err)
		}
		rm.Key = keyOf(key)
		op.Removes = append(op.Removes, rm)
	}
	for _, r := range raw.Inserts {
		var in OrderInsert
		var key *string
		if err := json.Unmarshal(r[0], &key); err != nil {
			return errors.New("DS301").WithPatch("Order").Wrap(err)
		}
		if err := json.Unmarshal(r[1], &in.Index); err != nil {
			return errors.New("DS301").WithPatch("Order").Wrap(err)
		}
		in.Key = keyOf(key)
		op.Inserts = append(op.Inserts, in)
	}
	return nil
}

// MarshalJSON encodes the patch in its externally tagged form.
func (p Patch) MarshalJSON() ([]byte, error) {
	var payload any
	switch p.Kind {
	case KindMount:
		payload = p.View
	case KindInsert:
		payload = []any{p.ChildID, p.Index, p.View}
	case KindReplace:
		payload = []any{p.Prev, p.View}
	case KindOrder:
		if p.Order == nil {
			return nil, errors.New("DS105").WithPatch("Order")
		}
		payload = p.Order
	case KindProps:
		prev, diff := p.PrevProps, p.Diff
		if prev == nil {
			prev = view.NewProps()
		}
		if diff == nil {
			diff = view.NewProps()
		}
		payload = []any{prev, diff}
	default:
		return nil, errors.New("DS303").WithDetailf("kind %d", p.Kind)
	}
	return json.Marshal(map[string]any{p.Kind.String(): payload})
}

// UnmarshalJSON decodes an externally tagged patch.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return errors.New("DS301").Wrap(err)
	}
	if len(tagged) != 1 {
		return errors.New("DS301").WithDetailf("patch must have exactly one tag, got %d", len(tagged))
	}

	for tag, raw := range tagged {
		if isNull(raw) {
			return errors.New("DS105").WithPatch(tag)
		}
		switch tag {
		case "Mount":
			var v view.View
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			*p = Mount(&v)
		case "Insert":
			var parts [3]json.RawMessage
			if err := unmarshalTuple(raw, parts[:], tag); err != nil {
				return err
			}
			var (
				childID string
				index   int
				v       view.View
			)
			if err := json.Unmarshal(parts[0], &childID); err != nil {
				return errors.New("DS301").WithPatch(tag).Wrap(err)
			}
			if err := json.Unmarshal(parts[1], &index); err != nil {
				return errors.New("DS301").WithPatch(tag).Wrap(err)
			}
			if err := json.Unmarshal(parts[2], &v); err != nil {
				return err
			}
			*p = Insert(childID, index, &v)
		case "Replace":
			var parts [2]json.RawMessage
			if err := unmarshalTuple(raw, parts[:], tag); err != nil {
				return err
			}
			var prev, next view.View
			if err := json.Unmarshal(parts[0], &prev); err != nil {
				return err
			}
			if err := json.Unmarshal(parts[1], &next); err != nil {
				return err
			}
			*p = Replace(&prev, &next)
		case "Order":
			var op OrderOp
			if err := json.Unmarshal(raw, &op); err != nil {
				return err
			}
			*p = Order(op)
		case "Props":
			var parts [2]json.RawMessage
			if err := unmarshalTuple(raw, parts[:], tag); err != nil {
				return err
			}
			prev, diff := view.NewProps(), view.NewProps()
			if !isNull(parts[0]) {
				if err := json.Unmarshal(parts[0], prev); err != nil {
					return errors.New("DS301").WithPatch(tag).Wrap(err)
				}
			}
			if err := json.Unmarshal(parts[1], diff); err != nil {
				return errors.New("DS301").WithPatch(tag).Wrap(err)
			}
			*p = Props(prev, diff)
		default:
			return errors.New("DS303").WithDetailf("unknown tag %q", tag)
		}
	}
	return nil
}

func unmarshalTuple(raw json.RawMessage, parts []json.RawMessage, tag string) error {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return errors.New("DS301").WithPatch(tag).Wrap(err)
	}
	if len(items) != len(parts) {
		return errors.New("DS301").WithPatch(tag).
			WithDetailf("%s payload has %d elements, want %d", tag, len(items), len(parts))
	}
	copy(parts, items)
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
