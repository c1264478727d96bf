package patch

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/view"
)

func TestPatchJSONWireShape(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		want  string
	}{
		{
			name:  "mount",
			patch: Mount(view.Text("hi")),
			want:  `{"Mount":{"Text":"hi"}}`,
		},
		{
			name:  "insert",
			patch: Insert("0.2", 2, view.Text("x")),
			want:  `{"Insert":["0.2",2,{"Text":"x"}]}`,
		},
		{
			name:  "replace",
			patch: Replace(view.Text("a"), view.Text("b")),
			want:  `{"Replace":[{"Text":"a"},{"Text":"b"}]}`,
		},
		{
			name: "order",
			patch: Order(OrderOp{
				Removes: []OrderRemove{{Index: 1, Key: "B"}, {Index: 0}},
				Inserts: []OrderInsert{{Key: "B", Index: 0}},
			}),
			want: `{"Order":{"removes":[[1,"B"],[0,null]],"inserts":[["B",0]]}}`,
		},
		{
			name:  "props",
			patch: Props(nil, view.PropsOf("title", "t", "hidden", nil)),
			want:  `{"Props":[{},{"title":"t","hidden":null}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.patch)
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != tt.want {
				t.Errorf("json = %s\nwant   %s", b, tt.want)
			}

			var back Patch
			if err := json.Unmarshal(b, &back); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if back.Kind != tt.patch.Kind {
				t.Errorf("kind = %v, want %v", back.Kind, tt.patch.Kind)
			}
		})
	}
}

func TestPatchJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code string
	}{
		{"unknown tag", `{"Move":[]}`, "DS303"},
		{"null payload", `{"Mount":null}`, "DS105"},
		{"two tags", `{"Mount":{"Text":"a"},"Props":[{},{}]}`, "DS301"},
		{"short tuple", `{"Insert":["0.1",1]}`, "DS301"},
		{"bad view", `{"Mount":{"Data":{"props":{}}}}`, "DS302"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Patch
			err := json.Unmarshal([]byte(tt.in), &p)
			if got := errors.Code(err); got != tt.code {
				t.Errorf("code = %q, want %q (%v)", got, tt.code, err)
			}
		})
	}
}

func TestDecodeTransaction(t *testing.T) {
	in := `{
		"patches": {
			"0": [{"Props": [{}, {"class": "x", "style": {"color": "red"}}]}],
			"0.1": [{"Order": {"removes": [[1, "B"]], "inserts": [["B", 0], [null, 2]]}}]
		},
		"removes": {"0.2": {"Text": "gone"}},
		"events": {"0": {"click": true, "input": false}}
	}`

	tx, err := DecodeTransaction(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}

	p, r, e := tx.Counts()
	if p != 2 || r != 1 || e != 2 {
		t.Errorf("Counts = %d, %d, %d; want 2, 1, 2", p, r, e)
	}

	first := tx.Patches.Oldest()
	if first.Key != "0" || first.Next().Key != "0.1" {
		t.Errorf("patch ids out of order: %s, %s", first.Key, first.Next().Key)
	}
	props := first.Value[0]
	if props.Kind != KindProps || props.Diff.Len() != 2 {
		t.Errorf("props patch = %v", props)
	}
	if style, _ := props.Diff.Get("style"); !view.IsObject(style) {
		t.Errorf("style = %#v, want object", style)
	}

	order := first.Next().Value[0].Order
	if order.Removes[0] != (OrderRemove{Index: 1, Key: "B"}) {
		t.Errorf("remove = %+v", order.Removes[0])
	}
	if order.Inserts[1] != (OrderInsert{Index: 2}) {
		t.Errorf("unkeyed insert = %+v", order.Inserts[1])
	}

	removed, ok := tx.Removes.Get("0.2")
	if !ok || removed.Kind != view.KindText || removed.Text != "gone" {
		t.Errorf("removes[0.2] = %+v", removed)
	}

	evs, _ := tx.Events.Get("0")
	if pair := evs.Oldest(); pair.Key != "click" || !pair.Value || pair.Next().Value {
		t.Error("events should keep order and values")
	}
}

func TestTransactionJSONRoundTrip(t *testing.T) {
	tx := NewTransaction().
		AddPatch("0", Mount(view.Data("div", view.PropsOf("id", "root"), view.Text("a")))).
		AddPatch("0", Props(nil, view.PropsOf("title", "t"))).
		AddRemove("1", view.Text("old")).
		SetEvent("0", "click", true)

	b, err := json.Marshal(tx)
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecodeTransaction(strings.NewReader(string(b)))
	if err != nil {
		t.Fatal(err)
	}

	b2, err := json.Marshal(back)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != string(b2) {
		t.Errorf("round trip changed encoding:\n%s\n%s", b, b2)
	}
}

func TestDecodeTransactionMissingCollections(t *testing.T) {
	tx, err := DecodeTransaction(strings.NewReader(`{"patches":{}}`))
	if err != nil {
		t.Fatal(err)
	}
	if !tx.Empty() {
		t.Error("transaction should be empty")
	}
	if tx.Removes == nil || tx.Events == nil {
		t.Error("missing collections should be initialized")
	}
}

func TestDecodeTransactions(t *testing.T) {
	one := `{"patches":{"0":[{"Mount":{"Text":"a"}}]}}`
	two := `{"removes":{"0":{"Text":"a"}}}`

	tests := []struct {
		name string
		in   string
		want int
	}{
		{"array", "[" + one + "," + two + "]", 2},
		{"stream", one + "\n" + two + "\n", 2},
		{"single", "  " + one, 1},
		{"empty", "  \n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := DecodeTransactions(strings.NewReader(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			if len(txs) != tt.want {
				t.Errorf("decoded %d transactions, want %d", len(txs), tt.want)
			}
		})
	}

	if _, err := DecodeTransactions(strings.NewReader(`[null]`)); errors.Code(err) != "DS301" {
		t.Errorf("null entry err = %v, want DS301", err)
	}
	if _, err := DecodeTransactions(strings.NewReader(one + "{")); err == nil {
		t.Error("truncated stream should fail")
	}
}

func TestKindString(t *testing.T) {
	kinds := map[Kind]string{
		KindMount:   "Mount",
		KindInsert:  "Insert",
		KindReplace: "Replace",
		KindOrder:   "Order",
		KindProps:   "Props",
		Kind(0):     "Unknown",
	}
	for k, want := range kinds {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, k.String(), want)
		}
	}
}
