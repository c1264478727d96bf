package patch

import (
	"bufio"
	"encoding/json"
	"io"
	"unicode"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/view"
)

// EventMap maps event names to subscribe (true) or unsubscribe (false).
type EventMap = orderedmap.OrderedMap[string, bool]

// Transaction is an ordered batch of patches, removals and event
// subscription changes produced by a diff of two view trees.
//
// All three collections keep insertion order, which is the order the
// Patcher applies them in.
type Transaction struct {
	Patches *orderedmap.OrderedMap[string, []Patch]
	Removes *orderedmap.OrderedMap[string, *view.View]
	Events  *orderedmap.OrderedMap[string, *EventMap]
}

// NewTransaction creates an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{
		Patches: orderedmap.New[string, []Patch](),
		Removes: orderedmap.New[string, *view.View](),
		Events:  orderedmap.New[string, *EventMap](),
	}
}

// AddPatch appends patches to the list for id.
func (tx *Transaction) AddPatch(id string, patches ...Patch) *Transaction {
	tx.init()
	list, _ := tx.Patches.Get(id)
	tx.Patches.Set(id, append(list, patches...))
	return tx
}

// AddRemove declares that the subtree v at id is detached.
func (tx *Transaction) AddRemove(id string, v *view.View) *Transaction {
	tx.init()
	tx.Removes.Set(id, v)
	return tx
}

// SetEvent subscribes (or unsubscribes) id to the named event.
func (tx *Transaction) SetEvent(id, name string, subscribe bool) *Transaction {
	tx.init()
	events, ok := tx.Events.Get(id)
	if !ok || events == nil {
		events = orderedmap.New[string, bool]()
		tx.Events.Set(id, events)
	}
	events.Set(name, subscribe)
	return tx
}

// Counts returns the number of patches, removals and event changes.
func (tx *Transaction) Counts() (patches, removes, events int) {
	tx.init()
	for pair := tx.Patches.Oldest(); pair != nil; pair = pair.Next() {
		patches += len(pair.Value)
	}
	for pair := tx.Events.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value != nil {
			events += pair.Value.Len()
		}
	}
	return patches, tx.Removes.Len(), events
}

// Empty reports whether the transaction does nothing.
func (tx *Transaction) Empty() bool {
	p, r, e := tx.Counts()
	return p == 0 && r == 0 && e == 0
}

func (tx *Transaction) init() {
	if tx.Patches == nil {
		tx.Patches = orderedmap.New[string, []Patch]()
	}
	if tx.Removes == nil {
		tx.Removes = orderedmap.New[string, *view.View]()
	}
	if tx.Events == nil {
		tx.Events = orderedmap.New[string, *EventMap]()
	}
}

type transactionJSON struct {
	Patches *orderedmap.OrderedMap[string, []Patch]    `json:"patches"`
	Removes *orderedmap.OrderedMap[string, *view.View] `json:"removes"`
	Events  *orderedmap.OrderedMap[string, *EventMap]  `json:"events"`
}

// MarshalJSON encodes the transaction as {"patches", "removes", "events"}.
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	tx.init()
	return json.Marshal(transactionJSON{tx.Patches, tx.Removes, tx.Events})
}

// UnmarshalJSON decodes a transaction. Missing collections are empty.
func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.FromError(err, "DS301")
	}
	*tx = Transaction{Patches: raw.Patches, Removes: raw.Removes, Events: raw.Events}
	tx.init()
	return nil
}

// DecodeTransaction reads one JSON transaction from r.
func DecodeTransaction(r io.Reader) (*Transaction, error) {
	tx := NewTransaction()
	if err := json.NewDecoder(r).Decode(tx); err != nil {
		return nil, errors.FromError(err, "DS301")
	}
	return tx, nil
}

// DecodeTransactions reads either a JSON array of transactions or a stream of
// concatenated (typically newline-delimited) transactions from r.
func DecodeTransactions(r io.Reader) ([]*Transaction, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("DS301").Wrap(err)
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var txs []*Transaction
		if err := dec.Decode(&txs); err != nil {
			return nil, errors.FromError(err, "DS301")
		}
		for i, tx := range txs {
			if tx == nil {
				return nil, errors.New("DS301").WithDetailf("transaction %d is null", i)
			}
		}
		return txs, nil
	}

	var txs []*Transaction
	for {
		tx := NewTransaction()
		err := dec.Decode(tx)
		if err == io.EOF {
			return txs, nil
		}
		if err != nil {
			return nil, errors.FromError(err, "DS301")
		}
		txs = append(txs, tx)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
