package view

import (
	"encoding/json"

	"github.com/vango-dev/domsync/internal/errors"
)

// dataJSON is the wire shape of a Data view.
type dataJSON struct {
	Kind     string  `json:"kind"`
	Props    *Props  `json:"props"`
	Children []*View `json:"children"`
	Key      *string `json:"key"`
}

// MarshalJSON encodes the view in its externally tagged form:
// {"Text": "..."} or {"Data": {"kind", "props", "children", "key"}}.
func (v *View) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	switch v.Kind {
	case KindText:
		return json.Marshal(map[string]string{"Text": v.Text})
	case KindData:
		d := dataJSON{
			Kind:     v.Tag,
			Props:    v.Props,
			Children: v.Children,
		}
		if d.Props == nil {
			d.Props = NewProps()
		}
		if d.Children == nil {
			d.Children = []*View{}
		}
		if v.Key != "" {
			key := v.Key
			d.Key = &key
		}
		return json.Marshal(map[string]dataJSON{"Data": d})
	default:
		return nil, errors.New("DS302").WithDetailf("unknown view kind %d", v.Kind)
	}
}

// UnmarshalJSON decodes an externally tagged view.
func (v *View) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return errors.New("DS302").Wrap(err)
	}
	if len(tagged) != 1 {
		return errors.New("DS302").WithDetailf("expected exactly one tag, got %d", len(tagged))
	}

	if raw, ok := tagged["Text"]; ok {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return errors.New("DS302").Wrap(err)
		}
		*v = View{Kind: KindText, Text: text}
		return nil
	}

	raw, ok := tagged["Data"]
	if !ok {
		return errors.New("DS302")
	}
	var d dataJSON
	if err := json.Unmarshal(raw, &d); err != nil {
		return errors.New("DS302").Wrap(err)
	}
	if d.Kind == "" {
		return errors.New("DS302").WithDetail("Data view has no kind")
	}
	*v = View{
		Kind:     KindData,
		Tag:      d.Kind,
		Props:    d.Props,
		Children: d.Children,
	}
	if v.Props == nil {
		v.Props = NewProps()
	}
	if d.Key != nil {
		v.Key = *d.Key
	}
	return nil
}
