package armor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ramonehamilton/palico-bot/internal/mhw"
)

// SetIndex maps set names to aggregated sets and remembers insertion order.
// It is built once and only read afterwards.
type SetIndex struct {
	order []string
	sets  map[string]*mhw.ArmorSet
}

// NewSetIndex returns an empty index.
func NewSetIndex() *SetIndex {
	return &SetIndex{sets: make(map[string]*mhw.ArmorSet)}
}

// Get returns the set with the exact given name, or nil.
func (x *SetIndex) Get(name string) *mhw.ArmorSet {
	return x.sets[name]
}

// Len returns the number of sets.
func (x *SetIndex) Len() int {
	return len(x.order)
}

// Names returns set names in insertion order.
func (x *SetIndex) Names() []string {
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

// Each calls fn for every set in insertion order until fn returns false.
func (x *SetIndex) Each(fn func(*mhw.ArmorSet) bool) {
	for _, name := range x.order {
		if !fn(x.sets[name]) {
			return
		}
	}
}

// put stores set under its name. A name seen before keeps its position.
func (x *SetIndex) put(set *mhw.ArmorSet) {
	if _, ok := x.sets[set.Name]; !ok {
		x.order = append(x.order, set.Name)
	}
	x.sets[set.Name] = set
}

// MarshalJSON writes the index as an object keyed by set name, in insertion order.
func (x *SetIndex) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range x.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(x.sets[name])
		if err != nil {
			return nil, fmt.Errorf("marshal set %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by set name, keeping the file's key order.
func (x *SetIndex) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	out := NewSetIndex()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected set name, got %v", tok)
		}

		set := &mhw.ArmorSet{}
		if err := dec.Decode(set); err != nil {
			return fmt.Errorf("decode set %q: %w", name, err)
		}
		set.Name = name
		if set.Details == nil {
			set.Details = make(map[mhw.PieceType]mhw.PieceDetail)
		}
		out.put(set)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*x = *out
	return nil
}
