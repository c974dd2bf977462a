// Package document defines the value model for analysis documents.
// A decoded JSON document is a tree of Values whose kind is fixed at decode time.
package document

import (
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a tagged variant over the JSON value kinds.
// The zero Value is Null.
type Value struct {
	kind    Kind
	num     float64
	str     string
	boolean bool
	seq     []Value
	mapping *Mapping
}

func Null() Value { return Value{} }

func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Sequence wraps items without copying.
func Sequence(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, seq: items}
}

// FromMapping wraps m. A nil m becomes an empty mapping.
func FromMapping(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, mapping: m}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsFiniteNumber reports whether v is a number other than NaN or ±Inf.
func (v Value) IsFiniteNumber() bool {
	return v.kind == KindNumber && !math.IsNaN(v.num) && !math.IsInf(v.num, 0)
}

// Float returns the numeric payload and whether v is a number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Items returns the elements of a sequence, or nil for any other kind.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// Mapping returns the mapping payload, or nil for any other kind.
func (v Value) Mapping() *Mapping {
	if v.kind != KindMapping {
		return nil
	}
	return v.mapping
}

// Get looks up key when v is a mapping.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	return v.mapping.Get(key)
}

// Mapping is a string-keyed map that remembers insertion order.
type Mapping struct {
	keys   []string
	values map[string]Value
}

func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Value)}
}

// Set stores value under key. A new key goes to the end; an existing key keeps its position.
func (m *Mapping) Set(key string, value Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order. The slice must not be modified.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Mapping) Range(fn func(key string, value Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Equal reports deep equality. Mapping order is significant.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindNumber:
		if math.IsNaN(a.num) && math.IsNaN(b.num) {
			return true
		}
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindBool:
		return a.boolean == b.boolean
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		ak, bk := a.mapping.Keys(), b.mapping.Keys()
		if len(ak) != len(bk) {
			return false
		}
		for i, k := range ak {
			if bk[i] != k {
				return false
			}
			av, _ := a.mapping.Get(k)
			bv, _ := b.mapping.Get(k)
			if !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}
