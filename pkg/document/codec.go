package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// MaxDepth bounds nesting for decoding and for recursive walks over a Value.
const MaxDepth = 1000

var (
	ErrMaxDepth     = errors.New("document nesting exceeds maximum depth")
	ErrTrailingData = errors.New("unexpected data after top-level value")
)

// Decode parses JSON into a Value, preserving object key order.
// Duplicate object keys keep their first position and their last value.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec, 0)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, ErrTrailingData
	}
	return v, nil
}

func decodeValue(dec *json.Decoder, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, ErrMaxDepth
	}
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("failed to read token: %w", err)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec, depth)
		case '[':
			return decodeArray(dec, depth)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		// Out-of-range literals decode to ±Inf, which the merge treats as non-numeric.
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return Value{}, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder, depth int) (Value, error) {
	m := NewMapping()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, fmt.Errorf("failed to read object key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is %T, not string", tok)
		}
		val, err := decodeValue(dec, depth+1)
		if err != nil {
			return Value{}, err
		}
		m.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, fmt.Errorf("failed to close object: %w", err)
	}
	return FromMapping(m), nil
}

func decodeArray(dec *json.Decoder, depth int) (Value, error) {
	items := []Value{}
	for dec.More() {
		val, err := decodeValue(dec, depth+1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, val)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, fmt.Errorf("failed to close array: %w", err)
	}
	return Sequence(items...), nil
}

// MarshalJSON encodes v with mapping keys in insertion order.
// NaN and infinite numbers have no JSON form and are written as null.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer, depth int) error {
	if depth > MaxDepth {
		return ErrMaxDepth
	}
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			buf.WriteString("null")
			return nil
		}
		b, err := json.Marshal(v.num)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		b, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.boolean))
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		buf.WriteByte('{')
		var encErr error
		i := 0
		v.mapping.Range(func(key string, val Value) bool {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			k, err := json.Marshal(key)
			if err != nil {
				encErr = err
				return false
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := val.encode(buf, depth+1); err != nil {
				encErr = err
				return false
			}
			return true
		})
		if encErr != nil {
			return encErr
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot encode %s", v.kind)
	}
	return nil
}

// Key returns a string that is equal for two Values exactly when they are
// the same item for deduplication purposes. Kinds never collide, so the
// string "1" and the number 1 have different keys.
func (v Value) Key() string {
	switch v.kind {
	case KindNull:
		return "z"
	case KindNumber:
		if v.num == 0 {
			return "n0"
		}
		return "n" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return "s" + v.str
	case KindBool:
		if v.boolean {
			return "b1"
		}
		return "b0"
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return fmt.Sprintf("x%p", &v)
		}
		return "j" + string(b)
	}
}
