package merger

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dtnitsch/analysis-merger/pkg/document"
)

// Flatten rebuilds v as plain nested mappings and sequences, dropping every
// mapping entry whose key is numeric. Upstream frequency tables sometimes
// carry numeric keys that are noise rather than labels.
func Flatten(v document.Value) (document.Value, error) {
	return flatten(v, 0)
}

func flatten(v document.Value, depth int) (document.Value, error) {
	if depth > document.MaxDepth {
		return document.Value{}, document.ErrMaxDepth
	}

	switch v.Kind() {
	case document.KindSequence:
		items := v.Items()
		out := make([]document.Value, len(items))
		for i, item := range items {
			f, err := flatten(item, depth+1)
			if err != nil {
				return document.Value{}, err
			}
			out[i] = f
		}
		return document.Sequence(out...), nil

	case document.KindMapping:
		out := document.NewMapping()
		var err error
		v.Mapping().Range(func(key string, val document.Value) bool {
			if IsNumericKey(key) {
				return true
			}
			var f document.Value
			f, err = flatten(val, depth+1)
			if err != nil {
				return false
			}
			out.Set(key, f)
			return true
		})
		if err != nil {
			return document.Value{}, err
		}
		return document.FromMapping(out), nil

	default:
		return v, nil
	}
}

// IsNumericKey reports whether key reads as a decimal number, ignoring
// surrounding whitespace. "Infinity" with an optional sign counts; other
// spellings such as "inf" are words, as are "NaN" and hex literals.
func IsNumericKey(key string) bool {
	trimmed := strings.TrimSpace(key)
	// Blank keys are kept as labels even though they would coerce to 0.
	if trimmed == "" {
		return false
	}
	unsigned := strings.TrimPrefix(strings.TrimPrefix(trimmed, "+"), "-")
	if unsigned == "Infinity" && len(trimmed)-len(unsigned) <= 1 {
		return true
	}
	if strings.ContainsAny(unsigned, "iInNxXpP_") {
		return false
	}
	_, err := strconv.ParseFloat(trimmed, 64)
	return err == nil || errors.Is(err, strconv.ErrRange)
}
