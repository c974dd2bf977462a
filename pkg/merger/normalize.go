package merger

import "github.com/dtnitsch/analysis-merger/pkg/document"

// IterableItems returns the items a property value contributes to a union.
// Sequences contribute their elements unfiltered, mappings contribute their
// keys in order. Numbers, strings, booleans and null contribute nothing.
func IterableItems(v document.Value) []document.Value {
	switch v.Kind() {
	case document.KindSequence:
		return v.Items()
	case document.KindMapping:
		keys := v.Mapping().Keys()
		items := make([]document.Value, len(keys))
		for i, k := range keys {
			items[i] = document.String(k)
		}
		return items
	default:
		return nil
	}
}
