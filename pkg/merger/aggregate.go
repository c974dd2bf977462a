package merger

import (
	"math"

	"github.com/dtnitsch/analysis-merger/pkg/document"
)

// accumulator is the running merge state for one property.
type accumulator struct {
	items   []document.Value
	seen    map[string]struct{}
	numbers []float64
}

func newAccumulator() *accumulator {
	return &accumulator{
		items: []document.Value{},
		seen:  make(map[string]struct{}),
	}
}

func (a *accumulator) add(v document.Value) {
	for _, item := range IterableItems(v) {
		key := item.Key()
		if _, ok := a.seen[key]; ok {
			continue
		}
		a.seen[key] = struct{}{}
		a.items = append(a.items, item)
	}

	if v.IsFiniteNumber() {
		n, _ := v.Float()
		a.numbers = append(a.numbers, n)
	}
}

// result is the mean when any document supplied a number, otherwise the union.
func (a *accumulator) result() document.Value {
	if len(a.numbers) > 0 {
		return document.Number(Mean(a.numbers))
	}
	return document.Sequence(a.items...)
}

// Mean returns the arithmetic mean of values, or NaN when values is empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// UniqueNames drops repeated names, keeping the first occurrence.
func UniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// MergeProperties folds each document's value for every named property into a
// single mapping, walking documents in order. Collection-like values are
// unioned in first-seen order; numeric values are averaged. A property no
// document carries maps to an empty sequence. Documents that are not mappings
// contribute nothing.
func MergeProperties(docs []document.Value, names []string) document.Value {
	names = UniqueNames(names)

	acc := make(map[string]*accumulator, len(names))
	for _, name := range names {
		acc[name] = newAccumulator()
	}

	for _, doc := range docs {
		for _, name := range names {
			v, ok := doc.Get(name)
			if !ok {
				continue
			}
			acc[name].add(v)
		}
	}

	out := document.NewMapping()
	for _, name := range names {
		out.Set(name, acc[name].result())
	}
	return document.FromMapping(out)
}
