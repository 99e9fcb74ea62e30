package costmodel

import (
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// Load decodes a key/value cost model document (JSON or YAML) and validates
// that it names every instruction exactly once.
func Load(raw []byte) (*Model, error) {
	var doc map[string]uint32
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	return fromOwnedMap(doc)
}

// FromMap builds a model from a name to weight map. The map is not modified.
func FromMap(weights map[string]uint32) (*Model, error) {
	return fromOwnedMap(maps.Clone(weights))
}

// fromOwnedMap consumes doc: every known key is removed as it is applied,
// whatever remains afterwards is reported as extra.
func fromOwnedMap(doc map[string]uint32) (*Model, error) {
	m := Naive()

	for i, name := range instructionNames {
		w, ok := doc[name]
		if !ok {
			return nil, &MissingCostError{Name: name}
		}

		m.weights[i] = w
		delete(doc, name)
	}

	if len(doc) > 0 {
		return nil, &ExtraKeysError{Names: slices.Sorted(maps.Keys(doc))}
	}

	return m, nil
}
