// Package costmodel defines the instruction cost tables used to meter guest
// execution, and loads them from key/value documents.
package costmodel

// DefaultWeight is the weight of every instruction in the naive model.
const DefaultWeight uint32 = 1

// Model assigns a gas weight to every instruction. A Model is immutable once
// built and may be shared freely between engines.
type Model struct {
	weights [NumInstructions]uint32
}

// Naive returns a model where every instruction costs DefaultWeight.
func Naive() *Model {
	m := &Model{}
	for i := range m.weights {
		m.weights[i] = DefaultWeight
	}

	return m
}

// Cost returns the weight of inst. Unknown instructions are charged as
// Invalid.
func (m *Model) Cost(inst Instruction) uint32 {
	if !inst.Valid() {
		inst = Invalid
	}

	return m.weights[inst]
}

// Weights returns a copy of the model as a name to weight map.
func (m *Model) Weights() map[string]uint32 {
	out := make(map[string]uint32, NumInstructions)
	for i, w := range m.weights {
		out[instructionNames[i]] = w
	}

	return out
}

// Equal reports whether both models carry identical weights.
func (m *Model) Equal(other *Model) bool {
	if m == nil || other == nil {
		return m == other
	}

	return m.weights == other.weights
}
