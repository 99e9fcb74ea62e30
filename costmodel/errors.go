package costmodel

import (
	"fmt"
	"strings"
)

// ParseError reports a cost model document that could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed cost model: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingCostError reports an instruction absent from a cost model document.
type MissingCostError struct {
	Name string
}

func (e *MissingCostError) Error() string {
	return fmt.Sprintf("missing cost for: '%s'", e.Name)
}

// ExtraKeysError reports keys that do not name any instruction.
type ExtraKeysError struct {
	Names []string
}

func (e *ExtraKeysError) Error() string {
	quoted := make([]string, len(e.Names))
	for i, name := range e.Names {
		quoted[i] = "'" + name + "'"
	}

	return "extra keys: " + strings.Join(quoted, ", ")
}
