package costmodel

import (
	"bytes"
	"fmt"
	"io"
)

// MarshalJSON writes the model as the document Load accepts, one
// instruction per line in canonical order.
func (m *Model) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("{\n")

	for i, w := range m.weights {
		sep := ","
		if i == NumInstructions-1 {
			sep = ""
		}

		fmt.Fprintf(&buf, "    %q: %d%s\n", instructionNames[i], w, sep)
	}

	buf.WriteString("}")

	return buf.Bytes(), nil
}

// WriteGo writes the model as a Go variable declaration that can be pasted
// into source code and fed to FromMap.
func (m *Model) WriteGo(w io.Writer, varName string) error {
	if _, err := fmt.Fprintf(w, "var %s = map[string]uint32{\n", varName); err != nil {
		return err
	}

	for i, weight := range m.weights {
		if _, err := fmt.Fprintf(w, "\t%q: %d,\n", instructionNames[i], weight); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, "}")

	return err
}
