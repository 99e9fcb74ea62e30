package costmodel

import (
	"embed"
	"fmt"
)

//go:embed models/*.json
var modelFS embed.FS

// Source is a named, not yet validated cost model document.
type Source struct {
	Name string
	Data []byte
}

var embeddedFiles = []struct{ name, file string }{
	{"L1-miss", "models/model-l1-miss.json"},
	{"L2-miss", "models/model-l2-miss.json"},
	{"L3-miss", "models/model-l3-miss.json"},
}

// Embedded returns the bundled cost model documents in benchmark order.
func Embedded() []Source {
	out := make([]Source, 0, len(embeddedFiles))

	for _, f := range embeddedFiles {
		data, err := modelFS.ReadFile(f.file)
		if err != nil {
			// The files are compiled in; a miss means the embed pattern is broken.
			panic(fmt.Sprintf("costmodel: embedded model %s: %v", f.file, err))
		}

		out = append(out, Source{Name: f.name, Data: data})
	}

	return out
}

// EmbeddedByName returns the bundled document with the given name.
func EmbeddedByName(name string) (Source, bool) {
	for _, src := range Embedded() {
		if src.Name == name {
			return src, true
		}
	}

	return Source{}, false
}
