// Package matrix converts a set of changed build units into a parallel-job
// build matrix.
package matrix

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
)

// Entry is one independently buildable unit: the directory used as build
// context and its basename used as the image name component.
type Entry struct {
	Path     string `json:"path"`
	Basename string `json:"basename"`
}

// Matrix is an ordered list of entries, wrapped under "include" so the JSON
// document can be spliced directly into a parallel-job matrix configuration.
type Matrix struct {
	Include []Entry `json:"include"`
}

// basenameRe is the allowed character set for an image-name segment.
// Uppercase, spaces, and leading separators are rejected rather than
// normalized; normalization could silently collide two directory names.
var basenameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// BasenameError indicates a subdirectory name that is not a legal
// image-name segment. Matrix generation aborts rather than dropping the
// entry: a silently omitted unit would never be rebuilt.
type BasenameError struct {
	Name string
}

func (e *BasenameError) Error() string {
	return fmt.Sprintf("directory name %q is not a valid image name segment (allowed: lowercase alphanumerics, '-', '_')", e.Name)
}

// ValidBasename reports whether name is a legal image-name segment.
func ValidBasename(name string) bool {
	return basenameRe.MatchString(name)
}

// Build constructs a matrix from changed unit names under root.
// Units are sorted lexicographically so output is deterministic regardless
// of the diff's internal ordering. An empty unit set yields a valid empty
// matrix, which downstream consumers treat as "nothing to build".
func Build(units []string, root string) (*Matrix, error) {
	sorted := make([]string, len(units))
	copy(sorted, units)
	sort.Strings(sorted)

	m := &Matrix{Include: make([]Entry, 0, len(sorted))}
	for _, name := range sorted {
		if !ValidBasename(name) {
			return nil, &BasenameError{Name: name}
		}
		m.Include = append(m.Include, Entry{
			Path:     path.Join(root, name),
			Basename: name,
		})
	}
	return m, nil
}

// IsEmpty reports whether the matrix has no entries.
func (m *Matrix) IsEmpty() bool {
	return len(m.Include) == 0
}

// JSON encodes the matrix as a single-line JSON document. The empty matrix
// encodes as {"include":[]}, never null.
func (m *Matrix) JSON() ([]byte, error) {
	if m.Include == nil {
		m.Include = []Entry{}
	}
	return json.Marshal(m)
}
