package gitscan

import "fmt"

// RevisionError indicates that a revision could not be resolved in the
// repository's history. This is fatal: a shallow clone or a typo'd ref must
// surface to the pipeline, never degrade to "no changes".
type RevisionError struct {
	Revision string
	Err      error
}

func (e *RevisionError) Error() string {
	return fmt.Sprintf("resolving revision %q: %v", e.Revision, e.Err)
}

func (e *RevisionError) Unwrap() error { return e.Err }

// RootError indicates that the watched root does not exist as a directory
// at the head revision.
type RootError struct {
	Root   string
	Reason string
}

func (e *RootError) Error() string {
	return fmt.Sprintf("watched root %q: %s", e.Root, e.Reason)
}
