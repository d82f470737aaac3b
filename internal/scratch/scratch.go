// Package scratch manages the temporary PNG files external tools write
// their decoded frames into.
package scratch

import (
	"fmt"
	"os"
)

// Pattern matches every artifact this package creates, in any directory.
const Pattern = "imgnorm-*"

// Artifact is a uniquely named temporary file owned by exactly one
// decode strategy. Remove is idempotent.
type Artifact struct {
	Path    string
	removed bool
}

// New creates an empty file named imgnorm-<purpose>-*.png in dir (the OS
// temp dir when dir is empty).
func New(dir, purpose string) (*Artifact, error) {
	f, err := os.CreateTemp(dir, "imgnorm-"+purpose+"-*.png")
	if err != nil {
		return nil, fmt.Errorf("create %s artifact: %w", purpose, err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close %s artifact: %w", purpose, err)
	}
	return &Artifact{Path: path}, nil
}

// Ready reports whether a tool has written something into the artifact.
// An existing but empty file is not ready.
func (a *Artifact) Ready() bool {
	if a == nil || a.removed {
		return false
	}
	fi, err := os.Stat(a.Path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}

// Remove deletes the file, ignoring errors. Safe on a nil Artifact.
func (a *Artifact) Remove() {
	if a == nil || a.removed {
		return
	}
	a.removed = true
	_ = os.Remove(a.Path)
}

// With creates an artifact, passes it to fn and removes it when fn returns
// or panics.
func With[T any](dir, purpose string, fn func(*Artifact) (T, error)) (T, error) {
	a, err := New(dir, purpose)
	if err != nil {
		var zero T
		return zero, err
	}
	defer a.Remove()
	return fn(a)
}
