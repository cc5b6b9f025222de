// Package objectgraph builds tree objects on the remote from a base tree
// plus a changeset, reusing every entry a change does not touch.
package objectgraph

import (
	"strings"

	recommiterrors "recommit.dev/recommit/internal/errors"
)

// DefaultMaxBlobSize caps the content accepted for a single blob.
// The git-data blob endpoint rejects anything larger.
const DefaultMaxBlobSize = 100 * 1024 * 1024

// Entry is one changeset element: new content for a path, or a tombstone
// marking its deletion.
type Entry struct {
	Path      string
	Content   []byte
	Tombstone bool
}

// Changeset is an ordered set of entries to apply on top of a base tree.
type Changeset []Entry

// Validate rejects a changeset that must not reach the remote: invalid
// paths, conflicting entries for one path, or content over the size cap.
// The whole changeset fails together; nothing is partially applied.
func (cs Changeset) Validate(maxBlobSize int64) error {
	seen := make(map[string]struct{}, len(cs))
	for _, e := range cs {
		if err := validatePath(e.Path); err != nil {
			return err
		}
		if _, dup := seen[e.Path]; dup {
			return recommiterrors.NewInvalidPathError(e.Path, "conflicting entries for the same path")
		}
		seen[e.Path] = struct{}{}

		if !e.Tombstone && int64(len(e.Content)) > maxBlobSize {
			return &recommiterrors.ContentTooLargeError{
				Path:  e.Path,
				Size:  int64(len(e.Content)),
				Limit: maxBlobSize,
			}
		}
	}
	return nil
}

func validatePath(p string) error {
	if p == "" {
		return recommiterrors.NewInvalidPathError(p, "empty path")
	}
	if strings.HasPrefix(p, "/") {
		return recommiterrors.NewInvalidPathError(p, "absolute path")
	}
	if strings.Contains(p, "\\") {
		return recommiterrors.NewInvalidPathError(p, "backslash separator; paths must be slash-separated")
	}
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "":
			return recommiterrors.NewInvalidPathError(p, "empty path segment")
		case ".", "..":
			return recommiterrors.NewInvalidPathError(p, "path traversal segment")
		}
	}
	return nil
}
