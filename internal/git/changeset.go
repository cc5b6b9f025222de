package git

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"

	recommiterrors "recommit.dev/recommit/internal/errors"
)

// FileChange is one working-tree change: new content for a path, or its
// deletion. Paths are slash-separated and repository-relative.
type FileChange struct {
	Path    string
	Content []byte
	Deleted bool
}

// CollectChanges scans the working tree for modified, added and deleted
// paths and returns them as FileChanges in path order.
//
// When patterns is non-empty, only paths matching one of the patterns are
// included: a pattern matches its exact path, any path under it when it
// names a directory, or by shell glob.
func (r *Repository) CollectChanges(patterns []string) ([]FileChange, error) {
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("%w: bad file pattern %q", recommiterrors.ErrInvalidInput, p)
		}
	}

	worktree, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}

	paths := make([]string, 0, len(status))
	for p, st := range status {
		if st.Staging == git.Unmodified && st.Worktree == git.Unmodified {
			continue
		}
		if !matchesAny(p, patterns) {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	changes := make([]FileChange, 0, len(paths))
	for _, p := range paths {
		abs := filepath.Join(worktree.Filesystem.Root(), filepath.FromSlash(p))
		content, err := os.ReadFile(abs)
		if err != nil {
			if os.IsNotExist(err) {
				changes = append(changes, FileChange{Path: p, Deleted: true})
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		changes = append(changes, FileChange{Path: p, Content: content})
	}

	return changes, nil
}

// matchesAny reports whether a repository-relative path matches one of the
// given patterns. An empty pattern list matches everything.
func matchesAny(p string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(path.Clean(pattern), "/")
		if p == pattern || strings.HasPrefix(p, pattern+"/") {
			return true
		}
		if ok, _ := path.Match(pattern, p); ok {
			return true
		}
	}
	return false
}
