package objectgraph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	recommiterrors "recommit.dev/recommit/internal/errors"
	"recommit.dev/recommit/internal/githubapi"
)

// Builder constructs tree objects through the remote object API.
type Builder struct {
	client      githubapi.Client
	maxBlobSize int64
}

// NewBuilder creates a Builder over the given client.
func NewBuilder(client githubapi.Client) *Builder {
	return &Builder{client: client, maxBlobSize: DefaultMaxBlobSize}
}

// WithMaxBlobSize overrides the per-blob content cap.
func (b *Builder) WithMaxBlobSize(limit int64) *Builder {
	b.maxBlobSize = limit
	return b
}

// Build applies the changeset on top of baseTree and returns the resulting
// tree SHA. Only subtrees on the path to a changed entry are rebuilt;
// sibling entries are carried over by reference without re-uploading.
//
// The result is deterministic for a fixed base and changeset, and equals
// baseTree when the changeset has no effect (already-deleted paths,
// content identical to what the base already holds).
func (b *Builder) Build(ctx context.Context, baseTree string, cs Changeset) (string, error) {
	if err := cs.Validate(b.maxBlobSize); err != nil {
		return "", err
	}
	if len(cs) == 0 {
		return baseTree, nil
	}

	root, err := buildLayout(cs)
	if err != nil {
		return "", err
	}

	sha, err := b.buildLevel(ctx, baseTree, root)
	if err != nil {
		return "", err
	}
	if sha == "" {
		return "", fmt.Errorf("%w: changeset would delete every entry of the root tree", recommiterrors.ErrInvalidInput)
	}
	return sha, nil
}

// TreesEqual reports whether two tree references name the same tree.
// Tree identity is content-addressed, so reference equality is tree equality.
func TreesEqual(a, b string) bool {
	return a != "" && a == b
}

// layoutNode groups changeset entries by directory so each tree level can
// be rebuilt in one pass.
type layoutNode struct {
	files map[string]Entry
	dirs  map[string]*layoutNode
}

func newLayoutNode() *layoutNode {
	return &layoutNode{
		files: make(map[string]Entry),
		dirs:  make(map[string]*layoutNode),
	}
}

func buildLayout(cs Changeset) (*layoutNode, error) {
	root := newLayoutNode()
	for _, e := range cs {
		segs := strings.Split(e.Path, "/")
		node := root
		for i, seg := range segs[:len(segs)-1] {
			if _, clash := node.files[seg]; clash {
				return nil, recommiterrors.NewInvalidPathError(e.Path,
					fmt.Sprintf("conflicts with file entry %q", strings.Join(segs[:i+1], "/")))
			}
			child, ok := node.dirs[seg]
			if !ok {
				child = newLayoutNode()
				node.dirs[seg] = child
			}
			node = child
		}
		name := segs[len(segs)-1]
		if _, clash := node.dirs[name]; clash {
			return nil, recommiterrors.NewInvalidPathError(e.Path, "conflicts with entries nested under the same path")
		}
		node.files[name] = e
	}
	return root, nil
}

// buildLevel rebuilds one tree level. It returns baseTree unchanged when
// the changes at and below this level have no effect, and "" when the
// resulting level would be empty (the parent then drops the subtree, the
// way git prunes empty directories).
func (b *Builder) buildLevel(ctx context.Context, baseTree string, node *layoutNode) (string, error) {
	entries := make(map[string]githubapi.TreeEntry)
	if baseTree != "" {
		base, err := b.client.GetTree(ctx, baseTree)
		if err != nil {
			return "", err
		}
		for _, e := range base {
			entries[e.Path] = e
		}
	}

	changed := false

	for name, e := range node.files {
		existing, exists := entries[name]
		if e.Tombstone {
			if exists {
				delete(entries, name)
				changed = true
			}
			continue
		}

		blobSHA, err := b.client.CreateBlob(ctx, e.Content)
		if err != nil {
			return "", err
		}

		mode := githubapi.ModeFile
		if exists && existing.Type == githubapi.TypeBlob {
			// Keep the executable bit and symlink mode of the entry
			// being replaced.
			mode = existing.Mode
		}

		if !exists || existing.SHA != blobSHA || existing.Mode != mode || existing.Type != githubapi.TypeBlob {
			entries[name] = githubapi.TreeEntry{
				Path: name,
				Mode: mode,
				Type: githubapi.TypeBlob,
				SHA:  blobSHA,
			}
			changed = true
		}
	}

	for name, child := range node.dirs {
		subBase := ""
		if existing, exists := entries[name]; exists && existing.Type == githubapi.TypeTree {
			subBase = existing.SHA
		}

		subSHA, err := b.buildLevel(ctx, subBase, child)
		if err != nil {
			return "", err
		}

		switch {
		case subSHA == "":
			if _, exists := entries[name]; exists {
				delete(entries, name)
				changed = true
			}
		case subSHA != subBase:
			entries[name] = githubapi.TreeEntry{
				Path: name,
				Mode: githubapi.ModeSubdir,
				Type: githubapi.TypeTree,
				SHA:  subSHA,
			}
			changed = true
		}
	}

	if !changed {
		return baseTree, nil
	}
	if len(entries) == 0 {
		return "", nil
	}

	sorted := make([]githubapi.TreeEntry, 0, len(entries))
	for _, e := range entries {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	return b.client.CreateTree(ctx, sorted)
}
