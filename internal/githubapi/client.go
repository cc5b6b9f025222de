// Package githubapi provides a client for the GitHub git-data API: the
// object-level operations (blobs, trees, commits, refs) recommit uses to
// create commits server-side so they are signed by the calling identity.
package githubapi

import (
	"context"
)

// Commit describes a commit object fetched from the remote.
// This is a simplified struct to avoid coupling to go-github library.
type Commit struct {
	SHA     string
	Tree    string
	Parents []string
	Message string
}

// TreeEntry is one entry of a single tree level: a blob, a subtree, or a
// submodule pointer.
type TreeEntry struct {
	Path string
	Mode string
	Type string
	SHA  string
}

// Tree object entry modes and types as the git-data API spells them.
const (
	ModeFile       = "100644"
	ModeExecutable = "100755"
	ModeSubdir     = "040000"
	ModeSymlink    = "120000"
	ModeSubmodule  = "160000"

	TypeBlob   = "blob"
	TypeTree   = "tree"
	TypeCommit = "commit"
)

// Identity is the author/committer identity recorded on a created commit.
// Timestamps are left to the server so they match the signing identity.
type Identity struct {
	Name  string
	Email string
}

// Client is an interface for GitHub git-data API interactions
type Client interface {
	// GetBranchTip returns the commit SHA a branch currently points at
	GetBranchTip(ctx context.Context, branch string) (string, error)

	// GetCommit fetches a commit object by SHA
	GetCommit(ctx context.Context, sha string) (*Commit, error)

	// GetTree fetches a single level of a tree object by SHA
	GetTree(ctx context.Context, sha string) ([]TreeEntry, error)

	// CreateBlob uploads content and returns the new blob SHA
	CreateBlob(ctx context.Context, content []byte) (string, error)

	// CreateTree creates a tree object from a full set of entries for one level
	CreateTree(ctx context.Context, entries []TreeEntry) (string, error)

	// CreateCommit creates a commit object; no ref is moved
	CreateCommit(ctx context.Context, message, treeSHA string, parents []string, author *Identity) (string, error)

	// UpdateRef moves a branch to newSHA if and only if the branch still
	// points at expectedOld; a concurrent move surfaces as a conflict error
	UpdateRef(ctx context.Context, branch, expectedOld, newSHA string) error

	// GetOwnerRepo returns the repository owner and name
	GetOwnerRepo() (owner, repo string)
}
