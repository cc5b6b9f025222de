package testhelpers

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TreeEntryRec is one entry of a stored tree level.
type TreeEntryRec struct {
	Path string
	Mode string
	Type string
	SHA  string
}

// CommitRec is a stored commit object.
type CommitRec struct {
	Tree    string
	Parents []string
	Message string
}

// GitDataStore is an in-memory, content-addressed object store backing the
// mock git-data server. Object identities are deterministic functions of
// content, mirroring the real system's guarantee that identical input
// yields identical object ids.
type GitDataStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	trees   map[string][]TreeEntryRec
	commits map[string]CommitRec
	refs    map[string]string
}

// NewGitDataStore creates an empty store.
func NewGitDataStore() *GitDataStore {
	return &GitDataStore{
		blobs:   make(map[string][]byte),
		trees:   make(map[string][]TreeEntryRec),
		commits: make(map[string]CommitRec),
		refs:    make(map[string]string),
	}
}

func hashObject(kind string, payload string) string {
	sum := sha1.Sum([]byte(kind + "\x00" + payload))
	return hex.EncodeToString(sum[:])
}

// AddBlob stores blob content and returns its id.
func (s *GitDataStore) AddBlob(content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sha := hashObject("blob", string(content))
	s.blobs[sha] = append([]byte(nil), content...)
	return sha
}

// Blob returns stored blob content.
func (s *GitDataStore) Blob(sha string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[sha]
	return b, ok
}

// AddTree stores one tree level and returns its id. Entries are sorted by
// path before hashing so identical sets hash identically.
func (s *GitDataStore) AddTree(entries []TreeEntryRec) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTreeLocked(entries)
}

func (s *GitDataStore) addTreeLocked(entries []TreeEntryRec) string {
	sorted := append([]TreeEntryRec(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var b strings.Builder
	for _, e := range sorted {
		fmt.Fprintf(&b, "%s %s %s\t%s\n", e.Mode, e.Type, e.SHA, e.Path)
	}
	sha := hashObject("tree", b.String())
	s.trees[sha] = sorted
	return sha
}

// Tree returns one stored tree level.
func (s *GitDataStore) Tree(sha string) ([]TreeEntryRec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trees[sha]
	return t, ok
}

// AddCommit stores a commit object and returns its id.
func (s *GitDataStore) AddCommit(tree string, parents []string, message string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCommitLocked(tree, parents, message)
}

func (s *GitDataStore) addCommitLocked(tree string, parents []string, message string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "tree %s\n", tree)
	for _, p := range parents {
		fmt.Fprintf(&b, "parent %s\n", p)
	}
	b.WriteString("\n")
	b.WriteString(message)

	sha := hashObject("commit", b.String())
	s.commits[sha] = CommitRec{
		Tree:    tree,
		Parents: append([]string(nil), parents...),
		Message: message,
	}
	return sha
}

// Commit returns a stored commit.
func (s *GitDataStore) Commit(sha string) (CommitRec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.commits[sha]
	return c, ok
}

// SetRef points a branch at a commit.
func (s *GitDataStore) SetRef(branch, sha string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs[branch] = sha
}

// Ref returns the commit a branch points at.
func (s *GitDataStore) Ref(branch string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sha, ok := s.refs[branch]
	return sha, ok
}

// AddTreeFromFiles builds nested tree objects from a path-to-content map
// and returns the root tree id. Paths are slash-separated.
func (s *GitDataStore) AddTreeFromFiles(files map[string]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildTreeLocked(files)
}

func (s *GitDataStore) buildTreeLocked(files map[string]string) string {
	direct := make(map[string]string)
	subdirs := make(map[string]map[string]string)

	for path, content := range files {
		if idx := strings.Index(path, "/"); idx >= 0 {
			dir, rest := path[:idx], path[idx+1:]
			if subdirs[dir] == nil {
				subdirs[dir] = make(map[string]string)
			}
			subdirs[dir][rest] = content
		} else {
			direct[path] = content
		}
	}

	var entries []TreeEntryRec
	for name, content := range direct {
		blobSHA := hashObject("blob", content)
		s.blobs[blobSHA] = []byte(content)
		entries = append(entries, TreeEntryRec{Path: name, Mode: "100644", Type: "blob", SHA: blobSHA})
	}
	for name, sub := range subdirs {
		entries = append(entries, TreeEntryRec{Path: name, Mode: "040000", Type: "tree", SHA: s.buildTreeLocked(sub)})
	}

	return s.addTreeLocked(entries)
}

// SeedBranch creates a commit from a file map and points the branch at it.
// Returns the commit id.
func (s *GitDataStore) SeedBranch(branch, message string, files map[string]string, parents ...string) string {
	tree := s.AddTreeFromFiles(files)
	sha := s.AddCommit(tree, parents, message)
	s.SetRef(branch, sha)
	return sha
}

// IsAncestor reports whether anc is reachable from desc (or equal to it).
func (s *GitDataStore) IsAncestor(anc, desc string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := []string{desc}
	seen := make(map[string]bool)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == anc {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if c, ok := s.commits[cur]; ok {
			queue = append(queue, c.Parents...)
		}
	}
	return false
}
