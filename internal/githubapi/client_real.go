package githubapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v62/github"

	recommiterrors "recommit.dev/recommit/internal/errors"
)

// RealClient implements Client using the real GitHub API
type RealClient struct {
	client *github.Client
	owner  string
	repo   string
}

// NewRealClient creates a RealClient for the repository behind the given
// remote. The credential comes from GITHUB_TOKEN or the gh CLI.
func NewRealClient(ctx context.Context, remote string) (*RealClient, error) {
	token, err := getGitHubToken()
	if err != nil {
		return nil, fmt.Errorf("failed to get GitHub token: %w", err)
	}

	repoInfo, err := getRepoInfoWithHostname(ctx, remote)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository info: %w", err)
	}

	client, err := createGitHubClient(ctx, repoInfo.Hostname, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	return &RealClient{
		client: client,
		owner:  repoInfo.Owner,
		repo:   repoInfo.Repo,
	}, nil
}

// NewClientFromGitHub wraps an already-configured go-github client.
// Used by tests to point at a mock server.
func NewClientFromGitHub(client *github.Client, owner, repo string) *RealClient {
	return &RealClient{client: client, owner: owner, repo: repo}
}

// GetOwnerRepo returns the repository owner and name
func (c *RealClient) GetOwnerRepo() (string, string) {
	return c.owner, c.repo
}

// GetBranchTip returns the commit SHA a branch currently points at
func (c *RealClient) GetBranchTip(ctx context.Context, branch string) (string, error) {
	ref, resp, err := c.client.Git.GetRef(ctx, c.owner, c.repo, "heads/"+branch)
	if err != nil {
		if statusCode(resp) == http.StatusNotFound {
			return "", recommiterrors.NewBranchNotFoundError(branch)
		}
		return "", mapAPIError("get branch tip", branch, resp, err)
	}
	return ref.GetObject().GetSHA(), nil
}

// GetCommit fetches a commit object by SHA
func (c *RealClient) GetCommit(ctx context.Context, sha string) (*Commit, error) {
	commit, resp, err := c.client.Git.GetCommit(ctx, c.owner, c.repo, sha)
	if err != nil {
		return nil, mapAPIError("get commit", sha, resp, err)
	}

	parents := make([]string, 0, len(commit.Parents))
	for _, p := range commit.Parents {
		parents = append(parents, p.GetSHA())
	}

	return &Commit{
		SHA:     commit.GetSHA(),
		Tree:    commit.GetTree().GetSHA(),
		Parents: parents,
		Message: commit.GetMessage(),
	}, nil
}

// GetTree fetches a single level of a tree object by SHA
func (c *RealClient) GetTree(ctx context.Context, sha string) ([]TreeEntry, error) {
	tree, resp, err := c.client.Git.GetTree(ctx, c.owner, c.repo, sha, false)
	if err != nil {
		return nil, mapAPIError("get tree", sha, resp, err)
	}

	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entries = append(entries, TreeEntry{
			Path: e.GetPath(),
			Mode: e.GetMode(),
			Type: e.GetType(),
			SHA:  e.GetSHA(),
		})
	}
	return entries, nil
}

// CreateBlob uploads content and returns the new blob SHA.
// Content is base64-encoded on the wire so binary files survive.
func (c *RealClient) CreateBlob(ctx context.Context, content []byte) (string, error) {
	blob := &github.Blob{
		Content:  github.String(base64.StdEncoding.EncodeToString(content)),
		Encoding: github.String("base64"),
	}
	created, resp, err := c.client.Git.CreateBlob(ctx, c.owner, c.repo, blob)
	if err != nil {
		return "", mapAPIError("create blob", "", resp, err)
	}
	return created.GetSHA(), nil
}

// CreateTree creates a tree object from a full set of entries for one level
func (c *RealClient) CreateTree(ctx context.Context, entries []TreeEntry) (string, error) {
	ghEntries := make([]*github.TreeEntry, 0, len(entries))
	for _, e := range entries {
		ghEntries = append(ghEntries, &github.TreeEntry{
			Path: github.String(e.Path),
			Mode: github.String(e.Mode),
			Type: github.String(e.Type),
			SHA:  github.String(e.SHA),
		})
	}

	created, resp, err := c.client.Git.CreateTree(ctx, c.owner, c.repo, "", ghEntries)
	if err != nil {
		return "", mapAPIError("create tree", "", resp, err)
	}
	return created.GetSHA(), nil
}

// CreateCommit creates a commit object; no ref is moved
func (c *RealClient) CreateCommit(ctx context.Context, message, treeSHA string, parents []string, author *Identity) (string, error) {
	ghParents := make([]*github.Commit, 0, len(parents))
	for _, p := range parents {
		ghParents = append(ghParents, &github.Commit{SHA: github.String(p)})
	}

	commit := &github.Commit{
		Message: github.String(message),
		Tree:    &github.Tree{SHA: github.String(treeSHA)},
		Parents: ghParents,
	}
	if author != nil {
		commit.Author = &github.CommitAuthor{
			Name:  github.String(author.Name),
			Email: github.String(author.Email),
		}
	}

	created, resp, err := c.client.Git.CreateCommit(ctx, c.owner, c.repo, commit, nil)
	if err != nil {
		if statusCode(resp) == http.StatusNotFound || statusCode(resp) == http.StatusUnprocessableEntity {
			// Stale parent/tree reference: the object was never created or
			// has been collected upstream.
			return "", fmt.Errorf("%w: create commit: %v", recommiterrors.ErrRemoteNotFound, err)
		}
		return "", mapAPIError("create commit", "", resp, err)
	}
	return created.GetSHA(), nil
}

// UpdateRef moves a branch to newSHA, compare-and-swapped against expectedOld.
//
// A fast-forward move is attempted first; the API rejects it when the
// branch no longer descends from newSHA's ancestry, which covers both a
// concurrent push and the rewrite path. For a rewrite the tip is
// re-checked against expectedOld and only then replaced with a forced
// update. A re-check failure means another writer won the race and is
// reported as a conflict, never overwritten.
func (c *RealClient) UpdateRef(ctx context.Context, branch, expectedOld, newSHA string) error {
	actual, err := c.GetBranchTip(ctx, branch)
	if err != nil {
		return err
	}
	if actual != expectedOld {
		return recommiterrors.NewRefConflictError(branch, expectedOld, actual)
	}

	ref := &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(newSHA)},
	}

	_, resp, err := c.client.Git.UpdateRef(ctx, c.owner, c.repo, ref, false)
	if err == nil {
		return nil
	}

	if !isFastForwardRejection(resp, err) {
		return mapRefUpdateError(branch, resp, err)
	}

	// Not a fast-forward: either the rewrite path (expected) or a
	// concurrent push since the check above. Re-check before forcing.
	actual, err = c.GetBranchTip(ctx, branch)
	if err != nil {
		return err
	}
	if actual != expectedOld {
		return recommiterrors.NewRefConflictError(branch, expectedOld, actual)
	}

	_, resp, err = c.client.Git.UpdateRef(ctx, c.owner, c.repo, ref, true)
	if err != nil {
		return mapRefUpdateError(branch, resp, err)
	}
	return nil
}

func statusCode(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

// isFastForwardRejection reports whether a ref update failed only because
// the move was not a fast-forward.
func isFastForwardRejection(resp *github.Response, err error) bool {
	if statusCode(resp) != http.StatusUnprocessableEntity {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "fast forward")
}

func mapRefUpdateError(branch string, resp *github.Response, err error) error {
	switch statusCode(resp) {
	case http.StatusNotFound:
		return recommiterrors.NewBranchNotFoundError(branch)
	case http.StatusUnauthorized, http.StatusForbidden:
		return &recommiterrors.ForbiddenError{Operation: "update ref", Branch: branch}
	case http.StatusUnprocessableEntity, http.StatusConflict:
		return recommiterrors.NewRefConflictError(branch, "", "")
	}
	return fmt.Errorf("%w: update ref on %s: %v", recommiterrors.ErrTransient, branch, err)
}

// mapAPIError translates a go-github failure into the error taxonomy.
func mapAPIError(operation, subject string, resp *github.Response, err error) error {
	what := operation
	if subject != "" {
		what = fmt.Sprintf("%s %s", operation, subject)
	}
	switch statusCode(resp) {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", recommiterrors.ErrRemoteNotFound, what)
	case http.StatusUnauthorized, http.StatusForbidden:
		return &recommiterrors.ForbiddenError{Operation: what}
	}
	return fmt.Errorf("%w: %s: %v", recommiterrors.ErrTransient, what, err)
}
