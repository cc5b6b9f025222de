package testhelpers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-github/v62/github"
)

// MockGitDataServerConfig configures the behavior of a mock git-data server
type MockGitDataServerConfig struct {
	// Owner and Repo for the mock server
	Owner string
	Repo  string

	// Store holds the server's objects and refs
	Store *GitDataStore

	// ForbiddenRefUpdate makes every ref update fail with 403
	ForbiddenRefUpdate bool

	// BeforeRefUpdate runs before each ref update is processed. Tests use
	// it to advance the branch and simulate a concurrent writer.
	BeforeRefUpdate func()

	// BlobUploads counts blob creation requests handled
	BlobUploads atomic.Int64

	// TreeCreates counts tree creation requests handled
	TreeCreates atomic.Int64
}

// NewMockGitDataServerConfig creates a mock server config with defaults
func NewMockGitDataServerConfig() *MockGitDataServerConfig {
	return &MockGitDataServerConfig{
		Owner: "owner",
		Repo:  "repo",
		Store: NewGitDataStore(),
	}
}

// NewMockGitDataServer creates an httptest server that mocks the GitHub
// git-data endpoints: refs (read and compare-and-swap update), commits,
// trees and blobs.
func NewMockGitDataServer(t *testing.T, config *MockGitDataServerConfig) *httptest.Server {
	t.Helper()
	if config == nil {
		config = NewMockGitDataServerConfig()
	}

	base := "/repos/" + config.Owner + "/" + config.Repo + "/git/"

	handler := func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, base) {
			writeJSONError(w, http.StatusNotFound, "Not Found")
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, base)

		switch {
		case strings.HasPrefix(rest, "ref/") && r.Method == http.MethodGet:
			handleGetRef(w, config, strings.TrimPrefix(rest, "ref/"))
		case strings.HasPrefix(rest, "refs/") && r.Method == http.MethodPatch:
			handleUpdateRef(w, r, config, strings.TrimPrefix(rest, "refs/"))
		case strings.HasPrefix(rest, "commits/") && r.Method == http.MethodGet:
			handleGetCommit(w, config, strings.TrimPrefix(rest, "commits/"))
		case rest == "commits" && r.Method == http.MethodPost:
			handleCreateCommit(w, r, config)
		case strings.HasPrefix(rest, "trees/") && r.Method == http.MethodGet:
			handleGetTree(w, config, strings.TrimPrefix(rest, "trees/"))
		case rest == "trees" && r.Method == http.MethodPost:
			handleCreateTree(w, r, config)
		case rest == "blobs" && r.Method == http.MethodPost:
			handleCreateBlob(w, r, config)
		default:
			writeJSONError(w, http.StatusNotFound, "Not Found")
		}
	}

	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)
	return server
}

// NewMockGitDataClient creates a go-github client pointed at a new mock
// server for the given config.
func NewMockGitDataClient(t *testing.T, config *MockGitDataServerConfig) *github.Client {
	t.Helper()
	server := NewMockGitDataServer(t, config)

	client := github.NewClient(nil)
	baseURL, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("Failed to parse mock server URL: %v", err)
	}
	client.BaseURL = baseURL
	return client
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func branchFromRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, "heads/") {
		return "", false
	}
	return strings.TrimPrefix(ref, "heads/"), true
}

func refResponse(branch, sha string) map[string]interface{} {
	return map[string]interface{}{
		"ref": "refs/heads/" + branch,
		"object": map[string]interface{}{
			"type": "commit",
			"sha":  sha,
		},
	}
}

func handleGetRef(w http.ResponseWriter, config *MockGitDataServerConfig, ref string) {
	branch, ok := branchFromRef(ref)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "Not Found")
		return
	}
	sha, ok := config.Store.Ref(branch)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, refResponse(branch, sha))
}

func handleUpdateRef(w http.ResponseWriter, r *http.Request, config *MockGitDataServerConfig, ref string) {
	branch, ok := branchFromRef(ref)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "Not Found")
		return
	}

	var body struct {
		SHA   string `json:"sha"`
		Force bool   `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}

	if config.BeforeRefUpdate != nil {
		config.BeforeRefUpdate()
	}

	if config.ForbiddenRefUpdate {
		writeJSONError(w, http.StatusForbidden, "Resource not accessible by integration")
		return
	}

	current, ok := config.Store.Ref(branch)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "Not Found")
		return
	}
	if _, ok := config.Store.Commit(body.SHA); !ok {
		writeJSONError(w, http.StatusUnprocessableEntity, "Object does not exist")
		return
	}
	if !body.Force && !config.Store.IsAncestor(current, body.SHA) {
		writeJSONError(w, http.StatusUnprocessableEntity, "Update is not a fast forward")
		return
	}

	config.Store.SetRef(branch, body.SHA)
	writeJSON(w, http.StatusOK, refResponse(branch, body.SHA))
}

func commitResponse(sha string, c CommitRec) map[string]interface{} {
	parents := make([]map[string]interface{}, 0, len(c.Parents))
	for _, p := range c.Parents {
		parents = append(parents, map[string]interface{}{"sha": p})
	}
	return map[string]interface{}{
		"sha":     sha,
		"message": c.Message,
		"tree":    map[string]interface{}{"sha": c.Tree},
		"parents": parents,
	}
}

func handleGetCommit(w http.ResponseWriter, config *MockGitDataServerConfig, sha string) {
	c, ok := config.Store.Commit(sha)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, commitResponse(sha, c))
}

func handleCreateCommit(w http.ResponseWriter, r *http.Request, config *MockGitDataServerConfig) {
	var body struct {
		Message string   `json:"message"`
		Tree    string   `json:"tree"`
		Parents []string `json:"parents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}

	if _, ok := config.Store.Tree(body.Tree); !ok {
		writeJSONError(w, http.StatusUnprocessableEntity, "Tree SHA does not exist")
		return
	}
	for _, p := range body.Parents {
		if _, ok := config.Store.Commit(p); !ok {
			writeJSONError(w, http.StatusUnprocessableEntity, "Parent SHA does not exist")
			return
		}
	}

	sha := config.Store.AddCommit(body.Tree, body.Parents, body.Message)
	c, _ := config.Store.Commit(sha)
	writeJSON(w, http.StatusCreated, commitResponse(sha, c))
}

func treeResponse(sha string, entries []TreeEntryRec) map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]interface{}{
			"path": e.Path,
			"mode": e.Mode,
			"type": e.Type,
			"sha":  e.SHA,
		})
	}
	return map[string]interface{}{"sha": sha, "tree": out}
}

func handleGetTree(w http.ResponseWriter, config *MockGitDataServerConfig, sha string) {
	entries, ok := config.Store.Tree(sha)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, treeResponse(sha, entries))
}

func handleCreateTree(w http.ResponseWriter, r *http.Request, config *MockGitDataServerConfig) {
	var body struct {
		Tree []struct {
			Path string `json:"path"`
			Mode string `json:"mode"`
			Type string `json:"type"`
			SHA  string `json:"sha"`
		} `json:"tree"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	if len(body.Tree) == 0 {
		writeJSONError(w, http.StatusUnprocessableEntity, "Tree cannot be empty")
		return
	}

	config.TreeCreates.Add(1)

	entries := make([]TreeEntryRec, 0, len(body.Tree))
	for _, e := range body.Tree {
		entries = append(entries, TreeEntryRec{Path: e.Path, Mode: e.Mode, Type: e.Type, SHA: e.SHA})
	}
	sha := config.Store.AddTree(entries)
	stored, _ := config.Store.Tree(sha)
	writeJSON(w, http.StatusCreated, treeResponse(sha, stored))
}

func handleCreateBlob(w http.ResponseWriter, r *http.Request, config *MockGitDataServerConfig) {
	var body struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}

	content := []byte(body.Content)
	if body.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(body.Content)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid base64 content")
			return
		}
		content = decoded
	}

	config.BlobUploads.Add(1)

	sha := config.Store.AddBlob(content)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"sha": sha})
}
