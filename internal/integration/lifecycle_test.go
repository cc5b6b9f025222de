// Package integration exercises the full pipeline the CLI drives: a real
// working tree scanned by go-git, the rewrite decision, and object/ref
// writes against a mock git-data server.
package integration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"recommit.dev/recommit/internal/engine"
	"recommit.dev/recommit/internal/git"
	"recommit.dev/recommit/internal/githubapi"
	"recommit.dev/recommit/internal/objectgraph"
	"recommit.dev/recommit/internal/trailer"
	"recommit.dev/recommit/testhelpers"
)

// workspace is a scene-backed repository whose working-tree changes feed
// an engine pointed at a mock remote.
type workspace struct {
	scene  *testhelpers.Scene
	config *testhelpers.MockGitDataServerConfig
	engine *engine.Engine
	codec  *trailer.Codec
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()

	scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
		return s.Repo.CreateChangeAndCommit("README.md", "# demo\n", "init")
	})

	config := testhelpers.NewMockGitDataServerConfig()
	config.Store.SeedBranch("main", "init", map[string]string{
		"README.md": "# demo\n",
	})

	ghClient := testhelpers.NewMockGitDataClient(t, config)
	client := githubapi.NewClientFromGitHub(ghClient, config.Owner, config.Repo)
	codec := trailer.NewCodec("")
	identity := &githubapi.Identity{Name: "Test User", Email: "test@example.com"}

	repo, err := git.OpenRepository(scene.Dir)
	require.NoError(t, err)

	source := func(patterns []string) (objectgraph.Changeset, error) {
		changes, err := repo.CollectChanges(patterns)
		if err != nil {
			return nil, err
		}
		cs := make(objectgraph.Changeset, 0, len(changes))
		for _, c := range changes {
			cs = append(cs, objectgraph.Entry{
				Path:      c.Path,
				Content:   c.Content,
				Tombstone: c.Deleted,
			})
		}
		return cs, nil
	}

	return &workspace{
		scene:  scene,
		config: config,
		engine: engine.New(client, codec, identity, source, nil),
		codec:  codec,
	}
}

func (w *workspace) run(t *testing.T, opts engine.Options) *engine.Result {
	t.Helper()
	if opts.Branch == "" {
		opts.Branch = "main"
	}
	opts.NoSync = true
	result, err := w.engine.Run(context.Background(), opts)
	require.NoError(t, err)
	return result
}

func TestWorktreeLifecycle(t *testing.T) {
	t.Run("edit, append, refine, rewrite, settle", func(t *testing.T) {
		w := newWorkspace(t)

		// First pass over the working tree: a generated file appears.
		require.NoError(t, w.scene.Repo.WriteFile("gen/out.txt", "v1"))

		first := w.run(t, engine.Options{
			GroupID: "job-42",
			Message: "generate outputs",
		})
		require.Equal(t, engine.OutcomeCreated, first.Outcome)
		require.Equal(t, 1, first.ChangedPaths)

		tip, ok := w.config.Store.Ref("main")
		require.True(t, ok)
		require.Equal(t, first.NewTip, tip)

		commit, ok := w.config.Store.Commit(tip)
		require.True(t, ok)
		require.Equal(t, []string{first.OldTip}, commit.Parents)
		id, ok := w.codec.Decode(commit.Message)
		require.True(t, ok)
		require.Equal(t, "job-42", id)

		// Second pass refines the same output: the tip is replaced,
		// not stacked on.
		require.NoError(t, w.scene.Repo.WriteFile("gen/out.txt", "v2"))

		second := w.run(t, engine.Options{
			GroupID: "job-42",
			Message: "generate outputs",
		})
		require.Equal(t, engine.OutcomeAmended, second.Outcome)
		require.Equal(t, first.NewTip, second.OldTip)

		rewritten, ok := w.config.Store.Commit(second.NewTip)
		require.True(t, ok)
		require.Equal(t, []string{first.OldTip}, rewritten.Parents)

		// Third pass with an unchanged tree settles into a no-op.
		third := w.run(t, engine.Options{
			GroupID: "job-42",
			Message: "generate outputs",
		})
		require.Equal(t, engine.OutcomeNoOp, third.Outcome)

		tip, _ = w.config.Store.Ref("main")
		require.Equal(t, second.NewTip, tip)
	})

	t.Run("deletion in the working tree deletes remotely", func(t *testing.T) {
		w := newWorkspace(t)

		require.NoError(t, w.scene.Repo.DeleteFile("README.md"))
		require.NoError(t, w.scene.Repo.WriteFile("replacement.md", "new"))

		result := w.run(t, engine.Options{
			GroupID: "job-1",
			Message: "swap docs",
		})
		require.Equal(t, engine.OutcomeCreated, result.Outcome)
		require.Equal(t, 2, result.ChangedPaths)

		commit, ok := w.config.Store.Commit(result.NewTip)
		require.True(t, ok)
		tree, ok := w.config.Store.Tree(commit.Tree)
		require.True(t, ok)
		paths := make([]string, 0, len(tree))
		for _, e := range tree {
			paths = append(paths, e.Path)
		}
		require.NotContains(t, paths, "README.md")
		require.Contains(t, paths, "replacement.md")
	})

	t.Run("file patterns scope what leaves the working tree", func(t *testing.T) {
		w := newWorkspace(t)

		require.NoError(t, w.scene.Repo.WriteFile("gen/out.txt", "v1"))
		require.NoError(t, w.scene.Repo.WriteFile("notes.txt", "scratch"))

		result := w.run(t, engine.Options{
			GroupID: "job-7",
			Message: "generate outputs",
			Files:   []string{"gen"},
		})
		require.Equal(t, engine.OutcomeCreated, result.Outcome)
		require.Equal(t, 1, result.ChangedPaths)

		commit, _ := w.config.Store.Commit(result.NewTip)
		tree, ok := w.config.Store.Tree(commit.Tree)
		require.True(t, ok)
		paths := make([]string, 0, len(tree))
		for _, e := range tree {
			paths = append(paths, e.Path)
		}
		require.NotContains(t, paths, "notes.txt")
	})

	t.Run("clean working tree is a no-op without remote writes", func(t *testing.T) {
		w := newWorkspace(t)

		before, _ := w.config.Store.Ref("main")

		result := w.run(t, engine.Options{
			GroupID: "job-9",
			Message: "nothing yet",
		})
		require.Equal(t, engine.OutcomeNoOp, result.Outcome)
		require.Zero(t, w.config.BlobUploads.Load())

		after, _ := w.config.Store.Ref("main")
		require.Equal(t, before, after)
	})
}
