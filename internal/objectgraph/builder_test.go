package objectgraph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	recommiterrors "recommit.dev/recommit/internal/errors"
	"recommit.dev/recommit/internal/githubapi"
	"recommit.dev/recommit/internal/objectgraph"
	"recommit.dev/recommit/testhelpers"
)

func newTestBuilder(t *testing.T) (*objectgraph.Builder, *testhelpers.MockGitDataServerConfig) {
	t.Helper()
	config := testhelpers.NewMockGitDataServerConfig()
	ghClient := testhelpers.NewMockGitDataClient(t, config)
	client := githubapi.NewClientFromGitHub(ghClient, config.Owner, config.Repo)
	return objectgraph.NewBuilder(client), config
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("adds a new file at the root", func(t *testing.T) {
		builder, config := newTestBuilder(t)
		base := config.Store.AddTreeFromFiles(map[string]string{"README.md": "hello"})

		newTree, err := builder.Build(ctx, base, objectgraph.Changeset{
			{Path: "main.go", Content: []byte("package main\n")},
		})
		require.NoError(t, err)
		require.NotEqual(t, base, newTree)

		entries, ok := config.Store.Tree(newTree)
		require.True(t, ok)
		require.Len(t, entries, 2)
		require.Equal(t, "README.md", entries[0].Path)
		require.Equal(t, "main.go", entries[1].Path)
	})

	t.Run("is deterministic for fixed base and changeset", func(t *testing.T) {
		builder, config := newTestBuilder(t)
		base := config.Store.AddTreeFromFiles(map[string]string{"a.txt": "a", "dir/b.txt": "b"})

		cs := objectgraph.Changeset{
			{Path: "dir/b.txt", Content: []byte("changed")},
			{Path: "c.txt", Content: []byte("new")},
		}

		first, err := builder.Build(ctx, base, cs)
		require.NoError(t, err)
		second, err := builder.Build(ctx, base, cs)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("rebuilds only subtrees along changed paths", func(t *testing.T) {
		builder, config := newTestBuilder(t)
		base := config.Store.AddTreeFromFiles(map[string]string{
			"src/app/main.go": "package app",
			"src/lib/lib.go":  "package lib",
			"docs/readme.md":  "docs",
		})

		baseEntries, _ := config.Store.Tree(base)
		var baseDocsSHA, baseSrcSHA string
		for _, e := range baseEntries {
			switch e.Path {
			case "docs":
				baseDocsSHA = e.SHA
			case "src":
				baseSrcSHA = e.SHA
			}
		}

		newTree, err := builder.Build(ctx, base, objectgraph.Changeset{
			{Path: "src/app/main.go", Content: []byte("package app // v2")},
		})
		require.NoError(t, err)

		newEntries, _ := config.Store.Tree(newTree)
		for _, e := range newEntries {
			switch e.Path {
			case "docs":
				// Untouched sibling subtree carried over by reference.
				require.Equal(t, baseDocsSHA, e.SHA)
			case "src":
				require.NotEqual(t, baseSrcSHA, e.SHA)
			}
		}

		// Only the changed file's blob went over the wire.
		require.EqualValues(t, 1, config.BlobUploads.Load())
	})

	t.Run("deletion removes the path", func(t *testing.T) {
		builder, config := newTestBuilder(t)
		base := config.Store.AddTreeFromFiles(map[string]string{"a.txt": "a", "b.txt": "b"})

		newTree, err := builder.Build(ctx, base, objectgraph.Changeset{
			{Path: "b.txt", Tombstone: true},
		})
		require.NoError(t, err)

		entries, ok := config.Store.Tree(newTree)
		require.True(t, ok)
		require.Len(t, entries, 1)
		require.Equal(t, "a.txt", entries[0].Path)
	})

	t.Run("deleting the last file of a directory prunes the subtree", func(t *testing.T) {
		builder, config := newTestBuilder(t)
		base := config.Store.AddTreeFromFiles(map[string]string{
			"keep.txt":     "keep",
			"dir/only.txt": "only",
		})

		newTree, err := builder.Build(ctx, base, objectgraph.Changeset{
			{Path: "dir/only.txt", Tombstone: true},
		})
		require.NoError(t, err)

		entries, _ := config.Store.Tree(newTree)
		require.Len(t, entries, 1)
		require.Equal(t, "keep.txt", entries[0].Path)
	})

	t.Run("no-op when content matches the base", func(t *testing.T) {
		builder, config := newTestBuilder(t)
		base := config.Store.AddTreeFromFiles(map[string]string{"a.txt": "same"})

		newTree, err := builder.Build(ctx, base, objectgraph.Changeset{
			{Path: "a.txt", Content: []byte("same")},
		})
		require.NoError(t, err)
		require.Equal(t, base, newTree)
		require.True(t, objectgraph.TreesEqual(base, newTree))
	})

	t.Run("no-op when deleting a path that does not exist", func(t *testing.T) {
		builder, config := newTestBuilder(t)
		base := config.Store.AddTreeFromFiles(map[string]string{"a.txt": "a"})

		newTree, err := builder.Build(ctx, base, objectgraph.Changeset{
			{Path: "ghost.txt", Tombstone: true},
		})
		require.NoError(t, err)
		require.Equal(t, base, newTree)
	})

	t.Run("empty changeset returns the base tree", func(t *testing.T) {
		builder, config := newTestBuilder(t)
		base := config.Store.AddTreeFromFiles(map[string]string{"a.txt": "a"})

		newTree, err := builder.Build(ctx, base, nil)
		require.NoError(t, err)
		require.Equal(t, base, newTree)
		require.EqualValues(t, 0, config.TreeCreates.Load())
	})

	t.Run("creates nested directories for new paths", func(t *testing.T) {
		builder, config := newTestBuilder(t)
		base := config.Store.AddTreeFromFiles(map[string]string{"a.txt": "a"})

		newTree, err := builder.Build(ctx, base, objectgraph.Changeset{
			{Path: "deep/nested/file.txt", Content: []byte("x")},
		})
		require.NoError(t, err)

		entries, _ := config.Store.Tree(newTree)
		require.Len(t, entries, 2)
		require.Equal(t, "deep", entries[1].Path)
		require.Equal(t, "tree", entries[1].Type)
	})

	t.Run("preserves executable mode on modified files", func(t *testing.T) {
		builder, config := newTestBuilder(t)
		blobSHA := config.Store.AddBlob([]byte("#!/bin/sh\n"))
		base := config.Store.AddTree([]testhelpers.TreeEntryRec{
			{Path: "run.sh", Mode: "100755", Type: "blob", SHA: blobSHA},
		})

		newTree, err := builder.Build(ctx, base, objectgraph.Changeset{
			{Path: "run.sh", Content: []byte("#!/bin/sh\necho hi\n")},
		})
		require.NoError(t, err)

		entries, _ := config.Store.Tree(newTree)
		require.Len(t, entries, 1)
		require.Equal(t, "100755", entries[0].Mode)
	})
}

func TestBuildValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects absolute paths", func(t *testing.T) {
		builder, config := newTestBuilder(t)
		base := config.Store.AddTreeFromFiles(map[string]string{"a.txt": "a"})

		_, err := builder.Build(ctx, base, objectgraph.Changeset{
			{Path: "/etc/passwd", Content: []byte("x")},
		})
		require.ErrorIs(t, err, recommiterrors.ErrInvalidPath)
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		builder, _ := newTestBuilder(t)
		_, err := builder.Build(ctx, "", objectgraph.Changeset{
			{Path: "a/../b.txt", Content: []byte("x")},
		})
		require.ErrorIs(t, err, recommiterrors.ErrInvalidPath)
	})

	t.Run("rejects empty segment", func(t *testing.T) {
		builder, _ := newTestBuilder(t)
		_, err := builder.Build(ctx, "", objectgraph.Changeset{
			{Path: "a//b.txt", Content: []byte("x")},
		})
		require.ErrorIs(t, err, recommiterrors.ErrInvalidPath)
	})

	t.Run("rejects duplicate paths in one changeset", func(t *testing.T) {
		builder, _ := newTestBuilder(t)
		_, err := builder.Build(ctx, "", objectgraph.Changeset{
			{Path: "a.txt", Content: []byte("one")},
			{Path: "a.txt", Content: []byte("two")},
		})
		require.ErrorIs(t, err, recommiterrors.ErrInvalidPath)
	})

	t.Run("rejects a path used as both file and directory", func(t *testing.T) {
		builder, config := newTestBuilder(t)
		_, err := builder.Build(ctx, "", objectgraph.Changeset{
			{Path: "a", Content: []byte("file")},
			{Path: "a/b.txt", Content: []byte("nested")},
		})
		require.ErrorIs(t, err, recommiterrors.ErrInvalidPath)

		// Nothing was uploaded before the rejection.
		require.EqualValues(t, 0, config.BlobUploads.Load())
	})

	t.Run("rejects content over the size cap", func(t *testing.T) {
		builder, _ := newTestBuilder(t)
		builder.WithMaxBlobSize(4)
		_, err := builder.Build(ctx, "", objectgraph.Changeset{
			{Path: "big.bin", Content: []byte("too large")},
		})
		require.ErrorIs(t, err, recommiterrors.ErrContentTooLarge)
	})
}
