// Package runtime provides a context type that holds the engine and logger
// for use throughout the application. This avoids passing multiple parameters.
package runtime

import (
	"context"
	"fmt"

	"recommit.dev/recommit/internal/config"
	"recommit.dev/recommit/internal/engine"
	"recommit.dev/recommit/internal/git"
	"recommit.dev/recommit/internal/githubapi"
	"recommit.dev/recommit/internal/objectgraph"
	"recommit.dev/recommit/internal/output"
	"recommit.dev/recommit/internal/trailer"
)

// Context provides access to the engine and output for commands
type Context struct {
	Engine   *engine.Engine
	Splog    *output.Splog
	RepoRoot string
	Config   *config.RepoConfig
	Repo     *git.Repository
	Client   githubapi.Client
}

// NewContext wires a Context from the local repository and the remote
// behind the given remote name. Ambient state (current directory, git
// config identity, credential) is resolved here, once, so the engine
// itself stays parameter-driven.
func NewContext(ctx context.Context, remote string) (*Context, error) {
	repoRoot, err := git.GetRepoRoot()
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	git.SetWorkingDir(repoRoot)

	repo, err := git.OpenRepository(repoRoot)
	if err != nil {
		return nil, err
	}

	cfg, err := config.GetRepoConfig(repoRoot)
	if err != nil {
		return nil, err
	}
	if remote == "" {
		remote = cfg.GetDefaultRemote()
	}

	identity, err := git.GetIdentity(ctx)
	if err != nil {
		return nil, err
	}

	client, err := githubapi.NewRealClient(ctx, remote)
	if err != nil {
		return nil, err
	}

	codec := trailer.NewCodec(cfg.GetTrailerKey())

	eng := engine.New(
		client,
		codec,
		&githubapi.Identity{Name: identity.Name, Email: identity.Email},
		worktreeChangeSource(repo),
		git.SyncLocal,
	)
	if limit := cfg.GetMaxBlobSize(); limit > 0 {
		eng.WithMaxBlobSize(limit)
	}

	return &Context{
		Engine:   eng,
		Splog:    output.NewSplog(),
		RepoRoot: repoRoot,
		Config:   cfg,
		Repo:     repo,
		Client:   client,
	}, nil
}

// worktreeChangeSource adapts the repository's working-tree scan to the
// engine's changeset input.
func worktreeChangeSource(repo *git.Repository) engine.ChangeSource {
	return func(patterns []string) (objectgraph.Changeset, error) {
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
}
