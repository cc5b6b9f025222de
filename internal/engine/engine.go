// Package engine drives one rewrite-or-append run: fetch the branch tip,
// decide whether the tip belongs to the caller's rewrite group, build the
// new tree, create the commit remotely and move the branch ref with a
// compare-and-swap.
package engine

import (
	"context"
	"fmt"

	recommiterrors "recommit.dev/recommit/internal/errors"
	"recommit.dev/recommit/internal/githubapi"
	"recommit.dev/recommit/internal/objectgraph"
	"recommit.dev/recommit/internal/trailer"
)

// ChangeSource supplies the working-tree changeset for a run, optionally
// restricted to the given path patterns.
type ChangeSource func(patterns []string) (objectgraph.Changeset, error)

// LocalSync reconciles the local checkout after the remote ref has moved.
type LocalSync func(ctx context.Context, remote, branch, newTip string) error

// Engine runs the rewrite decision state machine against a remote object API.
type Engine struct {
	client      githubapi.Client
	builder     *objectgraph.Builder
	codec       *trailer.Codec
	identity    *githubapi.Identity
	changes     ChangeSource
	sync        LocalSync
	maxBlobSize int64
}

// New creates an Engine. sync may be nil when no local checkout exists.
func New(client githubapi.Client, codec *trailer.Codec, identity *githubapi.Identity, changes ChangeSource, sync LocalSync) *Engine {
	return &Engine{
		client:      client,
		builder:     objectgraph.NewBuilder(client),
		codec:       codec,
		identity:    identity,
		changes:     changes,
		sync:        sync,
		maxBlobSize: objectgraph.DefaultMaxBlobSize,
	}
}

// WithMaxBlobSize overrides the per-blob content cap, for builds and for
// dry-run validation alike.
func (e *Engine) WithMaxBlobSize(limit int64) *Engine {
	e.builder.WithMaxBlobSize(limit)
	e.maxBlobSize = limit
	return e
}

// Run executes one invocation end to end.
//
// Either the full path completes (commit created and ref updated) or the
// branch is untouched: a failure after object creation leaves only
// unreferenced objects behind, which the hosting side garbage-collects.
// A ref conflict is terminal for the run; the caller re-invokes if the
// other writer's changes should be picked up.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := trailer.ValidateGroupID(opts.GroupID); err != nil {
		return nil, err
	}
	if opts.Message == "" {
		return nil, fmt.Errorf("%w: commit message must not be empty", recommiterrors.ErrInvalidInput)
	}
	if opts.Branch == "" {
		return nil, fmt.Errorf("%w: branch must not be empty", recommiterrors.ErrInvalidInput)
	}
	if opts.Remote == "" {
		opts.Remote = "origin"
	}

	tipSHA, err := e.client.GetBranchTip(ctx, opts.Branch)
	if err != nil {
		return nil, err
	}

	tip, err := e.client.GetCommit(ctx, tipSHA)
	if err != nil {
		return nil, err
	}

	decision := Decide(tip, opts.GroupID, e.codec)

	changeset, err := e.changes(opts.Files)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		return e.dryRunResult(opts, tipSHA, decision, changeset)
	}

	newTree, err := e.builder.Build(ctx, decision.BaseTree, changeset)
	if err != nil {
		return nil, err
	}

	if objectgraph.TreesEqual(newTree, decision.BaseTree) {
		return &Result{
			Outcome:      OutcomeNoOp,
			Branch:       opts.Branch,
			OldTip:       tipSHA,
			NewTip:       tipSHA,
			Tree:         decision.BaseTree,
			ChangedPaths: len(changeset),
		}, nil
	}

	message, err := e.codec.Encode(opts.GroupID, opts.Message)
	if err != nil {
		return nil, err
	}

	newCommit, err := e.client.CreateCommit(ctx, message, newTree, []string{decision.Parent}, e.identity)
	if err != nil {
		return nil, err
	}

	if err := e.client.UpdateRef(ctx, opts.Branch, tipSHA, newCommit); err != nil {
		return nil, err
	}

	if !opts.NoSync && e.sync != nil {
		if err := e.sync(ctx, opts.Remote, opts.Branch, newCommit); err != nil {
			return nil, fmt.Errorf("branch %s updated to %s, but local sync failed: %w", opts.Branch, newCommit, err)
		}
	}

	outcome := OutcomeCreated
	if decision.Rewrite {
		outcome = OutcomeAmended
	}
	return &Result{
		Outcome:      outcome,
		Branch:       opts.Branch,
		OldTip:       tipSHA,
		NewTip:       newCommit,
		Tree:         newTree,
		ChangedPaths: len(changeset),
	}, nil
}

// dryRunResult reports what a run would do without creating remote
// objects. An empty changeset is a definite no-op; a non-empty one is
// reported by its decision path even though building could still turn out
// to be a no-op (identical content cannot be known without uploading).
func (e *Engine) dryRunResult(opts Options, tipSHA string, decision Decision, changeset objectgraph.Changeset) (*Result, error) {
	if err := changeset.Validate(e.maxBlobSize); err != nil {
		return nil, err
	}

	outcome := OutcomeCreated
	if decision.Rewrite {
		outcome = OutcomeAmended
	}
	if len(changeset) == 0 {
		outcome = OutcomeNoOp
	}
	return &Result{
		Outcome:      outcome,
		Branch:       opts.Branch,
		OldTip:       tipSHA,
		NewTip:       tipSHA,
		Tree:         decision.BaseTree,
		ChangedPaths: len(changeset),
	}, nil
}
