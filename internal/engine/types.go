package engine

// Options are the caller-supplied parameters for one run.
type Options struct {
	// Branch is the target branch name. Required; resolve the current
	// branch before calling Run.
	Branch string

	// GroupID is the rewrite-group identifier: the stable identity of
	// the logical task producing the commit.
	GroupID string

	// Message is the commit message, without the trailer.
	Message string

	// Files restricts the changeset to matching paths. Empty means all
	// modified, added and deleted paths.
	Files []string

	// Remote names the git remote used for local sync after the ref
	// moves. Defaults to "origin".
	Remote string

	// NoSync skips reconciling the local checkout after the ref update.
	NoSync bool

	// DryRun decides and reports without creating any remote object.
	DryRun bool
}

// Outcome is the terminal state of a successful run.
type Outcome int

const (
	// OutcomeCreated means a new commit was appended on top of the tip.
	OutcomeCreated Outcome = iota

	// OutcomeAmended means the tip was replaced by a commit sharing its parent.
	OutcomeAmended

	// OutcomeNoOp means the changeset had no effect; nothing was created
	// and the branch did not move.
	OutcomeNoOp
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeAmended:
		return "amended"
	case OutcomeNoOp:
		return "no-op"
	}
	return "unknown"
}

// Result reports what a run did.
type Result struct {
	Outcome Outcome
	Branch  string

	// OldTip is the tip observed at the start of the run.
	OldTip string

	// NewTip is the commit the branch points at after the run. Equal to
	// OldTip for a no-op.
	NewTip string

	// Tree is the tree of the new commit (or the base tree for a no-op).
	Tree string

	// ChangedPaths is how many changeset entries the run carried.
	ChangedPaths int
}
