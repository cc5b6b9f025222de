package engine

import (
	"recommit.dev/recommit/internal/githubapi"
	"recommit.dev/recommit/internal/trailer"
)

// Decision is the outcome of inspecting a branch tip: which commit the new
// commit descends from, and which tree the changeset applies on top of.
type Decision struct {
	// Rewrite is true when the tip belongs to the same rewrite group and
	// is being replaced rather than built upon.
	Rewrite bool

	// Parent is the parent of the commit to create: the tip's own parent
	// when rewriting, the tip itself when appending.
	Parent string

	// BaseTree is the tree the changeset applies to. Always the tip's
	// tree: a rewrite carries the tip's content forward under a new
	// commit, it does not revert it.
	BaseTree string
}

// Decide inspects the tip commit and picks the rewrite or append path.
//
// The tip is rewritten only when its trailer carries the same rewrite-group
// id and it has exactly one parent. A root commit is never rewritten (there
// is no parent to re-hang the replacement on), and neither is a merge
// commit (it was not produced by a linear run of this tool); both append.
func Decide(tip *githubapi.Commit, groupID string, codec *trailer.Codec) Decision {
	if tipID, ok := codec.Decode(tip.Message); ok && tipID == groupID && len(tip.Parents) == 1 {
		return Decision{
			Rewrite:  true,
			Parent:   tip.Parents[0],
			BaseTree: tip.Tree,
		}
	}
	return Decision{
		Rewrite:  false,
		Parent:   tip.SHA,
		BaseTree: tip.Tree,
	}
}
