package git

import (
	"context"
	"fmt"
)

// SyncLocal reconciles the local repository with a branch tip that was
// just moved on the remote: the new objects are fetched, the local branch
// ref is pointed at the new tip, and when that branch is checked out the
// index is reset to it so the committed paths read as clean.
//
// Unrelated working-tree modifications are left in place (mixed reset,
// never hard).
func SyncLocal(ctx context.Context, remote, branch, newTip string) error {
	refspec := fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, remote, branch)
	if _, err := RunGitCommandWithContext(ctx, "fetch", remote, refspec); err != nil {
		return fmt.Errorf("failed to fetch %s from %s: %w", branch, remote, err)
	}

	current, err := RunGitCommandWithContext(ctx, "symbolic-ref", "--short", "-q", "HEAD")
	if err != nil {
		// Detached HEAD: only the branch ref needs to move.
		current = ""
	}

	if current == branch {
		if _, err := RunGitCommandWithContext(ctx, "reset", "--mixed", newTip); err != nil {
			return fmt.Errorf("failed to reset %s to %s: %w", branch, newTip, err)
		}
		return nil
	}

	if _, err := RunGitCommandWithContext(ctx, "update-ref", "refs/heads/"+branch, newTip); err != nil {
		return fmt.Errorf("failed to move local %s to %s: %w", branch, newTip, err)
	}
	return nil
}
