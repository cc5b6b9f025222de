package cli

import (
	"github.com/spf13/cobra"

	"recommit.dev/recommit/internal/engine"
	"recommit.dev/recommit/internal/runtime"
)

// newCommitCmd creates the commit command
func newCommitCmd() *cobra.Command {
	var (
		message string
		groupID string
		branch  string
		files   []string
		remote  string
		noSync  bool
		dryRun  bool
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit working-tree changes through the GitHub API",
		Long: `Commit working-tree changes through the GitHub API.

If the branch tip carries the same rewrite-group id in its trailer, the
tip is replaced by a new commit with the same parent (a pseudo-amend);
otherwise a new commit is appended. When the resulting tree is identical
to the base tree, nothing is created and the branch does not move.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, err := runtime.NewContext(cmd.Context(), remote)
			if err != nil {
				return err
			}
			runCtx.Splog.SetDebug(debug)

			owner, repo := runCtx.Client.GetOwnerRepo()
			runCtx.Splog.Debug("repository %s/%s", owner, repo)

			if remote == "" {
				remote = runCtx.Config.GetDefaultRemote()
			}
			if branch == "" {
				branch, err = runCtx.Repo.GetCurrentBranch()
				if err != nil {
					return err
				}
				runCtx.Splog.Debug("resolved current branch %s", branch)
			}

			result, err := runCtx.Engine.Run(cmd.Context(), engine.Options{
				Branch:  branch,
				GroupID: groupID,
				Message: message,
				Files:   files,
				Remote:  remote,
				NoSync:  noSync,
				DryRun:  dryRun,
			})
			if err != nil {
				return err
			}

			reportResult(runCtx.Splog, result, dryRun)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "The commit message. Required; may be multi-line.")
	cmd.Flags().StringVarP(&groupID, "rewrite-group", "g", "", "Stable id of the logical task producing this commit. A tip carrying the same id in its trailer is replaced instead of built upon.")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Target branch. Defaults to the currently checked-out branch.")
	cmd.Flags().StringSliceVarP(&files, "files", "f", nil, "Restrict the commit to matching paths (exact, directory, or glob). May be repeated. Defaults to all modified, added and deleted paths.")
	cmd.Flags().StringVar(&remote, "remote", "", "Git remote used to resolve the repository and sync the local checkout. Defaults to origin.")
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "Do not update the local checkout after the branch moves.")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Decide and report without creating any remote object.")
	cmd.Flags().BoolVar(&debug, "debug", false, "Show debug output.")

	_ = cmd.MarkFlagRequired("message")
	_ = cmd.MarkFlagRequired("rewrite-group")

	return cmd
}
