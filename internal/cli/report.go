package cli

import (
	"errors"

	recommiterrors "recommit.dev/recommit/internal/errors"
	"recommit.dev/recommit/internal/engine"
	"recommit.dev/recommit/internal/output"
)

// reportResult prints the outcome of a run in one line plus detail.
func reportResult(splog *output.Splog, result *engine.Result, dryRun bool) {
	prefix := ""
	if dryRun {
		prefix = "[dry-run] "
	}

	switch result.Outcome {
	case engine.OutcomeNoOp:
		splog.Info("%snothing to commit on %s (tip %s unchanged)", prefix, result.Branch, short(result.OldTip))
	case engine.OutcomeAmended:
		splog.Info("%samended %s: %s -> %s (%d paths)", prefix, result.Branch, short(result.OldTip), short(result.NewTip), result.ChangedPaths)
	case engine.OutcomeCreated:
		splog.Info("%scommitted to %s: %s -> %s (%d paths)", prefix, result.Branch, short(result.OldTip), short(result.NewTip), result.ChangedPaths)
	}
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

// Exit codes per failure kind, so callers can script against the outcome.
const (
	exitFailure   = 1
	exitInvalid   = 2
	exitNotFound  = 3
	exitForbidden = 4
	exitConflict  = 5
)

// ExitCode maps an error to the process exit code for it.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, recommiterrors.ErrConflict):
		return exitConflict
	case errors.Is(err, recommiterrors.ErrForbidden):
		return exitForbidden
	case errors.Is(err, recommiterrors.ErrRemoteNotFound):
		return exitNotFound
	case errors.Is(err, recommiterrors.ErrInvalidInput),
		errors.Is(err, recommiterrors.ErrInvalidPath),
		errors.Is(err, recommiterrors.ErrContentTooLarge):
		return exitInvalid
	}
	return exitFailure
}
