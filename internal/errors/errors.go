// Package errors provides sentinel errors and custom error types for the recommit application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrInvalidInput indicates a malformed or missing invocation parameter
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotOnBranch indicates that HEAD is not on a branch
	ErrNotOnBranch = errors.New("not on a branch")

	// ErrRemoteNotFound indicates that a branch or object is missing upstream
	ErrRemoteNotFound = errors.New("remote object not found")

	// ErrForbidden indicates the credential lacks permission for the operation
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates the branch moved between fetch and update
	ErrConflict = errors.New("ref update conflict")

	// ErrContentTooLarge indicates a changeset entry exceeds the blob size cap
	ErrContentTooLarge = errors.New("content too large")

	// ErrInvalidPath indicates a changeset path is not a valid repository-relative path
	ErrInvalidPath = errors.New("invalid path")

	// ErrTransient indicates a network or API failure surfaced by the transport
	ErrTransient = errors.New("transient remote error")
)

// RefConflictError represents a failed compare-and-swap on a branch ref:
// the branch tip no longer matches what was observed at the start of the run.
type RefConflictError struct {
	Branch   string
	Expected string
	Actual   string
}

func (e *RefConflictError) Error() string {
	if e.Actual != "" {
		return fmt.Sprintf("branch %s moved: expected tip %s but found %s (someone else pushed; re-run to pick up their changes)",
			e.Branch, e.Expected, e.Actual)
	}
	return fmt.Sprintf("branch %s moved since tip %s was observed (someone else pushed; re-run to pick up their changes)",
		e.Branch, e.Expected)
}

// Is returns true if the target error is ErrConflict
func (e *RefConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewRefConflictError creates a new RefConflictError
func NewRefConflictError(branch, expected, actual string) *RefConflictError {
	return &RefConflictError{Branch: branch, Expected: expected, Actual: actual}
}

// ForbiddenError represents a permission failure from the hosting API
type ForbiddenError struct {
	Operation string
	Branch    string
}

func (e *ForbiddenError) Error() string {
	if e.Branch != "" {
		return fmt.Sprintf("credential lacks permission to %s on branch %s (check token scopes or branch protection)", e.Operation, e.Branch)
	}
	return fmt.Sprintf("credential lacks permission to %s (check token scopes)", e.Operation)
}

// Is returns true if the target error is ErrForbidden
func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// BranchNotFoundError represents an error when a branch is not found upstream
type BranchNotFoundError struct {
	Branch string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %s does not exist on the remote", e.Branch)
}

// Is returns true if the target error is ErrRemoteNotFound
func (e *BranchNotFoundError) Is(target error) bool {
	return target == ErrRemoteNotFound
}

// NewBranchNotFoundError creates a new BranchNotFoundError
func NewBranchNotFoundError(branch string) *BranchNotFoundError {
	return &BranchNotFoundError{Branch: branch}
}

// InvalidPathError represents a changeset entry whose path was rejected
// before any remote object was created.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// Is returns true if the target error is ErrInvalidPath
func (e *InvalidPathError) Is(target error) bool {
	return target == ErrInvalidPath
}

// NewInvalidPathError creates a new InvalidPathError
func NewInvalidPathError(path, reason string) *InvalidPathError {
	return &InvalidPathError{Path: path, Reason: reason}
}

// ContentTooLargeError represents a changeset entry whose content exceeds the blob cap
type ContentTooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *ContentTooLargeError) Error() string {
	return fmt.Sprintf("content for %q is %d bytes, exceeds limit of %d", e.Path, e.Size, e.Limit)
}

// Is returns true if the target error is ErrContentTooLarge
func (e *ContentTooLargeError) Is(target error) bool {
	return target == ErrContentTooLarge
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
