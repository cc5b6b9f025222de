package git

import (
	"context"
	"fmt"
)

// Identity is the committer identity from local git config
type Identity struct {
	Name  string
	Email string
}

// GetIdentity resolves user.name and user.email from git config.
// Hosting platforms may substitute the credential's identity server-side;
// this is what goes on the wire when they don't.
func GetIdentity(ctx context.Context) (*Identity, error) {
	name, err := RunGitCommandWithContext(ctx, "config", "--get", "user.name")
	if err != nil || name == "" {
		return nil, fmt.Errorf("user.name is not set in git config")
	}

	email, err := RunGitCommandWithContext(ctx, "config", "--get", "user.email")
	if err != nil || email == "" {
		return nil, fmt.Errorf("user.email is not set in git config")
	}

	return &Identity{Name: name, Email: email}, nil
}
