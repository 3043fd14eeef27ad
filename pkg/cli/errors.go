package cli

import (
	"errors"
	"fmt"

	"github.com/getmockd/stubrouter/pkg/stubclient"
)

// ErrNoSecret is returned by commands that need a token secret.
var ErrNoSecret = errors.New("no token secret configured - set auth.tokenSecret or STUBROUTER_TOKEN_SECRET")

// formatClientError turns a stub client error into a user-facing message.
func formatClientError(err error, target, path string) error {
	var transportErr *stubclient.TransportError
	var apiErr *stubclient.APIError
	switch {
	case errors.As(err, &transportErr):
		return fmt.Errorf(`%w

Suggestions:
  • Start the server: stubrouter serve
  • Check the store URL with --admin-url or STUBROUTER_ADMIN_URL`, err)
	case errors.Is(err, stubclient.ErrNotFound):
		return fmt.Errorf("stub not found: %s (target %s)", path, target)
	case errors.As(err, &apiErr) && apiErr.StatusCode == 401:
		return fmt.Errorf(`%w

Suggestions:
  • Pass a token with --token or STUBROUTER_TOKEN
  • Create one with: stubrouter token --user <name>`, err)
	default:
		return err
	}
}
