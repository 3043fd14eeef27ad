package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubrouter/pkg/cli/internal/output"
	"github.com/getmockd/stubrouter/pkg/stubapi"
)

func newTokenCmd(g *globals) *cobra.Command {
	var (
		user string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the stub store API",
		Long: `Issue an HS256 token signed with the configured token secret. The
operator name is stored in the configured user claim (default "userid").`,
		Example: `  STUBROUTER_TOKEN_SECRET=s3cret stubrouter token --user alice --ttl 8h`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			auth := stubapi.NewAuth(g.cfg.Auth.TokenSecret, g.cfg.Auth.UserField)
			if auth == nil {
				return ErrNoSecret
			}
			token, err := auth.NewToken(user, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			if g.jsonOutput {
				res := map[string]any{"token": token, "user": user}
				if ttl > 0 {
					res["expiresAt"] = time.Now().Add(ttl).UTC().Format(time.RFC3339)
				}
				return output.JSON(out(cmd), res)
			}
			fmt.Fprintln(out(cmd), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Operator name (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime, 0 for no expiry")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
