// Command gen-token signs HS256 tokens for servers running with
// LOCAL_AUTH_MODE=hs256.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	count  int
	prefix string
	start  int
	email  string
	name   string
	ttl    time.Duration
	output string
}

func main() {
	if err := newCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:          "gen-token [USER_ID]",
		Short:        "Sign development tokens with LOCAL_AUTH_SHARED_SECRET",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("LOCAL_AUTH_SHARED_SECRET")
			if secret == "" {
				return errors.New("LOCAL_AUTH_SHARED_SECRET must be set")
			}
			if o.count < 1 {
				return errors.New("count must be at least 1")
			}
			if o.start < 1 {
				return errors.New("start index must be at least 1")
			}
			if len(args) > 0 && o.count > 1 {
				return errors.New("explicit user ID cannot be provided when generating multiple tokens")
			}
			tokens, err := generateTokens([]byte(secret), o, args, time.Now())
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			if o.output != "" {
				if err := writeTokens(o.output, tokens); err != nil {
					return fmt.Errorf("write tokens: %w", err)
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), tokens[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&o.count, "count", 1, "number of tokens to generate")
	cmd.Flags().StringVar(&o.prefix, "prefix", "dev-user", "prefix for generated user IDs when count > 1")
	cmd.Flags().IntVar(&o.start, "start", 1, "starting index for generated user IDs when count > 1")
	cmd.Flags().StringVar(&o.email, "email", "", "email claim (default <user>@example.com)")
	cmd.Flags().StringVar(&o.name, "name", "", "name claim")
	cmd.Flags().DurationVar(&o.ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&o.output, "output", "", "file to write generated tokens as a JSON array")
	return cmd
}

func generateTokens(secret []byte, o options, args []string, now time.Time) ([]string, error) {
	tokens := make([]string, o.count)
	for i := range tokens {
		var userID string
		switch {
		case len(args) > 0:
			userID = args[0]
		case o.count == 1:
			userID = o.prefix
		default:
			userID = fmt.Sprintf("%s-%d", o.prefix, o.start+i)
		}
		claims := jwt.MapClaims{
			"sub": userID,
			"iat": now.Unix(),
			"exp": now.Add(o.ttl).Unix(),
		}
		email := o.email
		if email == "" || o.count > 1 {
			email = userID + "@example.com"
		}
		claims["email"] = email
		if o.name != "" {
			claims["name"] = o.name
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		if err != nil {
			return nil, err
		}
		tokens[i] = tok
	}
	return tokens, nil
}

func writeTokens(path string, tokens []string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := sonic.Marshal(tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
