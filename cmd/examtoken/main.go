// Command examtoken mints or inspects access tokens with the server's
// secret. It reads JWT_SECRET from the environment.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/examportal/backend/adapters/tokenizer"
	"github.com/examportal/backend/config"
	"github.com/examportal/backend/core"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		subject string
		role    string
		issuer  string
		ttl     time.Duration
		verify  string
	)

	flagSet := pflag.NewFlagSet("examtoken", pflag.ContinueOnError)
	flagSet.StringVar(&subject, "subject", "", "token subject (user email)")
	flagSet.StringVar(&role, "role", core.RoleAdmin, "role claim")
	flagSet.StringVar(&issuer, "issuer", config.DefaultTokenIssuer, "iss claim")
	flagSet.DurationVar(&ttl, "ttl", config.DefaultAccessTokenTTL, "token lifetime")
	flagSet.StringVar(&verify, "verify", "", "verify this token and print its claims instead of minting one")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	secret := []byte(os.Getenv("JWT_SECRET"))
	if len(secret) < config.MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", config.MinSecretLength)
	}
	tok := tokenizer.NewJWTTokenizer(secret, tokenizer.WithIssuer(issuer))

	if verify != "" {
		claims, err := tok.Verify(verify)
		if err != nil {
			return err
		}
		fmt.Printf("subject: %s\nrole:    %s\nid:      %s\nexpires: %s\n",
			claims.Subject, claims.Role, claims.ID, claims.ExpiresAt.Format(time.RFC3339))
		return nil
	}

	if subject == "" {
		return errors.New("--subject is required")
	}
	token, err := tok.Issue(subject, role, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
