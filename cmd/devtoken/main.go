// Command devtoken mints an access token signed with JWT_SECRET for local testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/nebula-studio/billing-api/internal/config"
	"github.com/nebula-studio/billing-api/internal/pkg/jwt"
)

func main() {
	user := flag.String("user", "", "user id (random when empty)")
	role := flag.String("role", "", "role claim, e.g. admin")
	email := flag.String("email", "", "email claim")
	ttl := flag.Duration("ttl", 0, "token lifetime (JWT_ACCESS_TTL when zero)")
	flag.Parse()

	cfg := config.Load()
	if cfg.IsProduction() {
		fmt.Fprintln(os.Stderr, "devtoken refuses to run with ENV=production")
		os.Exit(1)
	}

	userID := uuid.New()
	if *user != "" {
		parsed, err := uuid.Parse(*user)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -user: %v\n", err)
			os.Exit(2)
		}
		userID = parsed
	}

	if *ttl <= 0 {
		*ttl = cfg.JWTAccessTTL
	}

	svc := jwt.NewService(cfg.JWTSecret, *ttl, jwt.WithIssuer(cfg.JWTIssuer), jwt.WithAudience(cfg.JWTAudience))
	token, err := svc.GenerateAccessToken(userID, *role, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "user_id=%s expires_at=%s\n", userID, time.Now().Add(svc.GetAccessTTL()).UTC().Format(time.RFC3339))
	fmt.Println(token)
}
