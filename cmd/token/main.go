// Command token prints a signed API token for the SLA endpoints.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spec-kit/sla-tracker/internal/auth"
	"github.com/spec-kit/sla-tracker/internal/config"
	"github.com/spec-kit/sla-tracker/internal/domain"
)

func main() {
	subject := flag.String("subject", "", "token subject, e.g. a service or operator name")
	role := flag.String("role", string(domain.RoleViewer), "viewer or admin")
	ttl := flag.Int("ttl-minutes", 0, "token lifetime; defaults to AUTH_ACCESS_TOKEN_TTL_MINUTES")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	minutes := cfg.Auth.AccessTokenTTLMinutes
	if *ttl > 0 {
		minutes = *ttl
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, minutes)
	issued, signed, err := tokens.GenerateToken(*subject, domain.Role(*role))
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	fmt.Println(signed)
	fmt.Fprintf(os.Stderr, "subject=%s role=%s expires=%s\n", issued.Subject, issued.Role, issued.ExpiresAt.Format(time.RFC3339))
}
