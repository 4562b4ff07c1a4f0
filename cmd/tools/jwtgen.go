package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"rental-inventory-api/internal/auth"
	"rental-inventory-api/internal/config"

	"golang.org/x/crypto/bcrypt"
)

// Dev helper: generates a bearer token for the API, or a bcrypt hash for
// the AUTH_PASSWORD_HASH setting when -password is given.
func main() {
	var (
		subject    = flag.String("subject", "admin", "Token subject (username)")
		roles      = flag.String("roles", "admin", "Comma-separated list of roles")
		expiryMins = flag.Int("expiry", 1440, "Token expiry in minutes (default: 24 hours)")
		secret     = flag.String("secret", "", "JWT secret (overrides JWT_SECRET env var)")
		issuer     = flag.String("issuer", "", "JWT issuer (overrides JWT_ISS env var)")
		audience   = flag.String("audience", "", "JWT audience (overrides JWT_AUD env var)")
		password   = flag.String("password", "", "Print a bcrypt hash of this password and exit")
	)
	flag.Parse()

	if *password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Printf("%s\n", hash)
		return
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *secret != "" {
		cfg.Auth.JWTSecret = *secret
	}
	if *issuer != "" {
		cfg.Auth.JWTIssuer = *issuer
	}
	if *audience != "" {
		cfg.Auth.JWTAudience = *audience
	}

	roleList := strings.Split(*roles, ",")
	for i, role := range roleList {
		roleList[i] = strings.TrimSpace(role)
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience, time.Duration(*expiryMins)*time.Minute)

	token, err := jwtManager.GenerateToken(*subject, roleList)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("Subject: %s\n", *subject)
	fmt.Printf("Roles: %s\n", strings.Join(roleList, ", "))
	fmt.Printf("Expiry: %d minutes\n", *expiryMins)
	fmt.Printf("\nToken:\n%s\n\n", token)
	fmt.Printf("Usage example:\n")
	fmt.Printf("curl -H \"Authorization: Bearer %s\" http://localhost:8080/resources\n", token)
}
