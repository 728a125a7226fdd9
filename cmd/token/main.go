// Command token mints bearer tokens for API clients when auth.jwt_secret is set.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"snapcaption/internal/config"
	"snapcaption/internal/pkg/jwtutil"
)

func main() {
	client := flag.String("client", "", "client id stored as the token subject")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime, 0 for no expiry")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if !cfg.AuthEnabled() {
		log.Fatal("auth.jwt_secret (JWT_SECRET) is empty; tokens would not be checked")
	}

	token, err := jwtutil.GenerateToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, *ttl, *client)
	if err != nil {
		log.Fatalf("generate token failed: %v", err)
	}
	fmt.Fprintln(os.Stdout, token)
}
