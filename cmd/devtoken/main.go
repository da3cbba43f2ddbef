// Command devtoken prints a signed access token for local testing of the
// booking API without the external identity provider.
//
//	go run ./cmd/devtoken -sub devotee-1
//	go run ./cmd/devtoken -sub office -role admin -ttl 8h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sabarisastha/annadanam/internal/utils"
)

func main() {
	_ = godotenv.Load()

	sub := flag.String("sub", "", "user id to put in the sub claim")
	role := flag.String("role", "authenticated", "role claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	if *sub == "" {
		log.Fatal("-sub is required")
	}
	tok, err := utils.NewAccessToken(secret, *sub, *role, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(tok.Token)
}
