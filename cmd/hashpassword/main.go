// Package main prints the argon2id hash to put in ADMIN_PASSWORD_HASH.
//
// Usage:
//
//	go run ./cmd/hashpassword 'my admin password'
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/elephoto/elephoto-server/internal/auth"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "usage: hashpassword <password>")
		os.Exit(2)
	}

	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	fmt.Println(hash)
}
