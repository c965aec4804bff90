// Generate a bcrypt hash for the shared chatbot password.
//
// Usage:
//
//	go run cmd/hash-password/main.go <password>
//	CHATBOT_PASSWORD=secret go run cmd/hash-password/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	password := os.Getenv("CHATBOT_PASSWORD")
	if len(os.Args) > 1 {
		password = os.Args[1]
	}
	if password == "" {
		log.Fatal("Usage: hash-password <password> (or set CHATBOT_PASSWORD)")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	fmt.Printf("✅ Password hash generated!\n")
	fmt.Printf("   Add this to your .env file:\n\n")
	fmt.Printf("   CHATBOT_PASSWORD_HASH=%s\n", string(hash))
}
