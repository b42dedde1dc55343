package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/khoahotran/portfolio-editor/pkg/auth"
)

// Prints an OWNER_PASSWORD_HASH line for the password in OWNER_PASSWORD (or the first argument).
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, use system environment variables.")
	}

	password := os.Getenv("OWNER_PASSWORD")
	if len(os.Args) > 1 {
		password = os.Args[1]
	}
	if password == "" {
		log.Fatal("set OWNER_PASSWORD or pass the password as the first argument")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("cannot hash password: %v", err)
	}

	fmt.Printf("OWNER_PASSWORD_HASH=%s\n", hash)
}
