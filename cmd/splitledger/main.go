package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/cleared-dev/splitledger/internal/commands"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
