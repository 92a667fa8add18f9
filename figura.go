package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	cli "github.com/figurabot/figura/cmd/figura"
	"github.com/figurabot/figura/internal/config"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	cfg := config.Load()

	if err := cli.SetupRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
