package main

import (
	"fmt"
	"os"

	"github.com/developr-99/notes-generator-llm-app/internal/cli"
	"github.com/developr-99/notes-generator-llm-app/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return cli.NewRootCmd(&cli.Dependencies{Config: cfg, Out: os.Stdout}).Execute()
}
