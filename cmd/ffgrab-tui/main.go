package main

import (
	"flag"
	"fmt"
	"os"

	"ffgrab/internal/config"
	"ffgrab/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Configuration file path")
	flag.Parse()

	cfg, created, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if created {
		path, _ := config.DefaultPath()
		fmt.Printf("Wrote a sample configuration to %s\nEdit it and run ffgrab-tui again.\n", path)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
