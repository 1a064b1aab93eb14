package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tabherd/tabherd/pkg/config"
)

func (a *app) cmdInit(args []string) int {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	force := flags.Bool("force", false, "overwrite an existing config file")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	path := configPath()
	if err := writeDefaultConfig(path, *force); err != nil {
		fmt.Fprintf(os.Stderr, "tabherd: init: %v\n", err)
		return 1
	}
	fmt.Printf("initialized tabherd (config: %s)\n", path)

	fmt.Println()
	fmt.Println("next steps:")
	fmt.Printf("  edit %s and set nats.url\n", path)
	fmt.Println("  tabherd status         # verify the endpoint answers")
	fmt.Println("  tabherd sort --by url  # sort the current selection")
	return 0
}

// writeDefaultConfig creates the config file with defaults. An
// existing file is left alone unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, config.DefaultYAML(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
