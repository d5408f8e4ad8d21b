package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dusk-indust/pagecraft/internal/config"
)

// runInit writes a default pagecraft.yml into configDir.
func runInit(configDir string, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	force := fs.Bool("force", false, "overwrite an existing pagecraft.yml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := filepath.Join(configDir, "pagecraft.yml")
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}

	if err := config.WriteFile(path, config.Default()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
