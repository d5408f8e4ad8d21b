package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: sitectl [-config dir] <command> [args]

commands:
  serve                  serve rendered pages
  serve-content          serve the local store on the content API
  serve-mcp [-http addr] run the preview MCP server (stdio by default)
  render [-json] <slug>  render one page to stdout
  diagram <slug>         print a Mermaid diagram of a page composition
  export -o file <slug>  write a JSON outline of a page
  seed <file>            load a seed file into the local store
  init [-force]          write a default pagecraft.yml
  version                print version and exit`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configDir string

	fs := flag.NewFlagSet("sitectl", flag.ContinueOnError)
	fs.StringVar(&configDir, "config", ".", "directory containing pagecraft.yml")
	fs.Usage = func() { fmt.Fprintln(fs.Output(), usage) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("missing command")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "version":
		fmt.Println(version)
		return nil
	case "init":
		return runInit(configDir, rest)
	}

	a, err := newApp(configDir)
	if err != nil {
		return err
	}

	switch cmd {
	case "serve":
		return a.runServe(ctx)
	case "serve-content":
		return a.runServeContent(ctx, rest)
	case "serve-mcp":
		return a.runServeMCP(ctx, rest)
	case "render":
		return a.runRender(ctx, rest)
	case "diagram":
		return a.runDiagram(ctx, rest)
	case "export":
		return a.runExport(ctx, rest)
	case "seed":
		return a.runSeed(ctx, rest)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
