package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hazyhaar/product-name-normalizer/pkg/api"
	"github.com/hazyhaar/product-name-normalizer/pkg/dict"
	"github.com/hazyhaar/product-name-normalizer/pkg/history"
	"github.com/hazyhaar/product-name-normalizer/pkg/kit"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "mcp":
		err = cmdMCP(os.Args[2:])
	case "serve":
		err = cmdServe(os.Args[2:])
	case "fix":
		err = cmdFix(os.Args[2:])
	case "add":
		err = cmdAdd(os.Args[2:])
	case "list":
		err = cmdList(os.Args[2:])
	case "import":
		err = cmdImport(os.Args[2:])
	case "history":
		err = cmdHistory(os.Args[2:])
	case "smoke":
		err = cmdSmoke(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "termfix %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: termfix <command> [flags]

Commands:
  mcp       Serve the MCP tools over stdio
  serve     Start the HTTP API (and MCP over QUIC when configured)
  fix       Correct stdin and write the result to stdout
  add       Add a canonical term and its misspellings: add <correct> [variant...]
  list      Print the dictionary as JSON
  import    Merge a term list (csv, json, yaml; file or URL) into the dictionary
  history   Show recent dictionary edits
  smoke     Call fix_terms on a running MCP/QUIC server
`)
}

// app holds what every command needs: config, logger, engine, optional journal.
type app struct {
	cfg    config
	logger *slog.Logger
	engine *dict.Engine
	hist   *history.Log
}

// newFlagSet returns a flag set with the shared -config flag.
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	return fs, cfgPath
}

func newApp(cfgPath string) (*app, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	engine, err := dict.NewEngine(cfg.TermsPath,
		dict.WithLogger(logger),
		dict.WithCacheSize(cfg.CacheSize),
	)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, engine: engine}
	if cfg.HistoryDB != "" {
		hist, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return nil, err
		}
		a.hist = hist
	}
	return a, nil
}

func (a *app) close() {
	if a.hist != nil {
		a.hist.Close()
	}
}

// journal returns the journal as an interface value, nil when disabled.
func (a *app) journal() api.History {
	if a.hist == nil {
		return nil
	}
	return a.hist
}

func (a *app) endpoints() api.Endpoints {
	return api.NewEndpoints(a.engine, a.journal(), a.logger)
}

func cliContext() context.Context {
	return kit.WithTransport(context.Background(), "cli")
}
