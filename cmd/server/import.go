// CLAUDE:SUMMARY CLI subcommand that merges an external term list (csv, json, yaml; local file, URL or zip) into the dictionary.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/product-name-normalizer/pkg/importer"
)

func cmdImport(args []string) error {
	fs, cfgPath := newFlagSet("import")
	source := fs.String("source", "", "path or http(s) URL of the term list")
	format := fs.String("format", "", "csv, json or yaml (default: from the file extension)")
	encoding := fs.String("encoding", "", "source charset, e.g. latin1 (default: utf-8)")
	timeout := fs.Duration("timeout", 10*time.Minute, "overall timeout")
	fs.Parse(args)

	if *source == "" {
		fmt.Println("Formats:")
		fmt.Println()
		for _, f := range importer.All() {
			fmt.Printf("  %-6s  %s\n", f.Name(), strings.Join(f.Extensions(), " "))
		}
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  termfix import -source <path|url> [-format csv|json|yaml] [-encoding latin1]")
		return nil
	}

	a, err := newApp(*cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cliContext(), *timeout)
	defer cancel()

	opts := importer.Options{
		Format:   *format,
		Encoding: *encoding,
		Logger:   a.logger,
	}
	if a.hist != nil {
		opts.Recorder = a.hist
	}

	res, err := importer.Run(ctx, a.engine, *source, opts)
	if err != nil {
		if res != nil && res.Applied > 0 {
			fmt.Fprintf(os.Stderr, "partial import: %d of %d rows applied\n", res.Applied, res.Rows)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("import timed out after %s: %w", *timeout, err)
		}
		return err
	}
	fmt.Printf("%d rows, %d applied, %d skipped -> %s\n", res.Rows, res.Applied, res.Skipped, a.cfg.TermsPath)
	return nil
}
