// CLAUDE:SUMMARY Bulk import: fetch a term list (file, URL or zip), decode, parse, and merge all rows in one Engine.Merge.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/product-name-normalizer/pkg/dict"
	"github.com/hazyhaar/product-name-normalizer/pkg/history"
)

// Recorder journals each merged row. *history.Log implements it.
type Recorder interface {
	Record(ctx context.Context, c history.Change) error
}

// Options controls one import run.
type Options struct {
	Format   string // format name; empty selects by source extension
	Encoding string // source charset; empty means UTF-8
	Recorder Recorder
	Logger   *slog.Logger
}

// Result summarizes an import run.
type Result struct {
	Rows    int `json:"rows"`
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// Run reads source (a local path or an http(s) URL) and merges every row into
// the engine's dictionary with a single save. Rows that fail validation are
// skipped and logged.
func Run(ctx context.Context, engine *dict.Engine, source string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tmpDir, err := os.MkdirTemp("", "pnn-import-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	localPath, name, err := fetch(ctx, source, tmpDir, logger)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(path.Ext(name), ".zip") {
		localPath, name, err = pickFromZip(localPath, tmpDir, opts.Format)
		if err != nil {
			return nil, err
		}
	}

	rows, err := parseFile(localPath, name, opts)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	updates := make([]dict.Update, len(rows))
	for i, row := range rows {
		updates[i] = dict.Update{Correct: row.Canonical, Variants: row.Variants}
	}
	merged, err := engine.Merge(updates)
	if err != nil {
		return nil, fmt.Errorf("merge %d rows: %w", len(rows), err)
	}

	res := &Result{Rows: len(rows)}
	for i, m := range merged {
		if m.Err != nil {
			res.Skipped++
			logger.Warn("import row skipped", "line", rows[i].Line, "error", m.Err)
			continue
		}
		res.Applied++
		if opts.Recorder != nil {
			change := history.Change{Canonical: m.Canonical, Variants: m.Variants, Transport: "import"}
			if err := opts.Recorder.Record(ctx, change); err != nil {
				logger.Warn("history record failed", "canonical", change.Canonical, "error", err)
			}
		}
	}

	logger.Info("import done", "source", source, "rows", res.Rows, "applied", res.Applied, "skipped", res.Skipped)
	return res, nil
}

// fetch returns a local path for source and the name used for format detection.
func fetch(ctx context.Context, source, tmpDir string, logger *slog.Logger) (string, string, error) {
	if !isRemote(source) {
		if _, err := os.Stat(source); err != nil {
			return "", "", fmt.Errorf("open source: %w", err)
		}
		return source, filepath.Base(source), nil
	}

	u, err := url.Parse(source)
	if err != nil {
		return "", "", fmt.Errorf("parse source url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = "download"
	}
	dest := filepath.Join(tmpDir, name)
	logger.Info("downloading term list", "url", source)
	if err := downloadFile(ctx, source, dest); err != nil {
		return "", "", fmt.Errorf("download: %w", err)
	}
	return dest, name, nil
}

// pickFromZip extracts an archive and returns the first entry with a known format.
func pickFromZip(zipPath, tmpDir, format string) (string, string, error) {
	extractDir := filepath.Join(tmpDir, "unzipped")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", "", err
	}
	files, err := unzipFile(zipPath, extractDir)
	if err != nil {
		return "", "", fmt.Errorf("unzip: %w", err)
	}
	for _, f := range files {
		if format != "" {
			return f, filepath.Base(f), nil
		}
		if _, err := ForPath(f); err == nil {
			return f, filepath.Base(f), nil
		}
	}
	return "", "", fmt.Errorf("no term list found in %s", filepath.Base(zipPath))
}

func parseFile(localPath, name string, opts Options) ([]Row, error) {
	var (
		f   Format
		err error
	)
	if opts.Format != "" {
		f, err = Get(opts.Format)
	} else {
		f, err = ForPath(name)
	}
	if err != nil {
		return nil, err
	}

	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer file.Close()

	r, err := decodeReader(file, opts.Encoding)
	if err != nil {
		return nil, err
	}
	rows, err := f.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s as %s: %w", name, f.Name(), err)
	}
	return rows, nil
}
