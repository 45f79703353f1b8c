package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/product-name-normalizer/pkg/dict"
	"gopkg.in/yaml.v3"
)

// termsPathEnv overrides terms_path from the config file.
const termsPathEnv = "TERM_FIXER_TERMS_PATH"

type config struct {
	TermsPath   string `yaml:"terms_path"`
	Addr        string `yaml:"addr"`
	MCPQUICAddr string `yaml:"mcp_quic_addr"`
	TLSAddr     string `yaml:"tls_addr"`
	TLSCert     string `yaml:"tls_cert"`
	TLSKey      string `yaml:"tls_key"`
	CacheSize   int    `yaml:"cache_size"`
	HistoryDB   string `yaml:"history_db"`
	LogLevel    string `yaml:"log_level"`
	WatchTerms  bool   `yaml:"watch_terms"`
}

func defaultConfig() config {
	return config{
		TermsPath:  filepath.Join("~", ".claude", "data", "product-terms.json"),
		Addr:       ":8421",
		CacheSize:  dict.DefaultCacheSize,
		LogLevel:   "info",
		WatchTerms: true,
	}
}

// loadConfig reads the YAML file at path over the defaults. A missing file is
// not an error. The environment override and ~ expansion are applied last.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if v := strings.TrimSpace(os.Getenv(termsPathEnv)); v != "" {
		cfg.TermsPath = v
	}
	if cfg.TermsPath, err = expandHome(cfg.TermsPath); err != nil {
		return cfg, err
	}
	if cfg.HistoryDB, err = expandHome(cfg.HistoryDB); err != nil {
		return cfg, err
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = dict.DefaultCacheSize
	}
	return cfg, nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", p, err)
	}
	return filepath.Join(home, p[1:]), nil
}

// newLogger returns a text logger on w. Stdout belongs to the stdio MCP transport.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
