package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hazyhaar/product-name-normalizer/pkg/api"
	"github.com/hazyhaar/product-name-normalizer/pkg/chassis"
	"github.com/hazyhaar/product-name-normalizer/pkg/dict"
	"github.com/hazyhaar/product-name-normalizer/pkg/kit"
	"github.com/hazyhaar/product-name-normalizer/pkg/mcpquic"
	"github.com/mark3labs/mcp-go/server"
)

func cmdMCP(args []string) error {
	fs, cfgPath := newFlagSet("mcp")
	fs.Parse(args)

	a, err := newApp(*cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	srv := api.NewMCPServer(a.endpoints(), version)
	a.logger.Info("mcp stdio server starting", "terms", a.cfg.TermsPath)
	return server.ServeStdio(srv,
		server.WithStdioContextFunc(func(ctx context.Context) context.Context {
			return kit.WithTransport(ctx, "mcp_stdio")
		}),
		server.WithErrorLogger(slog.NewLogLogger(a.logger.Handler(), slog.LevelError)),
	)
}

func cmdServe(args []string) error {
	fs, cfgPath := newFlagSet("serve")
	fs.Parse(args)

	a, err := newApp(*cfgPath)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	eps := a.endpoints()
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           api.NewRouter(eps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// SIGHUP: drop compiled rules.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	go purgeOnSignal(ctx, sighup, a.engine.Cache(), logger)

	if a.cfg.WatchTerms {
		if err := a.engine.Store().EnsureExists(); err != nil {
			return err
		}
		go func() {
			if err := a.engine.Watch(ctx); err != nil {
				logger.Warn("terms watcher stopped", "error", err)
			}
		}()
	}

	if a.cfg.MCPQUICAddr != "" {
		tlsCfg, err := mcpquic.ServerTLSConfig(a.cfg.TLSCert, a.cfg.TLSKey)
		if err != nil {
			return err
		}
		l, err := mcpquic.NewListener(a.cfg.MCPQUICAddr, tlsCfg, api.NewMCPServer(eps, version), logger)
		if err != nil {
			return fmt.Errorf("mcp quic listen: %w", err)
		}
		defer l.Close()
		go func() {
			if err := l.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mcp quic server error", "error", err)
			}
		}()
	}

	errc := make(chan error, 2)
	if a.cfg.TLSAddr != "" {
		cs, err := chassis.New(chassis.Config{
			Addr:      a.cfg.TLSAddr,
			CertFile:  a.cfg.TLSCert,
			KeyFile:   a.cfg.TLSKey,
			Handler:   api.NewRouter(eps),
			MCPServer: api.NewMCPServer(eps, version),
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			cs.Stop(stopCtx)
		}()
		go func() {
			if err := cs.Start(ctx); err != nil {
				errc <- err
			}
		}()
	}

	go func() {
		logger.Info("termfix listening", "addr", a.cfg.Addr, "terms", a.cfg.TermsPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// purgeOnSignal empties cache on every value received from sig until ctx is done.
func purgeOnSignal(ctx context.Context, sig <-chan os.Signal, cache *dict.RuleCache, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			n := cache.Len()
			cache.Purge()
			logger.Info("SIGHUP received, rule cache purged", "entries", n)
		}
	}
}

func cmdFix(args []string) error {
	fs, cfgPath := newFlagSet("fix")
	text := fs.String("text", "", "text to correct (default: read stdin)")
	fs.Parse(args)

	a, err := newApp(*cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	input := *text
	if input == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		input = string(data)
	}

	out, err := a.endpoints().FixTerms(cliContext(), &api.FixTermsRequest{Text: input})
	if err != nil {
		return err
	}
	_, err = io.WriteString(os.Stdout, out.(string))
	return err
}

func cmdAdd(args []string) error {
	fs, cfgPath := newFlagSet("add")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return errors.New("usage: termfix add <correct> [variant...]")
	}

	a, err := newApp(*cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	status, err := a.endpoints().AddTerm(cliContext(), &api.AddTermRequest{
		Correct:  fs.Arg(0),
		Variants: fs.Args()[1:],
	})
	if err != nil {
		return err
	}
	fmt.Println(status)
	return nil
}

func cmdList(args []string) error {
	fs, cfgPath := newFlagSet("list")
	fs.Parse(args)

	a, err := newApp(*cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.endpoints().ListTerms(cliContext(), nil)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdHistory(args []string) error {
	fs, cfgPath := newFlagSet("history")
	limit := fs.Int("limit", 20, "number of edits to show")
	fs.Parse(args)

	a, err := newApp(*cfgPath)
	if err != nil {
		return err
	}
	defer a.close()
	if a.hist == nil {
		return errors.New("history_db is not configured")
	}

	changes, err := a.hist.List(cliContext(), *limit)
	if err != nil {
		return err
	}
	for _, c := range changes {
		fmt.Printf("%s  %-10s  %s  %s\n",
			c.CreatedAt.Format(time.RFC3339), c.Transport, c.Canonical, strings.Join(c.Variants, ", "))
	}
	return nil
}

// smokeInput exercises several default entries at once.
const smokeInput = "Cloudcode vs Wisprflow and Antygravity"

func cmdSmoke(args []string) error {
	fs := flag.NewFlagSet("smoke", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:8422", "MCP over QUIC address")
	text := fs.String("text", smokeInput, "text to send to fix_terms")
	timeout := fs.Duration("timeout", 15*time.Second, "overall timeout")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := mcpquic.NewClient(*addr, nil)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()

	out, err := c.CallText(ctx, "fix_terms", map[string]any{"text": *text})
	if err != nil {
		return err
	}
	fmt.Printf("in:  %s\nout: %s\n", *text, out)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
