// Package chassis serves the API over TLS with dual transport on one port.
//
//   - TCP -> HTTPS (HTTP/1.1 + HTTP/2)
//   - UDP -> QUIC with ALPN demux:
//     "h3"          -> HTTP/3 (same handler as TCP)
//     "pnn-mcp-v1"  -> MCP JSON-RPC over a QUIC stream
//
// HTTPS responses advertise HTTP/3 through Alt-Svc.
package chassis

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hazyhaar/product-name-normalizer/pkg/mcpquic"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
)

// QUIC connection error codes used by the demux.
const (
	connErrorMCPDisabled quic.ApplicationErrorCode = 0x10
	connErrorUnknownALPN quic.ApplicationErrorCode = 0x11
)

// Server runs HTTPS on TCP and HTTP/3 + MCP on UDP.
type Server struct {
	addr       string
	logger     *slog.Logger
	tlsCfg     *tls.Config
	handler    http.Handler
	mcpHandler *mcpquic.Handler
	h3Server   *http3.Server
	tcpServer  *http.Server
	quicLn     *quic.Listener
	mu         sync.Mutex
}

// Config holds configuration for the chassis server.
type Config struct {
	Addr      string            // listen address, TCP and UDP on the same port
	CertFile  string            // empty with KeyFile = self-signed
	KeyFile   string
	Handler   http.Handler      // HTTP API
	MCPServer *server.MCPServer // nil = MCP disabled
	Logger    *slog.Logger
}

func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	tlsCfg, err := TLSConfig(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("chassis tls: %w", err)
	}
	if cfg.CertFile == "" {
		cfg.Logger.Info("chassis: self-signed dev certificate generated")
	}

	s := &Server{
		addr:    cfg.Addr,
		logger:  cfg.Logger,
		tlsCfg:  tlsCfg,
		handler: securityHeaders(altSvcMiddleware(cfg.Addr, cfg.Handler)),
	}
	if cfg.MCPServer != nil {
		s.mcpHandler = mcpquic.NewHandler(cfg.MCPServer, cfg.Logger)
	}
	return s, nil
}

// securityHeaders adds standard security headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// altSvcMiddleware advertises HTTP/3 on the same port.
func altSvcMiddleware(addr string, next http.Handler) http.Handler {
	_, port, _ := net.SplitHostPort(addr)
	if port == "" {
		port = "8443"
	}
	altSvc := fmt.Sprintf(`h3=":%s"; ma=86400`, port)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", altSvc)
		next.ServeHTTP(w, r)
	})
}

// Start launches both listeners and blocks until ctx is done or one fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()

	tcpTLS := s.tlsCfg.Clone()
	tcpTLS.NextProtos = []string{"h2", "http/1.1"}
	s.tcpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		TLSConfig:         tcpTLS,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := quic.ListenAddr(s.addr, s.tlsCfg, mcpquic.QUICConfig())
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("quic listen: %w", err)
	}
	s.quicLn = ln
	s.h3Server = &http3.Server{Handler: s.handler}

	s.mu.Unlock()

	s.logger.Info("chassis started", "addr", s.addr, "tcp", "HTTPS", "udp", "HTTP/3 + MCP")

	errCh := make(chan error, 2)
	go func() {
		tcpLn, err := tls.Listen("tcp", s.addr, tcpTLS)
		if err != nil {
			errCh <- fmt.Errorf("tcp listen: %w", err)
			return
		}
		if err := s.tcpServer.Serve(tcpLn); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("tcp: %w", err)
		}
	}()

	go func() {
		for {
			conn, err := ln.Accept(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errCh <- fmt.Errorf("quic accept: %w", err)
				return
			}
			s.dispatch(ctx, conn)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) dispatch(ctx context.Context, conn *quic.Conn) {
	switch alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn {
	case http3.NextProtoH3:
		go func() {
			if err := s.h3Server.ServeQUICConn(conn); err != nil {
				s.logger.Debug("http/3 conn done", "remote", conn.RemoteAddr(), "error", err)
			}
		}()
	case mcpquic.ALPNProtocolMCP:
		if s.mcpHandler == nil {
			conn.CloseWithError(connErrorMCPDisabled, "MCP not enabled")
			return
		}
		go s.mcpHandler.ServeConn(ctx, conn)
	default:
		s.logger.Warn("chassis: unknown ALPN, closing", "alpn", alpn, "remote", conn.RemoteAddr())
		conn.CloseWithError(connErrorUnknownALPN, "unsupported ALPN: "+alpn)
	}
}

// Stop shuts down both listeners.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.tcpServer != nil {
		if err := s.tcpServer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.h3Server != nil {
		if err := s.h3Server.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.quicLn != nil {
		if err := s.quicLn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.logger.Info("chassis stopped")
	return firstErr
}
