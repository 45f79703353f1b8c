package chassis

import (
	"crypto/tls"

	"github.com/hazyhaar/product-name-normalizer/pkg/mcpquic"
	"github.com/quic-go/quic-go/http3"
)

// TLSConfig returns the shared TLS config with dual ALPN: "h3" for HTTP/3 and
// the MCP protocol for MCP over QUIC. Empty paths generate a self-signed
// development certificate.
func TLSConfig(certFile, keyFile string) (*tls.Config, error) {
	cfg, err := mcpquic.ServerTLSConfig(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	cfg.NextProtos = []string{http3.NextProtoH3, mcpquic.ALPNProtocolMCP}
	return cfg, nil
}
