package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"
	"strings"

	"golang.org/x/net/http2"

	"github.com/cloudfm/cloudfm/internal/config"
	"github.com/cloudfm/cloudfm/internal/logging"
)

// CreateTransferClient creates the client used for streaming upload and
// download bodies. It shares the proxy setup of ConfigureHTTPClient but has
// no overall timeout; transfers are bounded by their context instead.
//
// HTTP/2 is attempted unless a proxy is active or DISABLE_HTTP2=true.
func CreateTransferClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	baseClient, err := ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	baseClient.Timeout = 0

	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM wraps the transport in a negotiator; leave it untouched
		return baseClient, nil
	}

	// Already-compressed payloads gain nothing from gzip
	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" || proxyActive(cfg) {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	baseClient.Transport = tr
	return baseClient, nil
}

// proxyActive reports whether requests will go through a proxy.
// Proxies often mishandle HTTP/2 multiplexing mid-transfer.
func proxyActive(cfg *config.Config) bool {
	switch strings.ToLower(cfg.ProxyMode) {
	case "no-proxy", "":
		return false
	case "system":
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return true
	}
}
