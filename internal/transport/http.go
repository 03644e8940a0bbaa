// Package transport builds the HTTP clients used for outbound calls to
// Telegram and the AI endpoint.
package transport

import (
	"net"
	"net/http"
	"time"

	"github.com/kukucorn/ai-running-coach/internal/config"
)

// Timeouts bounds a single outbound call. Zero values leave the
// net/http default in place.
type Timeouts struct {
	Connect time.Duration
	Read    time.Duration
	Pool    time.Duration
}

func TimeoutsFrom(cfg *config.Config) Timeouts {
	return Timeouts{Connect: cfg.HTTPConnectTimeout, Read: cfg.HTTPReadTimeout, Pool: cfg.HTTPPoolTimeout}
}

// NewClient returns a client whose transport enforces t. The read bound
// applies to response headers, so it must exceed the long-poll timeout.
func NewClient(t Timeouts) *http.Client {
	dialer := &net.Dialer{Timeout: t.Connect, KeepAlive: 30 * time.Second}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       t.Pool,
		TLSHandshakeTimeout:   t.Connect,
		ResponseHeaderTimeout: t.Read,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Transport: tr}
}
