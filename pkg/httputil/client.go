// Package httputil provides the shared HTTP plumbing for the honeypot
// gateway's outbound calls: pooled clients in fixed timeout tiers, bounded
// body reads, and a semaphore for capping detached dispatches.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// UserAgent identifies the gateway on every outbound request.
const UserAgent = "snare-gateway/0.1"

// MaxResponseSize bounds response body reads. LLM providers and evaluator
// endpoints are not trusted to keep responses small.
const MaxResponseSize = 10 * 1024 * 1024 // 10MB

// sharedTransport is the single connection pool behind every tier. Persona,
// validator, embedding and callback traffic all reuse it.
var sharedTransport http.RoundTripper = &uaTransport{inner: &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}}

// uaTransport stamps the gateway user agent on requests that don't set one.
type uaTransport struct {
	inner http.RoundTripper
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", UserAgent)
	}
	return t.inner.RoundTrip(req)
}

// TimeoutTier buckets outbound calls by how long they are allowed to hold a
// conversation turn hostage.
type TimeoutTier int

const (
	// TierFast for calls on the reply path, like persona generation (5s)
	TierFast TimeoutTier = iota
	// TierMedium for validator, embedding and callback delivery (30s)
	TierMedium
	// TierSlow for model downloads and other offline work (60s)
	TierSlow
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierFast:   5 * time.Second,
	TierMedium: 30 * time.Second,
	TierSlow:   60 * time.Second,
}

var (
	clientFast   *http.Client
	clientMedium *http.Client
	clientSlow   *http.Client
	clientOnce   sync.Once
)

func initClients() {
	clientFast = &http.Client{
		Timeout:   timeoutDurations[TierFast],
		Transport: sharedTransport,
	}
	clientMedium = &http.Client{
		Timeout:   timeoutDurations[TierMedium],
		Transport: sharedTransport,
	}
	clientSlow = &http.Client{
		Timeout:   timeoutDurations[TierSlow],
		Transport: sharedTransport,
	}
}

// Client returns the shared client for a timeout tier. Callers must not
// build their own http.Client; per-request clients defeat the pool.
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	switch tier {
	case TierFast:
		return clientFast
	case TierMedium:
		return clientMedium
	case TierSlow:
		return clientSlow
	default:
		return clientMedium
	}
}

// ReadResponseBody reads a response body up to maxSize bytes. A maxSize of
// zero or less falls back to MaxResponseSize.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadErrorBody reads a rejected response's body for logging. Error payloads
// get a tighter 1MB cap.
func ReadErrorBody(r io.Reader) ([]byte, error) {
	const maxErrorSize = 1 * 1024 * 1024
	return io.ReadAll(io.LimitReader(r, maxErrorSize))
}

// DrainAndClose drains and closes a response body so the underlying
// connection can return to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
