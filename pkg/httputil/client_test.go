package httputil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientSingletonPerTier(t *testing.T) {
	if Client(TierMedium) != Client(TierMedium) {
		t.Error("same tier should return the same client")
	}
	if Client(TierFast) == Client(TierSlow) {
		t.Error("different tiers should return different clients")
	}
}

func TestClientTimeouts(t *testing.T) {
	tests := []struct {
		tier TimeoutTier
		want time.Duration
	}{
		{TierFast, 5 * time.Second},
		{TierMedium, 30 * time.Second},
		{TierSlow, 60 * time.Second},
		{TimeoutTier(99), 30 * time.Second}, // unknown tier falls back to medium
	}

	for _, tt := range tests {
		if got := Client(tt.tier).Timeout; got != tt.want {
			t.Errorf("tier %d: timeout = %v, want %v", tt.tier, got, tt.want)
		}
	}
}

func TestClientSetsGatewayUserAgent(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	resp, err := Client(TierFast).Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	DrainAndClose(resp.Body)

	if seen != UserAgent {
		t.Errorf("user agent = %q, want %q", seen, UserAgent)
	}
}

func TestClientKeepsExplicitUserAgent(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	req, err := http.NewRequest("GET", srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("User-Agent", "custom-agent/1.0")

	resp, err := Client(TierFast).Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	DrainAndClose(resp.Body)

	if seen != "custom-agent/1.0" {
		t.Errorf("user agent = %q, want caller's custom-agent/1.0", seen)
	}
}

func TestReadResponseBody(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		maxSize int64
		wantLen int
	}{
		{"normal read", "hello world", 1024, 11},
		{"truncated read", strings.Repeat("x", 1000), 100, 100},
		{"zero max uses default", "test", 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadResponseBody(strings.NewReader(tt.input), tt.maxSize)
			if err != nil {
				t.Fatalf("ReadResponseBody: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestReadErrorBodyTruncates(t *testing.T) {
	largeError := strings.Repeat("error details ", 100000) // ~1.4MB

	got, err := ReadErrorBody(strings.NewReader(largeError))
	if err != nil {
		t.Fatalf("ReadErrorBody: %v", err)
	}
	if len(got) > 1024*1024 {
		t.Errorf("error body should truncate to 1MB, got %d bytes", len(got))
	}
}

func TestDrainAndClose(t *testing.T) {
	r := &trackingReader{Reader: bytes.NewReader([]byte("leftover body"))}

	DrainAndClose(io.NopCloser(r))

	if !r.fullyRead {
		t.Error("DrainAndClose should fully drain the body")
	}
}

func TestDrainAndCloseNil(t *testing.T) {
	DrainAndClose(nil)
}

type trackingReader struct {
	io.Reader
	fullyRead bool
}

func (r *trackingReader) Read(p []byte) (n int, err error) {
	n, err = r.Reader.Read(p)
	if err == io.EOF {
		r.fullyRead = true
	}
	return
}
