package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/decoyops/snare/pkg/httputil"
	"github.com/decoyops/snare/pkg/intel"
	"github.com/decoyops/snare/pkg/session"
)

// dispatchTimeout bounds a background report attempt.
const dispatchTimeout = 30 * time.Second

// maxConcurrentReports caps detached report goroutines.
const maxConcurrentReports = 50

// Option configures a Reporter.
type Option func(*Reporter)

// WithTimeout overrides the per-delivery timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxInFlight overrides the cap on concurrent deliveries.
func WithMaxInFlight(n int) Option {
	return func(r *Reporter) {
		if n > 0 {
			r.sem = httputil.NewSemaphore(n)
		}
	}
}

// Payload is the wire format of a final report.
type Payload struct {
	SessionID     string             `json:"sessionId"`
	ReportID      string             `json:"reportId"`
	ScamDetected  bool               `json:"scamDetected"`
	TotalMessages int                `json:"totalMessagesExchanged"`
	Intelligence  intel.Intelligence `json:"extractedIntelligence"`
	AgentNotes    string             `json:"agentNotes,omitempty"`
}

// Reporter delivers final reports to the evaluator endpoint. Delivery is
// best-effort: a failed report is logged, never retried, and never blocks
// the message path.
type Reporter struct {
	client  *http.Client
	sem     *httputil.Semaphore
	url     string
	apiKey  string
	timeout time.Duration
}

// NewReporter creates a reporter for the given endpoint. An empty URL
// returns nil, which disables reporting.
func NewReporter(url, apiKey string, opts ...Option) *Reporter {
	if url == "" {
		return nil
	}
	r := &Reporter{
		client:  httputil.Client(httputil.TierMedium),
		sem:     httputil.NewSemaphore(maxConcurrentReports),
		url:     url,
		apiKey:  apiKey,
		timeout: dispatchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BuildPayload assembles the report for a session. A fresh report id is
// minted per attempt so the receiving side can distinguish deliveries.
func BuildPayload(s *session.Session, notes string) Payload {
	if notes == "" {
		notes = s.AgentNotes
	}
	return Payload{
		SessionID:     s.ID,
		ReportID:      uuid.NewString(),
		ScamDetected:  s.ScamDetected,
		TotalMessages: s.TotalMessages,
		Intelligence:  s.Intelligence,
		AgentNotes:    notes,
	}
}

// Dispatch sends the report on a detached goroutine. The caller has already
// latched the session, so a failure here loses one report but can never
// cause a duplicate. Returns false when the concurrency cap rejected the
// dispatch.
func (r *Reporter) Dispatch(s *session.Session, notes string) bool {
	payload := BuildPayload(s, notes)

	if !r.sem.TryAcquire() {
		log.Printf("[CALLBACK] %s: dispatch dropped, %d reports in flight", s.ID, r.sem.InUse())
		return false
	}

	go func() {
		defer r.sem.Release()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.Send(ctx, payload); err != nil {
			log.Printf("[CALLBACK] %s: report failed: %v", payload.SessionID, err)
			return
		}
		log.Printf("[CALLBACK] %s: report %s delivered (%d artifacts)",
			payload.SessionID, payload.ReportID, payload.Intelligence.ArtifactCount())
	}()
	return true
}

// Send posts one report synchronously.
func (r *Reporter) Send(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode != 200 {
		errBody, _ := httputil.ReadErrorBody(resp.Body)
		return fmt.Errorf("report rejected with status %d: %s", resp.StatusCode, errBody)
	}
	return nil
}
