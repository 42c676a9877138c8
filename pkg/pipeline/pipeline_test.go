package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/decoyops/snare/pkg/agent"
	"github.com/decoyops/snare/pkg/callback"
	"github.com/decoyops/snare/pkg/ml"
	"github.com/decoyops/snare/pkg/session"
	"github.com/decoyops/snare/pkg/telemetry"
)

const scamText = "URGENT: Your account will be blocked today. Share your OTP and UPI ID immediately to avoid suspension."

func newTestPipeline(t *testing.T, mutate func(*Config)) *Pipeline {
	t.Helper()

	store := session.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	cfg := Config{
		Store:      store,
		Predictor:  ml.NewRulePredictor(),
		Aggregator: ml.NewRiskAggregator(ml.DefaultAggregatorConfig()),
		Responder:  agent.NewResponder(agent.WithSeed(7)),
		Metrics:    &telemetry.Metrics{},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func TestScamMessageDetectedAndAnswered(t *testing.T) {
	p := newTestPipeline(t, nil)

	res, err := p.Process(context.Background(), Request{SessionID: "sess-1", Text: scamText})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if res.RiskLevel != ml.RiskScam {
		t.Errorf("level = %s, want scam (score %.3f)", res.RiskLevel, res.Score)
	}
	if !res.ScamDetected {
		t.Error("detection flag not set")
	}
	if res.Reply == "" {
		t.Error("no persona reply")
	}

	s, err := p.GetSession(context.Background(), "sess-1")
	if err != nil || s == nil {
		t.Fatalf("session lookup: %v, %v", s, err)
	}
	if s.TotalMessages != 2 {
		t.Errorf("messages = %d, want counterpart + reply", s.TotalMessages)
	}
	if s.Messages[1].Sender != session.SenderOperator {
		t.Errorf("second message sender = %s", s.Messages[1].Sender)
	}
	if s.LastDecision == nil || s.LastDecision.Level != ml.RiskScam {
		t.Error("last decision not retained on session")
	}
}

func TestBenignMessageStaysSafe(t *testing.T) {
	p := newTestPipeline(t, nil)

	res, err := p.Process(context.Background(), Request{SessionID: "sess-1", Text: "Hey, want to grab coffee tomorrow?"})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if res.RiskLevel != ml.RiskSafe {
		t.Errorf("level = %s (score %.3f), want safe", res.RiskLevel, res.Score)
	}
	if res.ScamDetected || res.Finalized {
		t.Errorf("benign message escalated: %+v", res)
	}
	if res.Strategy != "minimal_engagement" {
		t.Errorf("strategy = %q", res.Strategy)
	}
	if res.Reply == "" {
		t.Error("safe conversations still get a reply")
	}
}

func TestIntelligenceAccumulatesAndGateFires(t *testing.T) {
	payloads := make(chan callback.Payload, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var p callback.Payload
		if err := json.NewDecoder(req.Body).Decode(&p); err == nil {
			payloads <- p
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := newTestPipeline(t, func(cfg *Config) {
		cfg.Reporter = callback.NewReporter(srv.URL, "")
	})
	ctx := context.Background()

	turns := []string{
		scamText + " Send the verification amount to fraud@ybl right now.",
		"Pay the penalty immediately or your account stays suspended. Call 9876543210 to verify your OTP.",
		"Final warning! Complete the KYC verification at http://kyc-update.example/verify immediately or lose your account.",
	}

	var res *Result
	var err error
	for _, text := range turns {
		res, err = p.Process(ctx, Request{SessionID: "sess-1", Text: text})
		if err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	if got := res.Intelligence.ArtifactCount(); got != 3 {
		t.Fatalf("artifacts = %d, want upi+phone+link", got)
	}
	if !res.Finalized || res.Gate != "A2" {
		t.Fatalf("gate result = (%v, %q), want finalize via A2", res.Finalized, res.Gate)
	}

	// Report is dispatched on a detached goroutine.
	var payload callback.Payload
	select {
	case payload = <-payloads:
	case <-time.After(5 * time.Second):
		t.Fatal("report never delivered")
	}
	if payload.SessionID != "sess-1" || !payload.ScamDetected {
		t.Errorf("payload = %+v", payload)
	}
	if payload.AgentNotes == "" {
		t.Error("report missing agent notes")
	}

	// A later turn must not re-report the latched session.
	res, err = p.Process(ctx, Request{SessionID: "sess-1", Text: scamText})
	if err != nil {
		t.Fatalf("post-finalize process: %v", err)
	}
	if res.Finalized {
		t.Error("finalized session re-fired the gate")
	}
	select {
	case extra := <-payloads:
		t.Errorf("duplicate report delivered: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}

	s, _ := p.GetSession(ctx, "sess-1")
	if s.State() != session.StateFinalized {
		t.Errorf("session state = %s", s.State())
	}
	if s.TotalMessages != 8 {
		t.Errorf("audit trail stopped: %d messages", s.TotalMessages)
	}
}

func TestVelocityViolationBoostsScore(t *testing.T) {
	p := newTestPipeline(t, nil)
	ctx := context.Background()
	base := time.Now()

	var fifth, sixth *Result
	for i := 0; i < 6; i++ {
		res, err := p.Process(ctx, Request{
			SessionID: "sess-1",
			Text:      "hello friend how are you doing",
			Timestamp: base.Add(time.Duration(i) * 2 * time.Second),
		})
		if err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
		if i == 4 {
			fifth = res
		}
		if i == 5 {
			sixth = res
		}
	}

	if diff := sixth.Score - fifth.Score; math.Abs(diff-velocityBoost) > 1e-9 {
		t.Errorf("burst boost = %.3f, want %.3f", diff, velocityBoost)
	}

	s, _ := p.GetSession(ctx, "sess-1")
	var found bool
	for _, sig := range s.LastDecision.Signals {
		if sig.Source == ml.SignalSourceVelocity && sig.Label == session.ReasonBurst {
			found = true
		}
	}
	if !found {
		t.Error("velocity signal missing from decision trace")
	}
	if p.Stats().VelocityViolations == 0 {
		t.Error("violation not counted")
	}
}

func TestVelocityBoostSkippedWhenAlreadyElevated(t *testing.T) {
	p := newTestPipeline(t, nil)
	ctx := context.Background()
	base := time.Now()

	var res *Result
	for i := 0; i < 6; i++ {
		var err error
		res, err = p.Process(ctx, Request{
			SessionID: "sess-1",
			Text:      scamText,
			Timestamp: base.Add(time.Duration(i) * 2 * time.Second),
		})
		if err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
	}

	// The scam text alone scores past the boost ceiling; the violation is
	// recorded as a signal but adds nothing.
	if res.Score >= velocityBoostCeiling+velocityBoost {
		t.Errorf("score %.3f suggests boost applied above ceiling", res.Score)
	}
}

func TestDeleteSessionPurgesVelocity(t *testing.T) {
	monitor := session.NewDefaultVelocityMonitor()
	p := newTestPipeline(t, func(cfg *Config) {
		cfg.Velocity = monitor
	})
	ctx := context.Background()

	if _, err := p.Process(ctx, Request{SessionID: "sess-1", Text: "hello"}); err != nil {
		t.Fatal(err)
	}
	if err := p.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	s, err := p.GetSession(ctx, "sess-1")
	if err != nil || s != nil {
		t.Errorf("session survived delete: %v, %v", s, err)
	}
	if check := monitor.Check("sess-1", time.Now()); check.Count != 0 {
		t.Errorf("velocity history survived delete: %+v", check)
	}
}

func TestProcessRequiresSessionID(t *testing.T) {
	p := newTestPipeline(t, nil)
	if _, err := p.Process(context.Background(), Request{Text: "hi"}); err == nil {
		t.Error("empty session id accepted")
	}
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("empty config accepted")
	}
}

func TestStatsCountDecisions(t *testing.T) {
	p := newTestPipeline(t, nil)
	ctx := context.Background()

	p.Process(ctx, Request{SessionID: "a", Text: scamText})
	p.Process(ctx, Request{SessionID: "b", Text: "Hey, want to grab coffee tomorrow?"})

	stats := p.Stats()
	if stats.Messages != 2 || stats.Scam != 1 || stats.Safe != 1 {
		t.Errorf("stats = %+v", stats)
	}

	count, err := p.SessionCount(ctx)
	if err != nil || count != 2 {
		t.Errorf("session count = %d, err = %v", count, err)
	}
}
