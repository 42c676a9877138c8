package ml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestModelRiskDerivation(t *testing.T) {
	tests := []struct {
		name string
		pred Prediction
		want float64
	}{
		{"confident scam", Prediction{Label: LabelPossibleScam, Confidence: 0.92}, 0.92},
		{"weak scam", Prediction{Label: LabelPossibleScam, Confidence: 0.3}, 0.3},
		{"confident not scam", Prediction{Label: LabelNotScam, Confidence: 0.9}, 0.1},
		{"borderline not scam", Prediction{Label: LabelNotScam, Confidence: 0.55}, 0.45},
		{"uncertain not scam keeps residual", Prediction{Label: LabelNotScam, Confidence: 0.3}, 0.2},
		{"zero confidence not scam", Prediction{Label: LabelNotScam, Confidence: 0.0}, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := modelRisk(tt.pred)
			if !almostEqual(got, tt.want) {
				t.Errorf("modelRisk(%+v) = %.4f, want %.4f", tt.pred, got, tt.want)
			}
		})
	}
}

func TestConfidenceTierBoundaries(t *testing.T) {
	tests := []struct {
		confidence float64
		want       ConfidenceTier
	}{
		{0.95, TierHigh},
		{0.70, TierHigh},
		{0.6999, TierMedium},
		{0.50, TierMedium},
		{0.4999, TierLow},
		{0.0, TierLow},
	}

	for _, tt := range tests {
		if got := TierForConfidence(tt.confidence); got != tt.want {
			t.Errorf("TierForConfidence(%.4f) = %s, want %s", tt.confidence, got, tt.want)
		}
	}
}

func TestWeightsSelectedByTier(t *testing.T) {
	ra := NewRiskAggregator(DefaultAggregatorConfig())

	tests := []struct {
		tier ConfidenceTier
		want SignalWeights
	}{
		{TierHigh, SignalWeights{Model: 0.85, Rules: 0.10, Intent: 0.05}},
		{TierMedium, SignalWeights{Model: 0.60, Rules: 0.20, Intent: 0.20}},
		{TierLow, SignalWeights{Model: 0.35, Rules: 0.35, Intent: 0.30}},
	}

	for _, tt := range tests {
		got := ra.weightsFor(tt.tier)
		if got != tt.want {
			t.Errorf("weightsFor(%s) = %+v, want %+v", tt.tier, got, tt.want)
		}
		sum := got.Model + got.Rules + got.Intent
		if !almostEqual(sum, 1.0) {
			t.Errorf("weights for %s sum to %.4f, want 1.0", tt.tier, sum)
		}
	}
}

func TestLevelThresholds(t *testing.T) {
	ra := NewRiskAggregator(DefaultAggregatorConfig())

	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{0.51, RiskScam},
		{0.80, RiskScam},
		{0.5099, RiskSuspicious},
		{0.35, RiskSuspicious},
		{0.3499, RiskSafe},
		{0.0, RiskSafe},
	}

	for _, tt := range tests {
		if got := ra.LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%.4f) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestAssessScamMessage(t *testing.T) {
	ra := NewRiskAggregator(DefaultAggregatorConfig())
	text := "URGENT: Your account will be blocked today. Share your OTP and UPI ID immediately to avoid suspension."

	// No usable model signal: low tier, rules and intent carry the decision.
	pred := Prediction{Label: LabelNotScam, Confidence: 0.0, Backend: "rules"}
	res := ra.Assess(text, pred)

	if res.Tier != TierLow {
		t.Errorf("expected low confidence tier, got %s", res.Tier)
	}
	if res.Rules.Score < 0.5 {
		t.Errorf("rule score %.4f, want >= 0.5", res.Rules.Score)
	}
	if res.Intent.Score < 0.5 {
		t.Errorf("intent score %.4f, want >= 0.5", res.Intent.Score)
	}
	if res.Level != RiskScam {
		t.Errorf("expected scam classification, got %s (score %.4f)", res.Level, res.Score)
	}
	if !ra.ShouldEngage(res.Level) {
		t.Error("scam classification should trigger engagement")
	}
	if len(res.Signals) != 3 {
		t.Fatalf("expected 3 signals, got %d", len(res.Signals))
	}
	for _, sig := range res.Signals {
		if !almostEqual(sig.Contribution, sig.Weight*sig.Score) {
			t.Errorf("signal %s contribution %.4f != weight*score %.4f",
				sig.Source, sig.Contribution, sig.Weight*sig.Score)
		}
	}
	t.Logf("score=%.4f rationale=%q", res.Score, res.Rationale)
}

func TestAssessBenignMessage(t *testing.T) {
	ra := NewRiskAggregator(DefaultAggregatorConfig())
	text := "Hey, are we still on for coffee tomorrow at 5?"

	// Benign text stays safe at every not_scam confidence tier.
	for _, conf := range []float64{0.95, 0.6, 0.3} {
		pred := Prediction{Label: LabelNotScam, Confidence: conf, Backend: "rules"}
		res := ra.Assess(text, pred)
		if res.Level != RiskSafe {
			t.Errorf("confidence %.2f: expected safe, got %s (score %.4f)", conf, res.Level, res.Score)
		}
		if ra.ShouldEngage(res.Level) {
			t.Errorf("confidence %.2f: safe message should not trigger engagement", conf)
		}
	}
}

func TestAssessMonotonicInModelConfidence(t *testing.T) {
	ra := NewRiskAggregator(DefaultAggregatorConfig())
	text := "Please verify your account details now."

	// Within a tier, a more confident scam prediction never lowers the score.
	prev := -1.0
	for _, conf := range []float64{0.70, 0.80, 0.90, 0.99} {
		res := ra.Assess(text, Prediction{Label: LabelPossibleScam, Confidence: conf})
		if res.Score < prev {
			t.Errorf("score decreased from %.4f to %.4f at confidence %.2f", prev, res.Score, conf)
		}
		prev = res.Score
	}
}

func TestExplanationMentionsTier(t *testing.T) {
	ra := NewRiskAggregator(DefaultAggregatorConfig())

	tests := []struct {
		pred     Prediction
		fragment string
	}{
		{Prediction{Label: LabelPossibleScam, Confidence: 0.9}, "highly confident"},
		{Prediction{Label: LabelPossibleScam, Confidence: 0.6}, "medium confidence"},
		{Prediction{Label: LabelNotScam, Confidence: 0.2}, "low confidence"},
	}

	for _, tt := range tests {
		res := ra.Assess("hello there", tt.pred)
		if !strings.Contains(res.Rationale, tt.fragment) {
			t.Errorf("rationale %q missing %q", res.Rationale, tt.fragment)
		}
		if !strings.Contains(res.Rationale, "Final assessment:") {
			t.Errorf("rationale %q missing final assessment", res.Rationale)
		}
	}
}

func TestAssessSessionCombination(t *testing.T) {
	ra := NewRiskAggregator(DefaultAggregatorConfig())

	scam := "URGENT: share your OTP now or your account will be blocked"
	benign := "ok thanks, talk later"

	texts := []string{benign, scam, scam}
	preds := []Prediction{
		{Label: LabelNotScam, Confidence: 0.9},
		{Label: LabelPossibleScam, Confidence: 0.85},
		{Label: LabelPossibleScam, Confidence: 0.9},
	}

	res := ra.AssessSession(texts, preds)
	if res.MessageCount != 3 {
		t.Fatalf("expected 3 messages counted, got %d", res.MessageCount)
	}
	if res.MaxScore < res.AverageScore {
		t.Errorf("max %.4f should be >= average %.4f", res.MaxScore, res.AverageScore)
	}

	cfg := DefaultAggregatorConfig()
	base := cfg.SessionMeanWeight*res.AverageScore + cfg.SessionMaxWeight*res.MaxScore
	// Mixed safe and scam messages earn the diversity bonus.
	want := base + cfg.SessionDiversityBonus
	if want > 1.0 {
		want = 1.0
	}
	if !almostEqual(res.Score, want) {
		t.Errorf("session score %.4f, want %.4f", res.Score, want)
	}
	if res.Level != RiskScam {
		t.Errorf("expected scam session, got %s (score %.4f)", res.Level, res.Score)
	}
}

func TestAssessSessionUniformLevelNoBonus(t *testing.T) {
	ra := NewRiskAggregator(DefaultAggregatorConfig())

	texts := []string{"see you tomorrow", "sounds good"}
	preds := []Prediction{
		{Label: LabelNotScam, Confidence: 0.9},
		{Label: LabelNotScam, Confidence: 0.9},
	}

	res := ra.AssessSession(texts, preds)
	cfg := DefaultAggregatorConfig()
	want := cfg.SessionMeanWeight*res.AverageScore + cfg.SessionMaxWeight*res.MaxScore
	if !almostEqual(res.Score, want) {
		t.Errorf("uniform-level session got bonus: score %.4f, want %.4f", res.Score, want)
	}
	if res.Level != RiskSafe {
		t.Errorf("expected safe session, got %s", res.Level)
	}
}

func TestAssessSessionEmpty(t *testing.T) {
	ra := NewRiskAggregator(DefaultAggregatorConfig())
	res := ra.AssessSession(nil, nil)
	if res.Level != RiskSafe || res.Score != 0 || res.MessageCount != 0 {
		t.Errorf("empty session should be safe/zero, got %+v", res)
	}
}

func TestAssessSessionMissingPredictions(t *testing.T) {
	ra := NewRiskAggregator(DefaultAggregatorConfig())
	// Fewer predictions than texts must not panic; missing entries route
	// through low-tier weighting.
	res := ra.AssessSession([]string{"hello", "share your OTP immediately"}, nil)
	if res.MessageCount != 2 {
		t.Errorf("expected 2 messages, got %d", res.MessageCount)
	}
}

func TestEngagementStrategy(t *testing.T) {
	ra := NewRiskAggregator(DefaultAggregatorConfig())

	tests := []struct {
		level RiskLevel
		score float64
		want  string
	}{
		{RiskScam, 0.92, "aggressive_engagement"},
		{RiskScam, 0.80, "aggressive_engagement"},
		{RiskScam, 0.60, "cautious_engagement"},
		{RiskSuspicious, 0.40, "probing_engagement"},
		{RiskSafe, 0.10, "minimal_engagement"},
	}

	for _, tt := range tests {
		if got := ra.EngagementStrategy(tt.level, tt.score); got != tt.want {
			t.Errorf("EngagementStrategy(%s, %.2f) = %q, want %q", tt.level, tt.score, got, tt.want)
		}
	}
}

func TestLoadAggregatorConfigFallback(t *testing.T) {
	// Missing file falls back to defaults
	cfg := LoadAggregatorConfig("/nonexistent/scorer.yaml")
	if cfg != DefaultAggregatorConfig() {
		t.Error("missing config file should yield defaults")
	}

	// Garbage file falls back to defaults
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("{{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg = LoadAggregatorConfig(bad)
	if cfg != DefaultAggregatorConfig() {
		t.Error("unparseable config file should yield defaults")
	}
}

func TestLoadAggregatorConfigOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scorer.yaml")
	content := "scam_threshold: 0.6\nsuspicious_threshold: 0.4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadAggregatorConfig(path)
	if cfg.ScamThreshold != 0.6 || cfg.SuspiciousThreshold != 0.4 {
		t.Errorf("thresholds not overridden: %+v", cfg)
	}
	// Untouched fields keep their defaults
	if cfg.HighConfidence.Model != 0.85 {
		t.Errorf("high-confidence model weight clobbered: %v", cfg.HighConfidence)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
