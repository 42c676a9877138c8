package ml

import (
	"context"
	"log"
	"strings"
	"time"
)

// Prediction labels. Every predictor backend maps its own label space onto
// these two values so swapping backends never changes the contract shape.
const (
	LabelNotScam      = "not_scam"
	LabelPossibleScam = "possible_scam"
)

// rulePredictThreshold is the rule-score cutoff for the deterministic
// fallback: at or above it the message is labeled possible_scam.
const rulePredictThreshold = 0.3

// Prediction is the uniform model output consumed by the risk aggregator.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Backend    string  `json:"backend"` // "hugot" or "rules"
	LatencyMs  float64 `json:"latency_ms,omitempty"`
}

// IsScam reports whether the label indicates a scam.
func (p Prediction) IsScam() bool {
	return p.Label == LabelPossibleScam
}

// Predictor produces a (label, confidence) pair per message.
// Implementations must never return an error: any backend failure is
// converted to a conservative result internally.
type Predictor interface {
	Predict(ctx context.Context, text string) Prediction
	Ready() bool
}

// RulePredictor is the deterministic stand-in used when no model artifacts
// are available. It thresholds the rule scorer's output.
type RulePredictor struct {
	scorer *RuleScorer
}

// NewRulePredictor creates the rule-based fallback predictor.
func NewRulePredictor() *RulePredictor {
	return &RulePredictor{scorer: NewRuleScorer()}
}

func (rp *RulePredictor) Ready() bool { return true }

func (rp *RulePredictor) Predict(_ context.Context, text string) Prediction {
	if strings.TrimSpace(text) == "" {
		return Prediction{Label: LabelNotScam, Confidence: 0.0, Backend: "rules"}
	}
	res := rp.scorer.Score(text)
	label := LabelNotScam
	if res.Score >= rulePredictThreshold {
		label = LabelPossibleScam
	}
	return Prediction{Label: label, Confidence: res.Score, Backend: "rules"}
}

// HugotPredictor wraps the local ONNX classifier and falls back to the rule
// predictor on any inference failure.
type HugotPredictor struct {
	detector *HugotDetector
	fallback *RulePredictor
	timeout  time.Duration
}

// NewHugotPredictor wraps an initialized detector. The detector may be in a
// not-ready state; Predict then routes through the fallback.
func NewHugotPredictor(detector *HugotDetector) *HugotPredictor {
	return &HugotPredictor{
		detector: detector,
		fallback: NewRulePredictor(),
		timeout:  5 * time.Second,
	}
}

func (hp *HugotPredictor) Ready() bool {
	return hp.detector != nil && hp.detector.IsReady()
}

func (hp *HugotPredictor) Predict(ctx context.Context, text string) Prediction {
	if strings.TrimSpace(text) == "" {
		return Prediction{Label: LabelNotScam, Confidence: 0.0, Backend: "hugot"}
	}
	if !hp.Ready() {
		return hp.fallback.Predict(ctx, text)
	}

	cctx, cancel := context.WithTimeout(ctx, hp.timeout)
	defer cancel()

	result, err := hp.detector.ClassifySingle(cctx, text)
	if err != nil {
		log.Printf("[ML] Classification failed, using rule fallback: %v", err)
		return hp.fallback.Predict(ctx, text)
	}

	label := LabelNotScam
	if result.IsScam {
		label = LabelPossibleScam
	}
	return Prediction{
		Label:      label,
		Confidence: result.Confidence,
		Backend:    "hugot",
		LatencyMs:  result.LatencyMs,
	}
}

// NewAutoPredictor builds the best available predictor: the local ONNX
// classifier when enabled and a model is present, otherwise the rule
// fallback. Never returns nil.
func NewAutoPredictor() Predictor {
	detector := NewAutoDetectedHugotDetector()
	if detector != nil && detector.IsReady() {
		log.Println("[STARTUP] ✓ ML classifier enabled (hugot)")
		return NewHugotPredictor(detector)
	}
	log.Println("[STARTUP] ○ ML classifier unavailable, using rule-based prediction")
	return NewRulePredictor()
}
