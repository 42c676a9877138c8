package ml

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// SignalWeights is the per-tier weight triple applied to the three signals.
type SignalWeights struct {
	Model  float64 `yaml:"model"`
	Rules  float64 `yaml:"rules"`
	Intent float64 `yaml:"intent"`
}

// AggregatorConfig holds the tunable weighting and threshold parameters.
// Values can be overridden from a YAML file via LoadAggregatorConfig.
type AggregatorConfig struct {
	// Weight triples selected by model confidence tier. The model is
	// trusted most when confident; as confidence drops, rule and intent
	// signals compensate to prevent blind spots.
	HighConfidence   SignalWeights `yaml:"high_confidence"`
	MediumConfidence SignalWeights `yaml:"medium_confidence"`
	LowConfidence    SignalWeights `yaml:"low_confidence"`

	// Risk thresholds for the final decision
	ScamThreshold       float64 `yaml:"scam_threshold"`
	SuspiciousThreshold float64 `yaml:"suspicious_threshold"`

	// Session-level combination parameters
	SessionMeanWeight     float64 `yaml:"session_mean_weight"`
	SessionMaxWeight      float64 `yaml:"session_max_weight"`
	SessionDiversityBonus float64 `yaml:"session_diversity_bonus"`
}

// DefaultAggregatorConfig returns the canonical weighting parameters.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		HighConfidence:        SignalWeights{Model: 0.85, Rules: 0.10, Intent: 0.05},
		MediumConfidence:      SignalWeights{Model: 0.60, Rules: 0.20, Intent: 0.20},
		LowConfidence:         SignalWeights{Model: 0.35, Rules: 0.35, Intent: 0.30},
		ScamThreshold:         0.51,
		SuspiciousThreshold:   0.35,
		SessionMeanWeight:     0.7,
		SessionMaxWeight:      0.3,
		SessionDiversityBonus: 0.05,
	}
}

// LoadAggregatorConfig reads weighting overrides from a YAML file.
// Missing file or parse errors fall back to defaults with a warning, so a
// bad config can never disable detection.
func LoadAggregatorConfig(path string) AggregatorConfig {
	cfg := DefaultAggregatorConfig()
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[WARN] Could not read scorer config %s: %v. Using defaults.", path, err)
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Printf("[WARN] Could not parse scorer config %s: %v. Using defaults.", path, err)
		return DefaultAggregatorConfig()
	}
	return cfg
}

// RiskAssessment is the full decision record for one message.
type RiskAssessment struct {
	Level     RiskLevel         `json:"risk_level"`
	Score     float64           `json:"aggregated_score"`
	Tier      ConfidenceTier    `json:"confidence_level"`
	Signals   []DetectionSignal `json:"signals"`
	Rationale string            `json:"decision_logic"`

	// Per-signal raw results retained for downstream consumers
	Prediction Prediction   `json:"prediction"`
	Rules      RuleResult   `json:"rules"`
	Intent     IntentResult `json:"intent"`
}

// SessionAssessment is the combined decision record for a whole conversation.
type SessionAssessment struct {
	Level        RiskLevel `json:"session_risk_level"`
	Score        float64   `json:"session_score"`
	MessageCount int       `json:"message_count"`
	AverageScore float64   `json:"average_score"`
	MaxScore     float64   `json:"max_score"`
	Scores       []float64 `json:"scores,omitempty"`
}

// RiskAggregator combines model, rule, and intent signals using
// confidence-tiered weighting.
//
// Decision logic:
//  1. High-confidence model (>= 0.7): model decision is trusted
//  2. Medium-confidence model (0.5-0.7): model + intent/rules weighted
//  3. Low-confidence model (< 0.5): rules + intent compensate
//
// The scorers are stateless, so one aggregator is safe for concurrent use;
// the mutex only guards live config swaps.
type RiskAggregator struct {
	mu     sync.RWMutex
	cfg    AggregatorConfig
	rules  *RuleScorer
	intent *IntentScorer
}

// NewRiskAggregator creates an aggregator with the given config.
func NewRiskAggregator(cfg AggregatorConfig) *RiskAggregator {
	return &RiskAggregator{
		cfg:    cfg,
		rules:  NewRuleScorer(),
		intent: NewIntentScorer(),
	}
}

// SetConfig replaces the weighting parameters at runtime.
func (ra *RiskAggregator) SetConfig(cfg AggregatorConfig) {
	ra.mu.Lock()
	ra.cfg = cfg
	ra.mu.Unlock()
}

func (ra *RiskAggregator) config() AggregatorConfig {
	ra.mu.RLock()
	defer ra.mu.RUnlock()
	return ra.cfg
}

// modelRisk derives the directional risk contribution from a prediction.
// A scam label contributes its confidence directly. A not_scam label inverts
// high confidence into low risk; low-confidence not_scam keeps a fixed small
// residual so an uncertain "probably fine" never reads as zero risk.
func modelRisk(pred Prediction) float64 {
	if pred.IsScam() {
		return pred.Confidence
	}
	if pred.Confidence > 0.5 {
		return 1.0 - pred.Confidence
	}
	return 0.2
}

func (ra *RiskAggregator) weightsFor(tier ConfidenceTier) SignalWeights {
	cfg := ra.config()
	switch tier {
	case TierHigh:
		return cfg.HighConfidence
	case TierMedium:
		return cfg.MediumConfidence
	default:
		return cfg.LowConfidence
	}
}

// LevelFor converts an aggregated score to a risk level.
func (ra *RiskAggregator) LevelFor(score float64) RiskLevel {
	cfg := ra.config()
	switch {
	case score >= cfg.ScamThreshold:
		return RiskScam
	case score >= cfg.SuspiciousThreshold:
		return RiskSuspicious
	default:
		return RiskSafe
	}
}

// Assess analyzes a single message using confidence-aware risk aggregation.
// Pure with respect to its inputs; never returns an error.
func (ra *RiskAggregator) Assess(text string, pred Prediction) RiskAssessment {
	mlRisk := modelRisk(pred)
	rules := ra.rules.Score(text)
	intent := ra.intent.Score(text)

	tier := TierForConfidence(pred.Confidence)
	weights := ra.weightsFor(tier)

	score := weights.Model*mlRisk + weights.Rules*rules.Score + weights.Intent*intent.Score
	if score > 1.0 {
		score = 1.0
	}

	level := ra.LevelFor(score)

	modelSignal := NewDetectionSignal(SignalSourceModel)
	modelSignal.Score = mlRisk
	modelSignal.Weight = weights.Model
	modelSignal.Contribution = weights.Model * mlRisk
	modelSignal.Label = pred.Label
	modelSignal.LatencyMs = pred.LatencyMs
	modelSignal.SetMetadata("confidence", pred.Confidence)
	modelSignal.SetMetadata("backend", pred.Backend)

	ruleSignal := NewDetectionSignal(SignalSourceRules)
	ruleSignal.Score = rules.Score
	ruleSignal.Weight = weights.Rules
	ruleSignal.Contribution = weights.Rules * rules.Score
	ruleSignal.Keywords = limitKeywords(rules.Keywords, 10)

	intentSignal := NewDetectionSignal(SignalSourceIntent)
	intentSignal.Score = intent.Score
	intentSignal.Weight = weights.Intent
	intentSignal.Contribution = weights.Intent * intent.Score
	intentSignal.Reasons = intent.Bonuses
	intentSignal.SetMetadata("components", intent.Components)

	assessment := RiskAssessment{
		Level:      level,
		Score:      score,
		Tier:       tier,
		Signals:    []DetectionSignal{modelSignal, ruleSignal, intentSignal},
		Prediction: pred,
		Rules:      rules,
		Intent:     intent,
	}
	assessment.Rationale = explainDecision(tier, pred.Confidence, rules.Score, intent.Score, level)

	return assessment
}

// AssessSession combines per-message assessments for one conversation.
// Callers pass only counterpart-authored texts; predictions must align with
// texts by index (a missing prediction falls back to a zero-confidence
// not_scam, which routes to low-tier weighting).
func (ra *RiskAggregator) AssessSession(texts []string, preds []Prediction) SessionAssessment {
	if len(texts) == 0 {
		return SessionAssessment{Level: RiskSafe}
	}

	cfg := ra.config()

	var (
		sum    float64
		max    float64
		scores = make([]float64, 0, len(texts))
		levels = make(map[RiskLevel]struct{}, 3)
	)
	for i, text := range texts {
		pred := Prediction{Label: LabelNotScam, Confidence: 0.0, Backend: "none"}
		if i < len(preds) {
			pred = preds[i]
		}
		res := ra.Assess(text, pred)
		scores = append(scores, res.Score)
		sum += res.Score
		if res.Score > max {
			max = res.Score
		}
		levels[res.Level] = struct{}{}
	}

	avg := sum / float64(len(scores))
	score := cfg.SessionMeanWeight*avg + cfg.SessionMaxWeight*max

	// Diverse risk levels across messages indicate shifting attack
	// patterns; escalate slightly.
	if len(levels) > 1 {
		score += cfg.SessionDiversityBonus
	}
	if score > 1.0 {
		score = 1.0
	}

	return SessionAssessment{
		Level:        ra.LevelFor(score),
		Score:        score,
		MessageCount: len(scores),
		AverageScore: avg,
		MaxScore:     max,
		Scores:       scores,
	}
}

// ShouldEngage reports whether the honeypot persona should engage the sender.
func (ra *RiskAggregator) ShouldEngage(level RiskLevel) bool {
	return level == RiskScam || level == RiskSuspicious
}

// EngagementStrategy recommends agent behavior for the assessed risk.
func (ra *RiskAggregator) EngagementStrategy(level RiskLevel, score float64) string {
	switch {
	case level == RiskScam && score >= 0.8:
		return "aggressive_engagement" // High confidence scam - fully engage
	case level == RiskScam:
		return "cautious_engagement" // Scam but not totally certain
	case level == RiskSuspicious:
		return "probing_engagement" // Ask questions to gather more intel
	default:
		return "minimal_engagement" // Low risk - minimal response
	}
}

func explainDecision(tier ConfidenceTier, mlConfidence, ruleScore, intentScore float64, level RiskLevel) string {
	var parts []string

	switch tier {
	case TierHigh:
		parts = append(parts, fmt.Sprintf(
			"ML model is highly confident (%.2f), so its prediction is trusted as primary signal.", mlConfidence))
	case TierMedium:
		parts = append(parts, fmt.Sprintf(
			"ML model has medium confidence (%.2f), so decision combines ML with rules and intent analysis.", mlConfidence))
	default:
		parts = append(parts, fmt.Sprintf(
			"ML model has low confidence (%.2f), so rules and intent-based detection compensate heavily.", mlConfidence))
	}

	if ruleScore >= 0.5 {
		parts = append(parts, fmt.Sprintf(
			"Rule-based patterns detected strong scam signals (score: %.2f).", ruleScore))
	}
	if intentScore >= 0.5 {
		parts = append(parts, fmt.Sprintf(
			"Intent analysis detected high-risk scam patterns (score: %.2f).", intentScore))
	}

	switch level {
	case RiskScam:
		parts = append(parts, "Final assessment: HIGH RISK - Classified as scam.")
	case RiskSuspicious:
		parts = append(parts, "Final assessment: MODERATE RISK - Flagged as suspicious for monitoring.")
	default:
		parts = append(parts, "Final assessment: LOW RISK - Appears safe.")
	}

	return strings.Join(parts, " ")
}

func limitKeywords(keywords []string, n int) []string {
	if len(keywords) <= n {
		return keywords
	}
	return keywords[:n]
}
