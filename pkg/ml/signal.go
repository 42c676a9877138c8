package ml

// SignalSource identifies which scoring layer produced a signal
type SignalSource string

const (
	SignalSourceModel          SignalSource = "model"          // Classifier prediction (hugot or rule fallback)
	SignalSourceRules          SignalSource = "rules"          // Keyword/regex family scorer
	SignalSourceIntent         SignalSource = "intent"         // Normalized intent scorer
	SignalSourceVelocity       SignalSource = "velocity"       // Message-rate anomaly boost
	SignalSourceValidator      SignalSource = "validator"      // LLM validation of suspicious decisions
	SignalSourceSophistication SignalSource = "sophistication" // Embedding-based manipulation analysis
)

// RiskLevel is the tri-state classification derived from the aggregated score
type RiskLevel string

const (
	RiskSafe       RiskLevel = "safe"
	RiskSuspicious RiskLevel = "suspicious"
	RiskScam       RiskLevel = "scam"
)

// ConfidenceTier buckets model confidence for aggregation weight selection
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"   // confidence >= 0.7
	TierMedium ConfidenceTier = "medium" // 0.5 <= confidence < 0.7
	TierLow    ConfidenceTier = "low"    // confidence < 0.5
)

// TierForConfidence maps a model confidence value to its tier.
func TierForConfidence(confidence float64) ConfidenceTier {
	switch {
	case confidence >= 0.7:
		return TierHigh
	case confidence >= 0.5:
		return TierMedium
	default:
		return TierLow
	}
}

// DetectionSignal represents one scoring layer's contribution to a decision.
// This is the universal signal format that all layers produce; the aggregator
// retains the full set on every assessment for auditability.
type DetectionSignal struct {
	// Source identifies which layer produced this signal
	Source SignalSource `json:"source"`

	// Score is the raw risk score from the layer (0.0 = safe, 1.0 = certain scam)
	Score float64 `json:"score"`

	// Weight is the aggregation weight applied to this layer for the
	// current confidence tier
	Weight float64 `json:"weight"`

	// Contribution is Score * Weight as summed into the aggregate
	Contribution float64 `json:"contribution"`

	// Label is the layer's own classification, if it produces one
	// (e.g. "possible_scam" from the model layer)
	Label string `json:"label,omitempty"`

	// Keywords lists the matched indicators backing the score
	Keywords []string `json:"keywords,omitempty"`

	// Reasons provides human-readable explanations for the score
	Reasons []string `json:"reasons,omitempty"`

	// LatencyMs is the time taken by this layer in milliseconds
	LatencyMs float64 `json:"latency_ms,omitempty"`

	// Metadata allows layers to pass extra information
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewDetectionSignal creates a new signal with default values
func NewDetectionSignal(source SignalSource) DetectionSignal {
	return DetectionSignal{
		Source:   source,
		Metadata: make(map[string]interface{}),
	}
}

// AddReason appends a reason to the signal
func (s *DetectionSignal) AddReason(reason string) {
	s.Reasons = append(s.Reasons, reason)
}

// SetMetadata sets a metadata key-value pair
func (s *DetectionSignal) SetMetadata(key string, value interface{}) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]interface{})
	}
	s.Metadata[key] = value
}

// IsElevated reports whether this layer alone crossed the halfway mark.
// Elevated signals are called out in the decision rationale.
func (s *DetectionSignal) IsElevated() bool {
	return s.Score > 0.5
}
