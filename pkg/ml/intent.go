package ml

import (
	"strings"

	"github.com/decoyops/snare/pkg/patterns"
)

// intentFamily binds a pattern category to its per-match increment and ceiling.
type intentFamily struct {
	name      string
	category  patterns.Category
	increment float64
	ceiling   float64
}

var intentFamilies = []intentFamily{
	{"financial", patterns.CategoryFinancialEntity, 0.08, 0.25},
	{"action", patterns.CategoryActionRequest, 0.07, 0.20},
	{"coercion", patterns.CategoryCoercion, 0.10, 0.30},
	{"urgency", patterns.CategoryUrgencySignal, 0.05, 0.15},
	{"authority", patterns.CategoryAuthorityClaim, 0.05, 0.10},
	{"upi_scam", patterns.CategoryUPIScam, 0.15, 0.20},
}

const intentMatchSample = 5 // matched terms kept per family for explainability

// IntentResult is the explainability record produced alongside the score.
type IntentResult struct {
	Score      float64             `json:"intent_score"`
	Components map[string]float64  `json:"components"`
	Counts     map[string]int      `json:"pattern_counts"`
	Matches    map[string][]string `json:"matches,omitempty"`
	Bonus      float64             `json:"combination_bonus"`
	Bonuses    []string            `json:"bonuses,omitempty"`
	Normalized string              `json:"normalized_text,omitempty"`
}

// IntentScorer is a lightweight NLP layer for detecting financial scam intent.
// It acts as a safety net when model predictions are uncertain, and defends
// against obfuscation by scoring normalized text (see NormalizeText).
// Stateless and safe for concurrent use.
type IntentScorer struct {
	registry *patterns.Registry
}

// NewIntentScorer creates a scorer backed by the global pattern registry.
func NewIntentScorer() *IntentScorer {
	return &IntentScorer{registry: patterns.Get()}
}

// Score calculates the intent-based risk score for the given text.
// Pure and total: empty or whitespace-only input yields 0.0, never an error.
func (is *IntentScorer) Score(text string) IntentResult {
	res := IntentResult{
		Components: make(map[string]float64, len(intentFamilies)+1),
		Counts:     make(map[string]int, len(intentFamilies)),
		Matches:    make(map[string][]string, len(intentFamilies)),
	}
	if strings.TrimSpace(text) == "" {
		return res
	}

	normalized := NormalizeText(text)
	res.Normalized = normalized

	base := 0.0
	for _, fam := range intentFamilies {
		count := is.registry.CountMatches(normalized, fam.category)
		res.Counts[fam.name] = count
		if count == 0 {
			res.Components[fam.name] = 0
			continue
		}
		famScore := float64(count) * fam.increment
		if famScore > fam.ceiling {
			famScore = fam.ceiling
		}
		res.Components[fam.name] = famScore
		base += famScore

		matched := is.registry.ExtractMatches(normalized, fam.category)
		if len(matched) > intentMatchSample {
			matched = matched[:intentMatchSample]
		}
		res.Matches[fam.name] = matched
	}

	financial := res.Counts["financial"] > 0
	action := res.Counts["action"] > 0
	coercion := res.Counts["coercion"] > 0
	urgency := res.Counts["urgency"] > 0

	// Combination bonuses: co-occurring families are far stronger evidence
	// than any family alone. Bonuses are additive, not mutually exclusive.
	if financial && action {
		res.Bonus += 0.10
		res.Bonuses = append(res.Bonuses, "financial+action")
	}
	if financial && coercion {
		res.Bonus += 0.15
		res.Bonuses = append(res.Bonuses, "financial+coercion")
	}
	if action && urgency {
		res.Bonus += 0.08
		res.Bonuses = append(res.Bonuses, "action+urgency")
	}
	if financial && action && (coercion || urgency) {
		res.Bonus += 0.12
		res.Bonuses = append(res.Bonuses, "financial+action+pressure")
	}

	res.Components["combination_bonus"] = res.Bonus
	res.Score = base + res.Bonus
	if res.Score > 1.0 {
		res.Score = 1.0
	}
	return res
}

// IsHighIntentRisk is a quick check against a caller-supplied threshold.
func (is *IntentScorer) IsHighIntentRisk(text string, threshold float64) bool {
	return is.Score(text).Score >= threshold
}
