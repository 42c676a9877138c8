package ml

import (
	"strings"

	"github.com/decoyops/snare/pkg/patterns"
)

// ruleFamily binds a pattern category to its per-match increment and ceiling.
// Ceilings sum to 1.0 across the six families.
type ruleFamily struct {
	category  patterns.Category
	increment float64
	ceiling   float64
}

var ruleFamilies = []ruleFamily{
	{patterns.CategoryUrgency, 0.05, 0.15},
	{patterns.CategoryThreat, 0.08, 0.25},
	{patterns.CategoryRequest, 0.05, 0.15},
	{patterns.CategorySensitiveData, 0.08, 0.25},
	{patterns.CategoryImpersonation, 0.05, 0.10},
	{patterns.CategoryMoney, 0.05, 0.10},
}

// RuleResult is the output of the rule-based scorer for one message.
type RuleResult struct {
	Score    float64            `json:"score"`
	Keywords []string           `json:"keywords,omitempty"`
	Families map[string]float64 `json:"families,omitempty"`
}

// RuleScorer scores raw message text against fixed scam indicator families.
// Stateless and safe for concurrent use; all patterns live in the shared
// registry and are compiled once.
type RuleScorer struct {
	registry *patterns.Registry
}

// NewRuleScorer creates a scorer backed by the global pattern registry.
func NewRuleScorer() *RuleScorer {
	return &RuleScorer{registry: patterns.Get()}
}

// Score analyzes a single message for scam indicators.
// Total functions only: empty or unmatched text yields score 0.0 and an
// empty keyword set, never an error.
func (rs *RuleScorer) Score(text string) RuleResult {
	res := RuleResult{Families: make(map[string]float64, len(ruleFamilies))}
	if strings.TrimSpace(text) == "" {
		return res
	}

	seen := make(map[string]struct{})
	for _, fam := range ruleFamilies {
		count := rs.registry.CountMatches(text, fam.category)
		if count == 0 {
			continue
		}
		famScore := float64(count) * fam.increment
		if famScore > fam.ceiling {
			famScore = fam.ceiling
		}
		res.Families[string(fam.category)] = famScore
		res.Score += famScore

		for _, kw := range rs.registry.ExtractMatches(text, fam.category) {
			lower := strings.ToLower(kw)
			if _, dup := seen[lower]; dup {
				continue
			}
			seen[lower] = struct{}{}
			res.Keywords = append(res.Keywords, lower)
		}
	}

	if res.Score > 1.0 {
		res.Score = 1.0
	}
	return res
}

// ScamType buckets a keyword set into a coarse fraud description for
// reporting. Checks run in priority order so credential-heavy sessions are
// not mislabeled by an incidental bank mention later in the list.
func ScamType(keywords []string) string {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		set[strings.ToLower(k)] = struct{}{}
	}
	contains := func(candidates ...string) bool {
		for _, c := range candidates {
			if _, ok := set[c]; ok {
				return true
			}
		}
		return false
	}

	switch {
	case contains("bank", "account", "blocked", "suspended"):
		return "Banking Fraud"
	case contains("otp", "pin", "password", "cvv"):
		return "Credential Phishing"
	case contains("prize", "lottery", "winner", "reward"):
		return "Lottery/Prize Scam"
	case contains("upi", "paytm", "gpay", "phonepe"):
		return "UPI Fraud"
	case contains("kyc", "aadhaar", "pan"):
		return "KYC Fraud"
	default:
		return "General Scam"
	}
}
