// Package patterns provides a centralized, high-performance pattern registry
// for scam detection. All regex patterns are compiled once at package init
// and shared across all scorers.
//
// Design principles:
// - COMPILE ONCE: All patterns compiled at init, not per-request
// - DRY: Single source of truth for all scam indicator patterns
// - CATEGORIZED: Patterns organized by indicator family for targeted scans
// - EXTENSIBLE: Easy to add new patterns without modifying scorer code
package patterns

import (
	"regexp"
	"sort"
	"sync"
)

// Category represents a scam indicator family
type Category string

const (
	// Rule-scorer families (raw message text)
	CategoryUrgency       Category = "urgency"
	CategoryThreat        Category = "threat"
	CategoryRequest       Category = "request"
	CategorySensitiveData Category = "sensitive_data"
	CategoryImpersonation Category = "impersonation"
	CategoryMoney         Category = "money"

	// Intent-scorer families (normalized text)
	CategoryFinancialEntity Category = "financial_entity"
	CategoryActionRequest   Category = "action_request"
	CategoryCoercion        Category = "coercion"
	CategoryUrgencySignal   Category = "urgency_signal"
	CategoryAuthorityClaim  Category = "authority_claim"
	CategoryUPIScam         Category = "upi_scam"
)

// Pattern holds a compiled regex with metadata
type Pattern struct {
	Name        string         // Human-readable name for logging
	Regex       *regexp.Regexp // Compiled regex (never nil after init)
	Category    Category       // Indicator family
	Severity    int            // Indicative risk contribution (0-100)
	Description string         // What this pattern detects
}

// Registry holds all compiled patterns, organized by category
type Registry struct {
	mu         sync.RWMutex
	byCategory map[Category][]*Pattern
	all        []*Pattern
}

// global singleton - initialized once at package load
var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global pattern registry (singleton)
// Thread-safe and guaranteed to be initialized
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

// newRegistry creates and populates the pattern registry
func newRegistry() *Registry {
	r := &Registry{
		byCategory: make(map[Category][]*Pattern),
		all:        make([]*Pattern, 0, 128),
	}

	r.registerUrgencyPatterns()
	r.registerThreatPatterns()
	r.registerRequestPatterns()
	r.registerSensitiveDataPatterns()
	r.registerImpersonationPatterns()
	r.registerMoneyPatterns()

	r.registerFinancialEntityPatterns()
	r.registerActionRequestPatterns()
	r.registerCoercionPatterns()
	r.registerUrgencySignalPatterns()
	r.registerAuthorityClaimPatterns()
	r.registerUPIScamPatterns()

	return r
}

// register adds a pattern to the registry (internal use only)
func (r *Registry) register(name string, pattern string, category Category, severity int, description string) {
	compiled := regexp.MustCompile(pattern)
	p := &Pattern{
		Name:        name,
		Regex:       compiled,
		Category:    category,
		Severity:    severity,
		Description: description,
	}

	r.byCategory[category] = append(r.byCategory[category], p)
	r.all = append(r.all, p)
}

// GetByCategory returns all patterns for a specific category
// Returns empty slice if category not found (never nil)
func (r *Registry) GetByCategory(cat Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if patterns, ok := r.byCategory[cat]; ok {
		return patterns
	}
	return []*Pattern{}
}

// GetMultipleCategories returns patterns from multiple categories
func (r *Registry) GetMultipleCategories(cats ...Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Pattern
	for _, cat := range cats {
		if patterns, ok := r.byCategory[cat]; ok {
			result = append(result, patterns...)
		}
	}
	return result
}

// MatchAny checks if text matches any pattern in the given categories
// Returns the first matching pattern or nil
// This is optimized for early exit on first match
func (r *Registry) MatchAny(text string, cats ...Category) *Pattern {
	patterns := r.GetMultipleCategories(cats...)
	for _, p := range patterns {
		if p.Regex.MatchString(text) {
			return p
		}
	}
	return nil
}

// MatchAll returns all patterns that match the text in given categories
// Use when you need to know ALL matches (for comprehensive scoring)
func (r *Registry) MatchAll(text string, cats ...Category) []*Pattern {
	patterns := r.GetMultipleCategories(cats...)
	var matches []*Pattern
	for _, p := range patterns {
		if p.Regex.MatchString(text) {
			matches = append(matches, p)
		}
	}
	return matches
}

// CountMatches returns how many patterns in the given categories match the text.
// One pattern counts once no matter how often it occurs.
func (r *Registry) CountMatches(text string, cats ...Category) int {
	return len(r.MatchAll(text, cats...))
}

// ExtractMatches returns the distinct substrings matched by patterns in the
// given categories, sorted for deterministic output.
func (r *Registry) ExtractMatches(text string, cats ...Category) []string {
	patterns := r.GetMultipleCategories(cats...)
	seen := make(map[string]struct{})
	for _, p := range patterns {
		for _, m := range p.Regex.FindAllString(text, -1) {
			if m != "" {
				seen[m] = struct{}{}
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// TotalPatterns returns the total count of registered patterns
func (r *Registry) TotalPatterns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// CategoryCount returns the number of patterns in a category
func (r *Registry) CategoryCount(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCategory[cat])
}
