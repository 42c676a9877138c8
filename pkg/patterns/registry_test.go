package patterns

import (
	"testing"
)

func TestRegistryInit(t *testing.T) {
	// Get should return a singleton registry
	r1 := Get()
	r2 := Get()

	if r1 != r2 {
		t.Error("Get() should return the same registry instance")
	}
}

func TestRegistryHasPatterns(t *testing.T) {
	r := Get()

	total := r.TotalPatterns()
	if total < 100 {
		t.Errorf("expected at least 100 patterns, got %d", total)
	}

	t.Logf("Registry loaded %d patterns", total)
}

func TestCategoryPatterns(t *testing.T) {
	r := Get()

	testCases := []struct {
		category    Category
		minPatterns int
	}{
		{CategoryUrgency, 10},
		{CategoryThreat, 10},
		{CategoryRequest, 10},
		{CategorySensitiveData, 10},
		{CategoryImpersonation, 12},
		{CategoryMoney, 10},
		{CategoryFinancialEntity, 15},
		{CategoryActionRequest, 12},
		{CategoryCoercion, 15},
		{CategoryUrgencySignal, 12},
		{CategoryAuthorityClaim, 10},
		{CategoryUPIScam, 8},
	}

	for _, tc := range testCases {
		t.Run(string(tc.category), func(t *testing.T) {
			patterns := r.GetByCategory(tc.category)
			if len(patterns) < tc.minPatterns {
				t.Errorf("category %s: expected at least %d patterns, got %d",
					tc.category, tc.minPatterns, len(patterns))
			}
			t.Logf("Category %s: %d patterns", tc.category, len(patterns))
		})
	}
}

func TestMatchAny(t *testing.T) {
	r := Get()

	testCases := []struct {
		name       string
		text       string
		categories []Category
		wantMatch  bool
	}{
		{
			name:       "OTP request",
			text:       "Please share your OTP to verify",
			categories: []Category{CategorySensitiveData},
			wantMatch:  true,
		},
		{
			name:       "blocking threat",
			text:       "Your account will be blocked",
			categories: []Category{CategoryThreat},
			wantMatch:  true,
		},
		{
			name:       "urgency pressure",
			text:       "Act immediately, limited time offer",
			categories: []Category{CategoryUrgency},
			wantMatch:  true,
		},
		{
			name:       "rupee amount",
			text:       "You have won ₹50000 cash prize",
			categories: []Category{CategoryMoney},
			wantMatch:  true,
		},
		{
			name:       "bank impersonation",
			text:       "This is SBI customer care calling",
			categories: []Category{CategoryImpersonation},
			wantMatch:  true,
		},
		{
			name:       "upi scam phrase",
			text:       "verify your upi pin right away",
			categories: []Category{CategoryUPIScam},
			wantMatch:  true,
		},
		{
			name:       "authority claim",
			text:       "calling from the security department",
			categories: []Category{CategoryAuthorityClaim},
			wantMatch:  true,
		},
		{
			name:       "normal text",
			text:       "See you at lunch, bring the photos",
			categories: []Category{CategoryThreat, CategorySensitiveData, CategoryMoney},
			wantMatch:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			match := r.MatchAny(tc.text, tc.categories...)
			gotMatch := match != nil

			if gotMatch != tc.wantMatch {
				if tc.wantMatch {
					t.Errorf("expected match for %q, got none", tc.text)
				} else {
					t.Errorf("expected no match for %q, got %s", tc.text, match.Name)
				}
			}

			if match != nil {
				t.Logf("Matched pattern: %s - %s", match.Name, match.Description)
			}
		})
	}
}

func TestMatchAll(t *testing.T) {
	r := Get()

	// Text hitting several sensitive-data patterns at once
	text := "Share your OTP, card number and UPI pin to complete KYC"

	matches := r.MatchAll(text, CategorySensitiveData)

	if len(matches) < 4 {
		t.Errorf("expected at least 4 matches, got %d", len(matches))
	}

	t.Logf("Found %d sensitive-data matches", len(matches))
	for _, m := range matches {
		t.Logf("  - %s: %s", m.Name, m.Description)
	}
}

func TestCountMatches(t *testing.T) {
	r := Get()

	if got := r.CountMatches("hello there", CategoryThreat); got != 0 {
		t.Errorf("benign text: expected 0 threat matches, got %d", got)
	}

	got := r.CountMatches("account blocked, legal action, police complaint", CategoryThreat)
	if got < 3 {
		t.Errorf("expected at least 3 threat matches, got %d", got)
	}
}

func TestExtractMatches(t *testing.T) {
	r := Get()

	kws := r.ExtractMatches("Your account is blocked. Share OTP now.", CategoryThreat, CategorySensitiveData)
	if len(kws) < 2 {
		t.Fatalf("expected at least 2 extracted keywords, got %v", kws)
	}

	// Deterministic ordering
	for i := 1; i < len(kws); i++ {
		if kws[i-1] > kws[i] {
			t.Errorf("extracted keywords not sorted: %v", kws)
		}
	}

	if kws2 := r.ExtractMatches("nothing suspicious here at all", CategoryUPIScam); kws2 != nil {
		t.Errorf("expected nil for clean text, got %v", kws2)
	}
}

func TestGetMultipleCategories(t *testing.T) {
	r := Get()

	patterns := r.GetMultipleCategories(CategoryThreat, CategoryMoney)

	threatCount := r.CategoryCount(CategoryThreat)
	moneyCount := r.CategoryCount(CategoryMoney)
	expectedMin := threatCount + moneyCount

	if len(patterns) < expectedMin {
		t.Errorf("expected at least %d patterns, got %d", expectedMin, len(patterns))
	}
}

// Benchmark for pattern matching performance
func BenchmarkMatchAny(b *testing.B) {
	r := Get()
	text := "URGENT: your account will be suspended, share your OTP now"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.MatchAny(text, CategoryThreat)
	}
}

func BenchmarkMatchAll(b *testing.B) {
	r := Get()
	text := "URGENT: your account will be suspended, share your OTP now"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.MatchAll(text, CategoryUrgency, CategoryThreat, CategoryRequest, CategorySensitiveData)
	}
}
