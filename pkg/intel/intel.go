// Package intel extracts and accumulates scam-identifying artifacts from
// conversation text: bank accounts, UPI handles, phishing links, phone
// numbers, and suspicious keywords.
package intel

import "sort"

// Intelligence holds the five artifact sets for a session. Fields are kept
// as sorted, duplicate-free slices so merge behaves as set union and JSON
// output is deterministic.
type Intelligence struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// Merge returns the set union of two intelligence records. Commutative,
// associative, and idempotent; neither input is mutated.
func Merge(a, b Intelligence) Intelligence {
	return Intelligence{
		BankAccounts:       unionSorted(a.BankAccounts, b.BankAccounts),
		UPIIDs:             unionSorted(a.UPIIDs, b.UPIIDs),
		PhishingLinks:      unionSorted(a.PhishingLinks, b.PhishingLinks),
		PhoneNumbers:       unionSorted(a.PhoneNumbers, b.PhoneNumbers),
		SuspiciousKeywords: unionSorted(a.SuspiciousKeywords, b.SuspiciousKeywords),
	}
}

// Merge folds another record into this one, returning the union.
func (i Intelligence) Merge(other Intelligence) Intelligence {
	return Merge(i, other)
}

// IsEmpty reports whether no intelligence has been gathered at all.
func (i Intelligence) IsEmpty() bool {
	return len(i.BankAccounts) == 0 &&
		len(i.UPIIDs) == 0 &&
		len(i.PhishingLinks) == 0 &&
		len(i.PhoneNumbers) == 0 &&
		len(i.SuspiciousKeywords) == 0
}

// ArtifactCount counts the identifying artifacts. Keyword hits are signal
// for scoring but not identifying, so they are excluded.
func (i Intelligence) ArtifactCount() int {
	return len(i.BankAccounts) + len(i.UPIIDs) + len(i.PhishingLinks) + len(i.PhoneNumbers)
}

func unionSorted(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
