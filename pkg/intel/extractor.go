package intel

import (
	"regexp"
	"sort"
	"strings"

	"github.com/decoyops/snare/pkg/patterns"
)

// Extraction patterns, compiled once. UPI handles are username@provider with
// a letters-only provider, which distinguishes them from email addresses
// (dotted domain). Phone matching targets Indian mobile numbers with an
// optional +91 prefix.
var (
	upiPattern   = regexp.MustCompile(`\b[a-zA-Z0-9][a-zA-Z0-9._-]*@[a-zA-Z]{2,}\b`)
	emailPattern = regexp.MustCompile(`\b[a-zA-Z0-9._-]+@[a-zA-Z0-9-]+\.[a-zA-Z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+91[-\s]?)?\b[6-9]\d{9}\b`)
	linkPattern  = regexp.MustCompile(`(?i)\b(?:https?://\S+|www\.\S+|bit\.ly/\S+|tinyurl\.com/\S+)`)
	// Account numbers are long digit runs; 11+ digits avoids swallowing
	// bare 10-digit mobile numbers.
	accountPattern = regexp.MustCompile(`\b\d{11,18}\b`)
)

// Extractor pulls artifacts out of raw message text. Stateless and safe for
// concurrent use.
type Extractor struct {
	registry *patterns.Registry
}

// NewExtractor creates an extractor backed by the shared pattern registry
// for keyword harvesting.
func NewExtractor() *Extractor {
	return &Extractor{registry: patterns.Get()}
}

// Extract pulls all artifacts from one message text. Always returns a valid
// record; text with nothing of interest yields the empty record.
func (e *Extractor) Extract(text string) Intelligence {
	var out Intelligence
	if strings.TrimSpace(text) == "" {
		return out
	}

	out.PhishingLinks = dedupSorted(trimLinkPunct(linkPattern.FindAllString(text, -1)))

	// Strip links before scanning for the remaining artifact kinds so a URL
	// path or query string cannot masquerade as an account or phone number.
	stripped := linkPattern.ReplaceAllString(text, " ")

	// Emails are masked out the same way: "user@paytm.com" must not yield a
	// phantom "user@paytm" handle.
	noEmails := emailPattern.ReplaceAllString(stripped, " ")
	var upis []string
	for _, m := range upiPattern.FindAllString(noEmails, -1) {
		upis = append(upis, strings.ToLower(m))
	}
	out.UPIIDs = dedupSorted(upis)

	var phones []string
	for _, m := range phonePattern.FindAllString(stripped, -1) {
		phones = append(phones, normalizePhone(m))
	}
	out.PhoneNumbers = dedupSorted(phones)

	var accounts []string
	for _, m := range accountPattern.FindAllString(stripped, -1) {
		// A +91 number captured without its prefix still has 10 digits and
		// never reaches here; 12-digit matches starting with 91 are treated
		// as phone numbers, not accounts.
		if len(m) == 12 && strings.HasPrefix(m, "91") && m[2] >= '6' {
			continue
		}
		accounts = append(accounts, m)
	}
	out.BankAccounts = dedupSorted(accounts)

	var keywords []string
	for _, kw := range e.registry.ExtractMatches(text,
		patterns.CategorySensitiveData, patterns.CategoryMoney, patterns.CategoryThreat) {
		keywords = append(keywords, strings.ToLower(kw))
	}
	out.SuspiciousKeywords = dedupSorted(keywords)

	return out
}

// normalizePhone reduces a match to its bare 10-digit form so the same
// number with and without +91 dedups to one artifact.
func normalizePhone(s string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	return digits
}

// trimLinkPunct drops trailing sentence punctuation that the greedy URL
// match swallows.
func trimLinkPunct(links []string) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, strings.TrimRight(l, ".,!?;:)"))
	}
	return out
}

func dedupSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
