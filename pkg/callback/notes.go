package callback

import (
	"fmt"
	"strings"

	"github.com/decoyops/snare/pkg/ml"
	"github.com/decoyops/snare/pkg/session"
)

// BuildAgentNotes writes the closing summary that accompanies the report:
// scam classification, engagement length, artifact yield, and the indicators
// that drove detection.
func BuildAgentNotes(s *session.Session) string {
	intel := s.Intelligence
	scamType := ml.ScamType(intel.SuspiciousKeywords)

	var b strings.Builder
	fmt.Fprintf(&b, "%s engagement over %d messages (confidence %.2f).", scamType, s.TotalMessages, s.Score)
	fmt.Fprintf(&b, " Extracted %d UPI IDs, %d bank accounts, %d phishing links, %d phone numbers.",
		len(intel.UPIIDs), len(intel.BankAccounts), len(intel.PhishingLinks), len(intel.PhoneNumbers))

	if len(intel.SuspiciousKeywords) > 0 {
		keywords := intel.SuspiciousKeywords
		if len(keywords) > 8 {
			keywords = keywords[:8]
		}
		fmt.Fprintf(&b, " Indicators observed: %s.", strings.Join(keywords, ", "))
	}

	if s.LastDecision != nil && s.LastDecision.Rationale != "" {
		b.WriteByte(' ')
		b.WriteString(s.LastDecision.Rationale)
	}

	return b.String()
}
