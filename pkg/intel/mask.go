package intel

import "strings"

// Masking helpers for log output. Extracted artifacts are attacker
// identifiers rather than victim PII, but logs travel further than the
// callback payload, so anything resembling an account or number is obscured
// before logging. Links and keywords stay readable since they are the threat
// itself.

// MaskUPI obscures the username of a UPI handle: "scammer@paytm" becomes
// "sc***er@paytm".
func MaskUPI(upi string) string {
	at := strings.IndexByte(upi, '@')
	if at <= 0 {
		return "***@***"
	}
	user, provider := upi[:at], upi[at+1:]
	if len(user) <= 4 {
		return user[:1] + "***@" + provider
	}
	return user[:2] + "***" + user[len(user)-2:] + "@" + provider
}

// MaskPhone keeps the first two and last four digits.
func MaskPhone(phone string) string {
	if len(phone) < 6 {
		return strings.Repeat("*", len(phone))
	}
	return phone[:2] + "***" + phone[len(phone)-4:]
}

// MaskAccount keeps only the last four digits.
func MaskAccount(account string) string {
	if len(account) < 8 {
		return "****"
	}
	return strings.Repeat("*", len(account)-4) + account[len(account)-4:]
}

// Masked returns a copy safe for logging.
func (i Intelligence) Masked() Intelligence {
	out := Intelligence{
		PhishingLinks:      i.PhishingLinks,
		SuspiciousKeywords: i.SuspiciousKeywords,
	}
	for _, u := range i.UPIIDs {
		out.UPIIDs = append(out.UPIIDs, MaskUPI(u))
	}
	for _, p := range i.PhoneNumbers {
		out.PhoneNumbers = append(out.PhoneNumbers, MaskPhone(p))
	}
	for _, a := range i.BankAccounts {
		out.BankAccounts = append(out.BankAccounts, MaskAccount(a))
	}
	return out
}
