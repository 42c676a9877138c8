package ml

import "os"

// HugotEnabled reports whether local Hugot/ONNX classification should be
// enabled. Default is disabled; set SNARE_ENABLE_HUGOT=true (or
// HUGOT_ENABLED=true) to opt-in. This keeps model-less installs quiet and on
// the rule fallback unless explicitly enabled.
func HugotEnabled() bool {
	if isTrue(os.Getenv("SNARE_ENABLE_HUGOT")) {
		return true
	}
	if isTrue(os.Getenv("HUGOT_ENABLED")) {
		return true
	}
	return false
}

func isTrue(v string) bool {
	switch v {
	case "1", "true", "TRUE", "yes", "YES", "on", "ON":
		return true
	default:
		return false
	}
}
