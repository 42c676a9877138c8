package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/decoyops/snare/pkg/config"
)

func writeScorerConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scorer.yaml")
	yaml := "scam_threshold: 0.65\nsuspicious_threshold: 0.45\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write scorer config: %v", err)
	}
	return path
}

func unsetThresholdEnvs(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SNARE_SCAM_THRESHOLD", "SNARE_SUSPICIOUS_THRESHOLD"} {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { _ = os.Setenv(key, orig) })
			_ = os.Unsetenv(key)
		}
	}
}

func TestResolveAggregatorConfigYAMLThresholdsSurvive(t *testing.T) {
	unsetThresholdEnvs(t)

	cfg := &config.Config{
		ScorerConfigPath:    writeScorerConfig(t),
		ScamThreshold:       0.51,
		SuspiciousThreshold: 0.35,
	}

	agg := resolveAggregatorConfig(cfg)
	if agg.ScamThreshold != 0.65 {
		t.Errorf("scam threshold = %.2f, want YAML value 0.65", agg.ScamThreshold)
	}
	if agg.SuspiciousThreshold != 0.45 {
		t.Errorf("suspicious threshold = %.2f, want YAML value 0.45", agg.SuspiciousThreshold)
	}
}

func TestResolveAggregatorConfigEnvOverridesYAML(t *testing.T) {
	unsetThresholdEnvs(t)
	t.Setenv("SNARE_SCAM_THRESHOLD", "0.70")

	cfg := &config.Config{
		ScorerConfigPath:    writeScorerConfig(t),
		ScamThreshold:       0.70,
		SuspiciousThreshold: 0.35,
	}

	agg := resolveAggregatorConfig(cfg)
	if agg.ScamThreshold != 0.70 {
		t.Errorf("scam threshold = %.2f, want env value 0.70", agg.ScamThreshold)
	}
	// Suspicious threshold was not set in env, so the YAML value holds.
	if agg.SuspiciousThreshold != 0.45 {
		t.Errorf("suspicious threshold = %.2f, want YAML value 0.45", agg.SuspiciousThreshold)
	}
}

func TestResolveAggregatorConfigDefaultsWithoutFile(t *testing.T) {
	unsetThresholdEnvs(t)

	agg := resolveAggregatorConfig(&config.Config{})
	if agg.ScamThreshold != 0.51 || agg.SuspiciousThreshold != 0.35 {
		t.Errorf("expected default thresholds 0.51/0.35, got %.2f/%.2f",
			agg.ScamThreshold, agg.SuspiciousThreshold)
	}
}
