package ml

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestHugotConfigDefaults(t *testing.T) {
	cfg := DefaultHugotConfig()

	if cfg.ModelName != ModelBERTSpam {
		t.Errorf("expected model name %q, got %q", ModelBERTSpam, cfg.ModelName)
	}
	if cfg.ModelPath != "./models/bert-spam" {
		t.Errorf("expected model path './models/bert-spam', got %q", cfg.ModelPath)
	}
	if cfg.BatchSize != 32 {
		t.Errorf("expected batch size 32, got %d", cfg.BatchSize)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Timeout)
	}

	tiny := TinyHugotConfig()
	if tiny.ModelName != ModelTinySpam {
		t.Errorf("expected tiny model name %q, got %q", ModelTinySpam, tiny.ModelName)
	}
}

func TestHugotDetectorGracefulDegradation(t *testing.T) {
	detector := NewHugotDetectorWithFallback(HugotConfig{
		ModelPath: "/nonexistent/path/to/model",
		ModelName: "", // no download attempt
	})

	if detector == nil {
		t.Fatal("expected non-nil detector with fallback")
	}
	if detector.IsReady() {
		t.Error("detector should not be ready with invalid model path")
	}

	_, err := detector.ClassifySingle(context.Background(), "urgent: verify your account")
	if err == nil {
		t.Error("expected error when classifying with uninitialized detector")
	}
}

func TestHugotDetectorNewWithError(t *testing.T) {
	detector, err := NewHugotDetector(HugotConfig{
		ModelPath: "/nonexistent/path/to/model",
		ModelName: "",
	})

	if err == nil {
		t.Error("expected error with invalid model path")
	}
	if detector != nil {
		t.Error("expected nil detector on error")
	}
}

func TestScamLabelConventions(t *testing.T) {
	cases := []struct {
		label string
		scam  bool
	}{
		{"spam", true},
		{"SPAM", true},
		{"LABEL_1", true},
		{"fraud", true},
		{"ham", false},
		{"LABEL_0", false},
		{"", false},
	}
	for _, c := range cases {
		if got := isScamLabel(c.label); got != c.scam {
			t.Errorf("isScamLabel(%q) = %v, want %v", c.label, got, c.scam)
		}
	}
}

func TestHugotDetectorCloseUnready(t *testing.T) {
	detector := &HugotDetector{ready: false}

	if err := detector.Close(); err != nil {
		t.Errorf("close on uninitialized detector should not error: %v", err)
	}
	if detector.GetStatistics() != nil {
		t.Error("expected nil stats from uninitialized detector")
	}
}

func TestHugotDetectorConcurrency(t *testing.T) {
	detector := NewHugotDetectorWithFallback(HugotConfig{
		ModelPath: "/nonexistent", // never ready
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			detector.IsReady()
			detector.GetStatistics()
			_, _ = detector.Classify(context.Background(), []string{"you won a prize"})
		}()
	}
	wg.Wait()
}
