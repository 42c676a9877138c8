package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/decoyops/snare/pkg/httputil"
)

// LLMProvider defines the backend service type
type LLMProvider string

const (
	ProviderOpenRouter LLMProvider = "openrouter"
	ProviderOllama     LLMProvider = "ollama"
	ProviderGroq       LLMProvider = "groq"
)

// Validation decisions returned by the LLM tier.
const (
	ValidationConfirm   = "confirm"   // first-pass assessment stands
	ValidationEscalate  = "escalate"  // LLM sees stronger scam evidence
	ValidationDowngrade = "downgrade" // LLM sees a benign explanation
)

// DefaultTemperature keeps validation near-deterministic.
const DefaultTemperature = 0.1

// ValidatorConfig holds the configuration for the LLM validation tier.
type ValidatorConfig struct {
	Provider    LLMProvider
	APIKey      string // Optional for Ollama
	Model       string
	BaseURL     string        // Optional override
	Temperature float64       // Defaults to DefaultTemperature
	Timeout     time.Duration // Per-call bound, 0 leaves the client timeout in charge
}

// ValidationResult is the parsed second opinion for one message.
type ValidationResult struct {
	Decision  string  `json:"decision"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
	LatencyMs float64 `json:"latency_ms"`
}

// Validator asks an external LLM for a second opinion on messages the first
// pass scored as suspicious. It is strictly advisory: callers must treat any
// error as "keep the original assessment" so an unreachable provider can
// never stall or weaken detection.
type Validator struct {
	client      *http.Client
	provider    LLMProvider
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	timeout     time.Duration
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewValidator creates a validator for the configured provider.
func NewValidator(cfg ValidatorConfig) *Validator {
	if cfg.Model == "" {
		if cfg.Provider == ProviderOllama {
			cfg.Model = "qwen2.5:7b" // Default local
		} else {
			cfg.Model = "meta-llama/llama-3.1-8b-instruct" // Default cloud
		}
	}

	var baseURL string
	switch cfg.Provider {
	case ProviderOllama:
		baseURL = "http://localhost:11434/v1" // OpenAI compatible endpoint of Ollama
	case ProviderGroq:
		baseURL = "https://api.groq.com/openai/v1"
	case ProviderOpenRouter:
		fallthrough
	default:
		baseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	return &Validator{
		client:      httputil.Client(httputil.TierMedium),
		provider:    cfg.Provider,
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: temperature,
		timeout:     cfg.Timeout,
	}
}

const validatorSystemPrompt = `You are a fraud analyst reviewing a message that automated scoring
flagged as suspicious but could not confidently classify.

The message was received by a decoy account. Decide whether it is part of a
scam attempt (phishing, banking fraud, UPI fraud, lottery scam, impersonation)
or a plausible ordinary message.

Respond in EXACTLY this format, nothing else:
DECISION: CONFIRM|ESCALATE|DOWNGRADE
SCORE: <0.0-1.0>
REASONING: <one sentence>

DECISION meanings:
- CONFIRM: the suspicious rating is about right
- ESCALATE: this is clearly a scam attempt
- DOWNGRADE: this is plausibly a legitimate message`

// Validate requests a second opinion for one message. The first-pass score
// and matched keywords are included so the LLM reviews the same evidence.
func (v *Validator) Validate(ctx context.Context, text string, assessment RiskAssessment) (*ValidationResult, error) {
	if v.provider != ProviderOllama && v.apiKey == "" {
		return nil, fmt.Errorf("API key not configured for %s", v.provider)
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	user := fmt.Sprintf("MESSAGE: %s\n\nAUTOMATED SCORE: %.2f\nMATCHED INDICATORS: %s",
		text, assessment.Score, strings.Join(assessment.Rules.Keywords, ", "))

	start := time.Now()
	content, err := v.callLLM(ctx, chatRequest{
		Model: v.model,
		Messages: []chatMessage{
			{Role: "system", Content: validatorSystemPrompt},
			{Role: "user", Content: user},
		},
		Temperature: v.temperature,
	})
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		return nil, err
	}

	result, err := parseValidation(content)
	if err != nil {
		return nil, err
	}
	result.LatencyMs = latency
	return result, nil
}

// parseValidation extracts the DECISION/SCORE/REASONING lines. Unknown
// decisions or unparseable scores are errors; the caller fails open.
func parseValidation(content string) (*ValidationResult, error) {
	res := &ValidationResult{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(strings.ToUpper(line), "DECISION:"):
			res.Decision = strings.ToLower(strings.TrimSpace(line[len("DECISION:"):]))
		case strings.HasPrefix(strings.ToUpper(line), "SCORE:"):
			raw := strings.TrimSpace(line[len("SCORE:"):])
			score, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("unparseable score %q: %w", raw, err)
			}
			res.Score = score
		case strings.HasPrefix(strings.ToUpper(line), "REASONING:"):
			res.Reasoning = strings.TrimSpace(line[len("REASONING:"):])
		}
	}

	switch res.Decision {
	case ValidationConfirm, ValidationEscalate, ValidationDowngrade:
	default:
		return nil, fmt.Errorf("unknown validation decision %q", res.Decision)
	}
	if res.Score < 0 || res.Score > 1 {
		return nil, fmt.Errorf("validation score %.4f out of range", res.Score)
	}
	return res, nil
}

// ApplyValidation folds a second opinion into an assessment. Escalation can
// only raise the score, a downgrade can only lower it, and a confirm leaves
// the score alone; the risk level is recomputed either way. The validator
// appears as its own signal for auditability.
func (ra *RiskAggregator) ApplyValidation(a RiskAssessment, v ValidationResult) RiskAssessment {
	switch v.Decision {
	case ValidationEscalate:
		if v.Score > a.Score {
			a.Score = v.Score
		}
	case ValidationDowngrade:
		if v.Score < a.Score {
			a.Score = v.Score
		}
	}
	a.Level = ra.LevelFor(a.Score)

	sig := NewDetectionSignal(SignalSourceValidator)
	sig.Score = v.Score
	sig.Label = v.Decision
	sig.LatencyMs = v.LatencyMs
	if v.Reasoning != "" {
		sig.AddReason(v.Reasoning)
	}
	a.Signals = append(a.Signals, sig)

	return a
}

func (v *Validator) callLLM(ctx context.Context, reqBody chatRequest) (string, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(v.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}

	if v.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", err
	}
	defer httputil.DrainAndClose(resp.Body)

	body, err := httputil.ReadResponseBody(resp.Body, 2*1024*1024)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal error: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}
