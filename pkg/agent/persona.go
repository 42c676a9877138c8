package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/decoyops/snare/pkg/httputil"
	"github.com/decoyops/snare/pkg/session"
)

// personaTemperature is higher than the analysis tiers want: replies should
// read like a person, not a classifier.
const personaTemperature = 0.8

const maxTranscriptTurns = 10

// PersonaClient generates persona replies through an OpenAI-compatible chat
// endpoint. Advisory only: every error path falls back to template replies.
type PersonaClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// PersonaConfig configures the LLM persona.
type PersonaConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Optional override
}

// NewPersonaClient creates a persona client. Returns nil when no API key is
// configured, which disables the LLM persona cleanly.
func NewPersonaClient(cfg PersonaConfig) *PersonaClient {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.Model == "" {
		cfg.Model = "meta-llama/llama-3.1-8b-instruct"
	}
	baseURL := "https://openrouter.ai/api/v1"
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	return &PersonaClient{
		client:  httputil.Client(httputil.TierFast),
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

const decoyPersonaPrompt = `You are playing the role of a naive, elderly, slightly confused person who
has received a suspicious message. Your HIDDEN goal is to get the sender to
reveal their payment details (UPI ID, bank account, phone number, links)
while appearing cooperative.

CORE BEHAVIOR:
1. Act WILLING to comply but CONFUSED about how
2. Steer toward THEIR details: "Where should I send the money? Give me your
   UPI ID", "Can you give me a number to call you directly?", "Send the link
   again, it didn't open properly"
3. Show FEAR about your account being blocked
4. Ask for THEIR details before giving yours
5. Feign technical difficulty when useful

RULES:
- NEVER reveal you suspect anything
- NEVER use words like "scam", "fraud", "fake"
- Keep responses SHORT (1-2 sentences)
- Sound worried, confused, but COOPERATIVE
- Elderly persona: mention "my son told me...", "I'm not good with phones..."`

const casualPersonaPrompt = `You are a friendly, normal person having a casual conversation. Respond
naturally to the latest message.

RULES:
- Keep it natural and conversational
- Don't be suspicious or defensive
- 1-2 sentences only`

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
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

// Generate produces a persona reply for the latest counterpart message. The
// scam flag selects between the extraction persona and the casual one.
func (p *PersonaClient) Generate(ctx context.Context, s *session.Session, incoming string, scam bool) (string, error) {
	systemPrompt := casualPersonaPrompt
	if scam {
		systemPrompt = decoyPersonaPrompt
	}

	user := fmt.Sprintf("Conversation so far:\n%s\n\nTheir latest message: %s\n\nGenerate a natural response. Keep it short (1-2 sentences).",
		transcript(s), incoming)

	content, err := p.callLLM(ctx, chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		MaxTokens:   100,
		Temperature: personaTemperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// transcript renders the recent history with speaker labels.
func transcript(s *session.Session) string {
	msgs := s.Messages
	if len(msgs) > maxTranscriptTurns {
		msgs = msgs[len(msgs)-maxTranscriptTurns:]
	}
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		role := "You"
		if m.Sender == session.SenderCounterpart {
			role = "Them"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(m.Text)
	}
	return b.String()
}

func (p *PersonaClient) callLLM(ctx context.Context, reqBody chatRequest) (string, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
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
