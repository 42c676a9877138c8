package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/decoyops/snare/pkg/httputil"
)

// sophisticationBoost is added to the session score when multi-tactic
// manipulation is detected.
const sophisticationBoost = 0.20

// defaultTacticThreshold is the cosine similarity above which a message is
// considered to exhibit a seeded tactic.
const defaultTacticThreshold = 0.60

// tacticExemplar is one seeded example of a social engineering tactic.
type tacticExemplar struct {
	Text   string
	Tactic string
}

// Seed exemplars for the tactic stages of long-con scam scripts. Matching is
// semantic, so each entry just needs to be a representative phrasing.
var tacticExemplars = []tacticExemplar{
	// trust building
	{"hello dear, how are you doing today, I hope your family is well", "trust_building"},
	{"I really enjoyed talking with you yesterday, you seem like a kind person", "trust_building"},
	{"we have been chatting for a while now and I feel I can trust you", "trust_building"},

	// authority establishment
	{"I am calling from the bank security department regarding your account", "authority_claim"},
	{"this is an official notice from the income tax department", "authority_claim"},
	{"I am a senior officer and I am authorized to handle your case", "authority_claim"},

	// urgency escalation
	{"you must act in the next ten minutes or the offer is gone", "urgency_escalation"},
	{"this is your final warning, the deadline is today", "urgency_escalation"},
	{"if you do not respond immediately your account will be closed forever", "urgency_escalation"},

	// payoff lure
	{"you have been selected for a special cash reward worth lakhs", "payoff_lure"},
	{"a small processing fee unlocks your full prize money", "payoff_lure"},
	{"invest a little today and double your money by next week", "payoff_lure"},

	// isolation
	{"do not tell anyone about this, it must stay between us", "isolation"},
	{"there is no need to visit the branch, we can handle everything here", "isolation"},
	{"do not call the official number, speak only with me", "isolation"},
}

// SophisticationResult summarizes manipulation tactics observed in a session.
type SophisticationResult struct {
	Tactics     []string `json:"tactics"`      // distinct tactics observed, in first-appearance order
	MessagesHit int      `json:"messages_hit"` // messages matching at least one tactic
	MultiTactic bool     `json:"multi_tactic"` // two or more distinct tactics
	TopSimilar  float32  `json:"top_similarity"`
}

// SophisticationAnalyzer detects scripted, multi-stage manipulation across a
// conversation using embedding similarity to seeded tactic exemplars.
// A single urgent message is ordinary; urgency after trust building and an
// authority claim is a script. Strictly advisory: callers skip it on error.
type SophisticationAnalyzer struct {
	db         *chromem.DB
	collection *chromem.Collection
	threshold  float32
	mu         sync.RWMutex
	ready      bool
}

// NewSophisticationAnalyzer creates an analyzer with the given embedding
// source. The exemplars are not embedded until Seed is called.
func NewSophisticationAnalyzer(embeddingFunc chromem.EmbeddingFunc) (*SophisticationAnalyzer, error) {
	if embeddingFunc == nil {
		return nil, fmt.Errorf("embedding function is nil")
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection("manipulation_tactics", nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &SophisticationAnalyzer{
		db:         db,
		collection: collection,
		threshold:  defaultTacticThreshold,
	}, nil
}

// NewAutoDetectedSophisticationAnalyzer returns a seeded analyzer backed by
// an Ollama embedding endpoint, or nil when none is configured. Callers must
// treat nil as "analysis disabled".
func NewAutoDetectedSophisticationAnalyzer(ctx context.Context) *SophisticationAnalyzer {
	baseURL := os.Getenv("SNARE_EMBEDDINGS_URL")
	if baseURL == "" {
		log.Println("[STARTUP] ○ Sophistication analysis disabled (SNARE_EMBEDDINGS_URL not set)")
		return nil
	}

	model := os.Getenv("SNARE_EMBEDDINGS_MODEL")
	if model == "" {
		model = "embeddinggemma"
	}

	sa, err := NewSophisticationAnalyzer(NewOllamaEmbeddingFunc(model, baseURL))
	if err != nil {
		log.Printf("[WARN] Sophistication analyzer init failed: %v", err)
		return nil
	}
	if err := sa.Seed(ctx); err != nil {
		log.Printf("[WARN] Sophistication exemplar seeding failed: %v", err)
		return nil
	}
	log.Printf("[STARTUP] ✓ Sophistication analysis enabled (%d tactic exemplars)", len(tacticExemplars))
	return sa
}

// NewOllamaEmbeddingFunc builds a chromem embedding function against the
// Ollama /api/embeddings endpoint.
func NewOllamaEmbeddingFunc(model, baseURL string) chromem.EmbeddingFunc {
	client := httputil.Client(httputil.TierMedium)
	endpoint := strings.TrimRight(baseURL, "/") + "/api/embeddings"

	return func(ctx context.Context, text string) ([]float32, error) {
		reqBody := map[string]string{"model": model, "prompt": text}
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer httputil.DrainAndClose(resp.Body)

		if resp.StatusCode != 200 {
			body, _ := httputil.ReadErrorBody(resp.Body)
			return nil, fmt.Errorf("embedding API error %d: %s", resp.StatusCode, string(body))
		}

		var result struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return result.Embedding, nil
	}
}

// Seed embeds the tactic exemplars into the vector store.
func (sa *SophisticationAnalyzer) Seed(ctx context.Context) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	docs := make([]chromem.Document, len(tacticExemplars))
	for i, ex := range tacticExemplars {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("tactic_%d", i),
			Content: ex.Text,
			Metadata: map[string]string{
				"tactic": ex.Tactic,
			},
		}
	}

	// Sequential add: embedding endpoints fall over under fan-out.
	if err := sa.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to add exemplars: %w", err)
	}

	sa.ready = true
	return nil
}

// Ready reports whether exemplars have been seeded.
func (sa *SophisticationAnalyzer) Ready() bool {
	sa.mu.RLock()
	defer sa.mu.RUnlock()
	return sa.ready
}

// SetThreshold updates the similarity threshold.
func (sa *SophisticationAnalyzer) SetThreshold(t float32) {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	sa.threshold = t
}

// Analyze matches each message against the tactic exemplars and reports the
// distinct tactics seen across the conversation.
func (sa *SophisticationAnalyzer) Analyze(ctx context.Context, texts []string) (*SophisticationResult, error) {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	if !sa.ready {
		return nil, fmt.Errorf("sophistication analyzer not seeded - call Seed first")
	}

	res := &SophisticationResult{}
	seen := make(map[string]struct{})

	for _, text := range texts {
		text = strings.TrimSpace(strings.ToLower(text))
		if text == "" {
			continue
		}

		matches, err := sa.collection.Query(ctx, text, 1, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}
		if len(matches) == 0 {
			continue
		}

		best := matches[0]
		if best.Similarity > res.TopSimilar {
			res.TopSimilar = best.Similarity
		}
		if best.Similarity < sa.threshold {
			continue
		}

		res.MessagesHit++
		tactic := best.Metadata["tactic"]
		if _, dup := seen[tactic]; !dup {
			seen[tactic] = struct{}{}
			res.Tactics = append(res.Tactics, tactic)
		}
	}

	res.MultiTactic = len(res.Tactics) >= 2
	return res, nil
}

// ApplySophistication folds a multi-tactic finding into a session assessment.
// Single-tactic findings are recorded but change nothing; a multi-tactic
// script boosts the score and lifts a safe session to suspicious so the agent
// keeps the counterpart talking.
func (ra *RiskAggregator) ApplySophistication(a SessionAssessment, s SophisticationResult) SessionAssessment {
	if !s.MultiTactic {
		return a
	}

	a.Score += sophisticationBoost
	if a.Score > 1.0 {
		a.Score = 1.0
	}
	a.Level = ra.LevelFor(a.Score)
	if a.Level == RiskSafe {
		a.Level = RiskSuspicious
	}
	return a
}
