// Package agent generates the decoy persona's replies. Replies come from
// stage-keyed template pools, optionally upgraded to an LLM-generated persona
// when an OpenAI-compatible endpoint is configured. Template selection is the
// always-available fallback, so the responder never fails a conversation.
package agent

import (
	"context"
	"log"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/decoyops/snare/pkg/session"
)

// Responder selects persona replies for incoming counterpart messages.
type Responder struct {
	mu      sync.Mutex
	rng     *rand.Rand
	persona *PersonaClient
}

// ResponderOption configures a Responder.
type ResponderOption func(*Responder)

// WithSeed fixes the random source. Tests use this for reproducible picks.
func WithSeed(seed uint64) ResponderOption {
	return func(r *Responder) {
		r.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithPersonaClient attaches an LLM persona. Nil leaves templates only.
func WithPersonaClient(pc *PersonaClient) ResponderOption {
	return func(r *Responder) {
		r.persona = pc
	}
}

// NewResponder creates a responder with a time-seeded random source.
func NewResponder(opts ...ResponderOption) *Responder {
	r := &Responder{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ShouldEngage reports whether the persona keeps the conversation going.
// Any suspicion is enough: disengaging on a false negative costs nothing,
// disengaging on a true positive loses the intelligence.
func (r *Responder) ShouldEngage(s *session.Session) bool {
	return s.ScamSuspected || s.ScamDetected
}

// Reply produces the persona's next message. When an LLM persona is
// configured it is tried first with the session transcript; on any error the
// template selector answers instead.
func (r *Responder) Reply(ctx context.Context, s *session.Session, incoming string) string {
	if r.persona != nil {
		reply, err := r.persona.Generate(ctx, s, incoming, s.ScamDetected)
		if err == nil && reply != "" {
			return reply
		}
		if err != nil {
			log.Printf("[WARN] Persona LLM failed, using template reply: %v", err)
		}
	}
	return r.templateReply(s, incoming)
}

// templateReply picks from the pools based on the detected ask and the
// conversation stage. Early messages play confused; later messages steer
// toward artifact extraction.
func (r *Responder) templateReply(s *session.Session, incoming string) string {
	text := strings.ToLower(incoming)
	msgCount := s.TotalMessages

	if msgCount <= 1 {
		return r.pick(initialResponses)
	}

	switch {
	case containsAny(text, "upi", "vpa"):
		return r.pick(upiQuestionResponses)
	case containsAny(text, "otp", "code", "pin", "password"):
		return r.pick(otpQuestionResponses)
	case containsAny(text, "click", "link", "http", "www"):
		return r.pick(verificationResponses)
	}

	switch {
	case msgCount <= 3:
		return r.pick(confusedResponses, engagementResponses)
	case msgCount <= 6:
		if r.chance(0.4) {
			return r.pick(engagementResponses, delayResponses, cooperativeExtractionResponses)
		}
		return r.pick(engagementResponses, delayResponses)
	case msgCount <= 10:
		if r.chance(0.6) {
			return r.pickPool(extractUPIResponses, extractBankResponses,
				extractPhoneResponses, cooperativeExtractionResponses)
		}
		return r.pick(delayResponses, engagementResponses)
	default:
		if r.chance(0.7) {
			return r.pickPool(extractUPIResponses, extractBankResponses,
				extractPhoneResponses, extractLinkResponses, cooperativeExtractionResponses)
		}
		if r.chance(0.3) {
			return r.pick(hesitationResponses, verificationResponses)
		}
		return r.pick(delayResponses, engagementResponses)
	}
}

// pick chooses uniformly across the concatenation of the given pools.
func (r *Responder) pick(pools ...[]string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, p := range pools {
		total += len(p)
	}
	n := r.rng.IntN(total)
	for _, p := range pools {
		if n < len(p) {
			return p[n]
		}
		n -= len(p)
	}
	return pools[0][0] // unreachable
}

// pickPool chooses a pool first, then a line within it, so small pools are
// asked from as often as large ones.
func (r *Responder) pickPool(pools ...[]string) string {
	r.mu.Lock()
	pool := pools[r.rng.IntN(len(pools))]
	line := pool[r.rng.IntN(len(pool))]
	r.mu.Unlock()
	return line
}

func (r *Responder) chance(p float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() < p
}

func containsAny(text string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}
