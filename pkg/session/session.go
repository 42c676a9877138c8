// Package session owns per-conversation state: message history, accumulated
// risk and intelligence, and the finalize latch that guarantees at most one
// external report per session.
package session

import (
	"errors"
	"time"

	"github.com/decoyops/snare/pkg/intel"
	"github.com/decoyops/snare/pkg/ml"
)

// ErrFinalized is returned by transitions that are illegal once a session
// has been finalized.
var ErrFinalized = errors.New("session already finalized")

// SenderType identifies who authored a message. Wire values follow the
// evaluator's contract: the counterpart is the suspected scammer, the
// operator is the honeypot persona.
type SenderType string

const (
	SenderCounterpart SenderType = "scammer"
	SenderOperator    SenderType = "user"
)

// Message is one conversation turn. Immutable once analyzed.
type Message struct {
	Sender    SenderType `json:"sender"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
}

// Metadata carries optional channel context supplied by the transport.
type Metadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// State is the lifecycle position of a session.
type State string

const (
	StateNew       State = "new"       // no messages yet
	StateActive    State = "active"    // conversation in progress
	StateFinalized State = "finalized" // terminal; report fired or latched
)

// Session is the unit of conversation state.
type Session struct {
	ID            string             `json:"sessionId"`
	Messages      []Message          `json:"messages"`
	ScamDetected  bool               `json:"scamDetected"`
	ScamSuspected bool               `json:"scamSuspected"`
	Score         float64            `json:"scamConfidenceScore"`
	RiskLevel     ml.RiskLevel       `json:"riskLevel"`
	Tier          ml.ConfidenceTier  `json:"mlConfidenceLevel,omitempty"`
	LastDecision  *ml.RiskAssessment `json:"lastDecision,omitempty"`
	Intelligence  intel.Intelligence `json:"extractedIntelligence"`
	TotalMessages int                `json:"totalMessages"`
	Finalized     bool               `json:"callbackSent"`
	AgentNotes    string             `json:"agentNotes,omitempty"`
	Metadata      *Metadata          `json:"metadata,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// New creates a fresh session.
func New(id string, meta *Metadata) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		RiskLevel: ml.RiskSafe,
		Metadata:  meta,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State derives the lifecycle state from the session fields.
func (s *Session) State() State {
	switch {
	case s.Finalized:
		return StateFinalized
	case s.TotalMessages > 0:
		return StateActive
	default:
		return StateNew
	}
}

// AddMessage appends a turn to the history. Legal in every state: finalized
// sessions keep recording for audit, they just no longer report.
func (s *Session) AddMessage(m Message) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	s.Messages = append(s.Messages, m)
	s.TotalMessages++
	s.UpdatedAt = time.Now().UTC()
}

// CounterpartTexts returns the texts authored by the counterpart, in order.
func (s *Session) CounterpartTexts() []string {
	var out []string
	for _, m := range s.Messages {
		if m.Sender == SenderCounterpart {
			out = append(out, m.Text)
		}
	}
	return out
}

// UpdateRisk records the latest assessment on the session. Risk only
// ratchets upward: suspicion and detection once set stay set, and the score
// keeps its high-water mark. Returns ErrFinalized after finalize.
func (s *Session) UpdateRisk(a ml.RiskAssessment) error {
	if s.Finalized {
		return ErrFinalized
	}

	s.RiskLevel = a.Level
	s.Tier = a.Tier
	s.LastDecision = &a
	if a.Score > s.Score {
		s.Score = a.Score
	}
	switch a.Level {
	case ml.RiskScam:
		s.ScamDetected = true
		s.ScamSuspected = true
	case ml.RiskSuspicious:
		s.ScamSuspected = true
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateIntelligence merges newly extracted artifacts into the accumulated
// set. Returns ErrFinalized after finalize.
func (s *Session) UpdateIntelligence(i intel.Intelligence) error {
	if s.Finalized {
		return ErrFinalized
	}
	s.Intelligence = s.Intelligence.Merge(i)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Finalize latches the session as resolved. The first call succeeds and
// records the closing notes; every later call returns ErrFinalized so
// concurrent gate triggers cannot double-report.
func (s *Session) Finalize(notes string) error {
	if s.Finalized {
		return ErrFinalized
	}
	s.Finalized = true
	if notes != "" {
		s.AgentNotes = notes
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}
