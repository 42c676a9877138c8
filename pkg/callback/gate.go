// Package callback decides when an engagement is finished and reports the
// outcome to the evaluator endpoint. The gate trades engagement length
// against intelligence yield: rich sessions report early, sparse sessions
// keep the counterpart talking longer.
package callback

import (
	"fmt"
	"log"

	"github.com/decoyops/snare/pkg/session"
)

// Gate thresholds. Primary gates reward longer engagement per artifact
// count; safety nets fire earlier so a counterpart who goes quiet after
// sharing artifacts is never lost.
const (
	richArtifacts    = 3
	goodArtifacts    = 2
	minimalArtifacts = 1

	richOptimalMsgs    = 7
	goodOptimalMsgs    = 12
	minimalOptimalMsgs = 16

	richSafetyMsgs    = 5
	goodSafetyMsgs    = 10
	minimalSafetyMsgs = 14

	noArtifactMsgs  = 20
	noArtifactScore = 0.50

	hardExitMsgs = 28
)

// GateResult says whether a session should finalize and which gate fired.
type GateResult struct {
	Finalize bool   `json:"finalize"`
	Gate     string `json:"gate,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type gate struct {
	name         string
	minArtifacts int
	minMessages  int
}

// Gates are evaluated in order: all primary gates before any safety net, so
// a session that qualifies for both is attributed to the primary one.
var gates = []gate{
	{"A1", richArtifacts, richOptimalMsgs},
	{"B1", goodArtifacts, goodOptimalMsgs},
	{"C1", minimalArtifacts, minimalOptimalMsgs},
	{"A2", richArtifacts, richSafetyMsgs},
	{"B2", goodArtifacts, goodSafetyMsgs},
	{"C2", minimalArtifacts, minimalSafetyMsgs},
}

// ShouldFinalize evaluates the reporting gates for a session. Pure over the
// session snapshot: prerequisites are a detected scam and an unsent report,
// then artifact-count and message-count gates apply in priority order.
func ShouldFinalize(s *session.Session) GateResult {
	if s.Finalized || !s.ScamDetected {
		return GateResult{}
	}

	artifacts := s.Intelligence.ArtifactCount()
	msgs := s.TotalMessages

	for _, g := range gates {
		if artifacts >= g.minArtifacts && msgs >= g.minMessages {
			log.Printf("[GATE] %s: gate %s met (%d artifacts, %d messages)", s.ID, g.name, artifacts, msgs)
			return GateResult{
				Finalize: true,
				Gate:     g.name,
				Reason:   fmt.Sprintf("%d artifacts after %d messages", artifacts, msgs),
			}
		}
	}

	// Non-cooperative counterpart: no artifacts but sustained conversation
	// with at least moderate confidence.
	if artifacts == 0 && msgs >= noArtifactMsgs && s.Score >= noArtifactScore {
		log.Printf("[GATE] %s: gate D met (0 artifacts, %d messages, score %.2f)", s.ID, msgs, s.Score)
		return GateResult{
			Finalize: true,
			Gate:     "D",
			Reason:   fmt.Sprintf("no artifacts after %d messages, score %.2f", msgs, s.Score),
		}
	}

	// Hard cap so a confirmed scam can never loop forever.
	if msgs >= hardExitMsgs {
		log.Printf("[GATE] %s: gate E met (%d messages)", s.ID, msgs)
		return GateResult{
			Finalize: true,
			Gate:     "E",
			Reason:   fmt.Sprintf("message cap reached at %d", msgs),
		}
	}

	return GateResult{}
}
