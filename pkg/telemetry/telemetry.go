// Package telemetry keeps process-wide counters for the gateway. Counters
// are monotonic since startup; the stats endpoint reads a consistent-enough
// snapshot without locking writers.
package telemetry

import "sync/atomic"

// Metrics aggregates pipeline activity.
type Metrics struct {
	messages           atomic.Int64
	scam               atomic.Int64
	suspicious         atomic.Int64
	safe               atomic.Int64
	velocityViolations atomic.Int64
	validatorCalls     atomic.Int64
	validatorFailures  atomic.Int64
	reportsDispatched  atomic.Int64
	reviewsQueued      atomic.Int64
}

// Global is the process-wide metrics instance.
var Global = &Metrics{}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Messages           int64 `json:"messagesProcessed"`
	Scam               int64 `json:"scamDecisions"`
	Suspicious         int64 `json:"suspiciousDecisions"`
	Safe               int64 `json:"safeDecisions"`
	VelocityViolations int64 `json:"velocityViolations"`
	ValidatorCalls     int64 `json:"validatorCalls"`
	ValidatorFailures  int64 `json:"validatorFailures"`
	ReportsDispatched  int64 `json:"reportsDispatched"`
	ReviewsQueued      int64 `json:"reviewsQueued"`
}

func (m *Metrics) RecordMessage()           { m.messages.Add(1) }
func (m *Metrics) RecordVelocityViolation() { m.velocityViolations.Add(1) }
func (m *Metrics) RecordValidatorCall()     { m.validatorCalls.Add(1) }
func (m *Metrics) RecordValidatorFailure()  { m.validatorFailures.Add(1) }
func (m *Metrics) RecordReportDispatched()  { m.reportsDispatched.Add(1) }
func (m *Metrics) RecordReviewQueued()      { m.reviewsQueued.Add(1) }

// RecordDecision tallies a final risk level by its wire name.
func (m *Metrics) RecordDecision(level string) {
	switch level {
	case "scam":
		m.scam.Add(1)
	case "suspicious":
		m.suspicious.Add(1)
	default:
		m.safe.Add(1)
	}
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Messages:           m.messages.Load(),
		Scam:               m.scam.Load(),
		Suspicious:         m.suspicious.Load(),
		Safe:               m.safe.Load(),
		VelocityViolations: m.velocityViolations.Load(),
		ValidatorCalls:     m.validatorCalls.Load(),
		ValidatorFailures:  m.validatorFailures.Load(),
		ReportsDispatched:  m.reportsDispatched.Load(),
		ReviewsQueued:      m.reviewsQueued.Load(),
	}
}
