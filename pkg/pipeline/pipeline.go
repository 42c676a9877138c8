// Package pipeline orchestrates the per-message flow: score the text, fuse
// the signals into a decision, update the session, extract artifacts, answer
// in persona, and fire the final report when the gate opens. Processing for
// one session is serialized; sessions run independently.
package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"github.com/decoyops/snare/pkg/agent"
	"github.com/decoyops/snare/pkg/callback"
	"github.com/decoyops/snare/pkg/feedback"
	"github.com/decoyops/snare/pkg/intel"
	"github.com/decoyops/snare/pkg/ml"
	"github.com/decoyops/snare/pkg/session"
	"github.com/decoyops/snare/pkg/telemetry"
)

// velocityBoost is added to the aggregated score on a rate violation, but
// only when the pre-boost score is below velocityBoostCeiling. An already
// certain scam gains nothing from re-escalation.
const (
	velocityBoost        = 0.15
	velocityBoostCeiling = 0.6
)

// sophisticationMinMessages is the counterpart-message floor before the
// cross-turn tactic analysis runs.
const sophisticationMinMessages = 3

// validatorTimeout bounds the second-opinion call so a slow provider cannot
// stall the message path.
const validatorTimeout = 15 * time.Second

const lockStripes = 64

// Request is one inbound counterpart message.
type Request struct {
	SessionID string
	Text      string
	Timestamp time.Time
	Metadata  *session.Metadata
}

// Result is the outcome of processing one message.
type Result struct {
	SessionID    string             `json:"sessionId"`
	Reply        string             `json:"reply"`
	RiskLevel    ml.RiskLevel       `json:"riskLevel"`
	Score        float64            `json:"score"`
	Tier         ml.ConfidenceTier  `json:"confidenceTier"`
	ScamDetected bool               `json:"scamDetected"`
	Strategy     string             `json:"engagementStrategy"`
	Intelligence intel.Intelligence `json:"extractedIntelligence"`
	Finalized    bool               `json:"finalized"`
	Gate         string             `json:"gate,omitempty"`
}

// Config wires the pipeline's collaborators. Store, Predictor, Aggregator
// and Responder are required; the rest are optional and nil disables them.
type Config struct {
	Store      session.Store
	Predictor  ml.Predictor
	Aggregator *ml.RiskAggregator
	Responder  *agent.Responder

	Velocity       *session.VelocityMonitor   // nil: a default monitor is created
	Validator      *ml.Validator              // nil: no second opinions
	Sophistication *ml.SophisticationAnalyzer // nil: no cross-turn analysis
	Reporter       *callback.Reporter         // nil: reports logged only
	Feedback       *feedback.Store            // nil: no decision log
	Metrics        *telemetry.Metrics         // nil: telemetry.Global

	VelocityBoost        float64 // 0: default 0.15
	VelocityBoostCeiling float64 // 0: default 0.60
}

// Pipeline processes inbound messages end to end.
type Pipeline struct {
	store     session.Store
	velocity  *session.VelocityMonitor
	predictor ml.Predictor
	agg       *ml.RiskAggregator
	validator *ml.Validator
	soph      *ml.SophisticationAnalyzer
	responder *agent.Responder
	extractor *intel.Extractor
	reporter  *callback.Reporter
	feedback  *feedback.Store
	metrics   *telemetry.Metrics

	boost        float64
	boostCeiling float64

	locks [lockStripes]sync.Mutex
}

// New assembles a pipeline from its collaborators.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Store == nil || cfg.Predictor == nil || cfg.Aggregator == nil || cfg.Responder == nil {
		return nil, fmt.Errorf("pipeline requires store, predictor, aggregator and responder")
	}
	if cfg.Velocity == nil {
		cfg.Velocity = session.NewDefaultVelocityMonitor()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.Global
	}
	if cfg.VelocityBoost == 0 {
		cfg.VelocityBoost = velocityBoost
	}
	if cfg.VelocityBoostCeiling == 0 {
		cfg.VelocityBoostCeiling = velocityBoostCeiling
	}
	return &Pipeline{
		store:     cfg.Store,
		velocity:  cfg.Velocity,
		predictor: cfg.Predictor,
		agg:       cfg.Aggregator,
		validator: cfg.Validator,
		soph:      cfg.Sophistication,
		responder: cfg.Responder,
		extractor: intel.NewExtractor(),
		reporter:  cfg.Reporter,
		feedback:  cfg.Feedback,
		metrics:   cfg.Metrics,

		boost:        cfg.VelocityBoost,
		boostCeiling: cfg.VelocityBoostCeiling,
	}, nil
}

func (p *Pipeline) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &p.locks[h.Sum32()%lockStripes]
}

// Process runs the full flow for one inbound message.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	mu := p.lockFor(req.SessionID)
	mu.Lock()
	defer mu.Unlock()

	p.metrics.RecordMessage()

	s, err := p.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		s = session.New(req.SessionID, req.Metadata)
	}

	now := req.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	s.AddMessage(session.Message{Sender: session.SenderCounterpart, Text: req.Text, Timestamp: now})

	p.velocity.Record(req.SessionID, now)
	vcheck := p.velocity.Check(req.SessionID, now)

	pred := p.predictor.Predict(ctx, req.Text)
	assessment := p.agg.Assess(req.Text, pred)

	if vcheck.Violation {
		p.metrics.RecordVelocityViolation()
		assessment = p.applyVelocity(assessment, vcheck)
	}

	if assessment.Level == ml.RiskSuspicious && p.validator != nil {
		assessment = p.validate(ctx, req.Text, assessment)
	}

	assessment = p.refineSophistication(ctx, s, assessment)

	if err := s.UpdateRisk(assessment); err != nil {
		// Finalized session: keep recording for audit, skip decisions.
		log.Printf("[PIPELINE] %s: risk update skipped: %v", s.ID, err)
	}
	p.metrics.RecordDecision(string(assessment.Level))

	extracted := p.extractor.Extract(req.Text)
	if !extracted.IsEmpty() {
		if err := s.UpdateIntelligence(extracted); err == nil {
			log.Printf("[PIPELINE] %s: extracted %d artifacts %v",
				s.ID, extracted.ArtifactCount(), extracted.Masked())
		}
	}

	reply := p.responder.Reply(ctx, s, req.Text)
	s.AddMessage(session.Message{Sender: session.SenderOperator, Text: reply})

	res := &Result{
		SessionID:    s.ID,
		Reply:        reply,
		RiskLevel:    assessment.Level,
		Score:        assessment.Score,
		Tier:         assessment.Tier,
		ScamDetected: s.ScamDetected,
		Strategy:     p.agg.EngagementStrategy(assessment.Level, assessment.Score),
		Intelligence: s.Intelligence,
	}

	if gate := callback.ShouldFinalize(s); gate.Finalize {
		notes := callback.BuildAgentNotes(s)
		if err := s.Finalize(notes); err == nil {
			res.Finalized = true
			res.Gate = gate.Gate
			if p.reporter != nil {
				if p.reporter.Dispatch(s, notes) {
					p.metrics.RecordReportDispatched()
				}
			} else {
				log.Printf("[CALLBACK] %s: no reporter configured, gate %s result kept locally", s.ID, gate.Gate)
			}
		}
	}

	if err := p.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	p.recordFeedback(ctx, s.ID, req.Text, s.TotalMessages, assessment)

	return res, nil
}

// applyVelocity boosts the score for a rate violation and records the
// violation as its own signal.
func (p *Pipeline) applyVelocity(a ml.RiskAssessment, v session.VelocityCheck) ml.RiskAssessment {
	sig := ml.NewDetectionSignal(ml.SignalSourceVelocity)
	sig.Label = v.Reason
	sig.SetMetadata("count", v.Count)
	sig.SetMetadata("threshold", v.Threshold)

	if a.Score < p.boostCeiling {
		a.Score += p.boost
		if a.Score > 1.0 {
			a.Score = 1.0
		}
		a.Level = p.agg.LevelFor(a.Score)
		sig.Score = p.boost
		sig.AddReason(fmt.Sprintf("%s: %d messages against threshold %d", v.Reason, v.Count, v.Threshold))
	} else {
		sig.AddReason(fmt.Sprintf("%s observed, score already elevated", v.Reason))
	}

	a.Signals = append(a.Signals, sig)
	return a
}

// validate asks the LLM tier for a second opinion on a suspicious decision.
// Fail-open: any error keeps the first-pass assessment.
func (p *Pipeline) validate(ctx context.Context, text string, a ml.RiskAssessment) ml.RiskAssessment {
	p.metrics.RecordValidatorCall()

	vctx, cancel := context.WithTimeout(ctx, validatorTimeout)
	defer cancel()

	res, err := p.validator.Validate(vctx, text, a)
	if err != nil {
		p.metrics.RecordValidatorFailure()
		log.Printf("[VALIDATOR] second opinion unavailable, keeping first-pass decision: %v", err)
		return a
	}
	return p.agg.ApplyValidation(a, *res)
}

// refineSophistication runs the cross-turn tactic analysis once enough
// counterpart messages exist. A multi-tactic script can raise the current
// decision but never lower it. Fail-open on any analyzer error.
func (p *Pipeline) refineSophistication(ctx context.Context, s *session.Session, a ml.RiskAssessment) ml.RiskAssessment {
	if p.soph == nil || !p.soph.Ready() || a.Level == ml.RiskScam {
		return a
	}
	texts := s.CounterpartTexts()
	if len(texts) < sophisticationMinMessages {
		return a
	}

	found, err := p.soph.Analyze(ctx, texts)
	if err != nil {
		log.Printf("[SOPHISTICATION] analysis failed, keeping decision: %v", err)
		return a
	}
	if !found.MultiTactic {
		return a
	}

	sess := p.agg.AssessSession(texts, nil)
	refined := p.agg.ApplySophistication(sess, *found)
	if refined.Score <= a.Score {
		return a
	}

	sig := ml.NewDetectionSignal(ml.SignalSourceSophistication)
	sig.Score = refined.Score - a.Score
	sig.Keywords = found.Tactics
	sig.AddReason(fmt.Sprintf("coordinated tactics across %d messages: %v", found.MessagesHit, found.Tactics))

	a.Score = refined.Score
	a.Level = refined.Level
	a.Signals = append(a.Signals, sig)
	return a
}

// recordFeedback appends the decision to the log and queues it for review
// when warranted. Both writes are advisory.
func (p *Pipeline) recordFeedback(ctx context.Context, sessionID, text string, messageNo int, a ml.RiskAssessment) {
	if err := p.feedback.LogDecision(ctx, sessionID, messageNo, a); err != nil {
		log.Printf("[FEEDBACK] decision log write failed: %v", err)
	}
	if reason, ok := feedback.ShouldQueue(a); ok {
		if err := p.feedback.Enqueue(ctx, sessionID, text, reason, a); err != nil {
			log.Printf("[FEEDBACK] review enqueue failed: %v", err)
		} else if p.feedback != nil {
			p.metrics.RecordReviewQueued()
		}
	}
}

// GetSession returns a session snapshot, or (nil, nil) when unknown.
func (p *Pipeline) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	return p.store.Get(ctx, sessionID)
}

// DeleteSession purges a session and its velocity history.
func (p *Pipeline) DeleteSession(ctx context.Context, sessionID string) error {
	mu := p.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if err := p.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	p.velocity.Purge(sessionID)
	return nil
}

// SessionCount reports live sessions in the store.
func (p *Pipeline) SessionCount(ctx context.Context) (int, error) {
	return p.store.Count(ctx)
}

// Stats snapshots the pipeline counters.
func (p *Pipeline) Stats() telemetry.Snapshot {
	return p.metrics.Snapshot()
}
