// Package feedback persists final decisions for offline tuning and queues
// uncertain ones for human review. Entirely optional: with no database
// configured every operation is a no-op, so the message path never depends
// on Postgres being up.
package feedback

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/decoyops/snare/pkg/ml"
)

// Review reasons.
const (
	ReasonSuspicious        = "suspicious_decision"
	ReasonLowTierScam       = "low_confidence_scam"
	ReasonValidatorOverride = "validator_override"
)

// Store writes decisions and review items to Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// ReviewItem is one queued decision awaiting a human verdict.
type ReviewItem struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Text      string    `json:"text"`
	Level     string    `json:"level"`
	Score     float64   `json:"score"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewStore connects to Postgres and ensures the schema. An empty DSN
// returns (nil, nil); the nil store is safe to call and does nothing.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		log.Printf("[STARTUP] ○ Decision log disabled (no DSN)")
		return nil, nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Printf("[STARTUP] ✓ Decision log connected")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT NOT NULL,
	message_no  INT NOT NULL,
	level       TEXT NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	tier        TEXT NOT NULL,
	rationale   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS decisions_session_idx ON decisions (session_id);

CREATE TABLE IF NOT EXISTS review_queue (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT NOT NULL,
	text        TEXT NOT NULL,
	level       TEXT NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	reason      TEXT NOT NULL,
	reviewed    BOOLEAN NOT NULL DEFAULT false,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS review_queue_pending_idx ON review_queue (reviewed, created_at);`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ShouldQueue reports whether a decision needs human eyes: suspicious
// verdicts, scam verdicts the model was unsure about, and any decision the
// validator moved.
func ShouldQueue(a ml.RiskAssessment) (string, bool) {
	for _, sig := range a.Signals {
		if sig.Source == ml.SignalSourceValidator && sig.Label != ml.ValidationConfirm {
			return ReasonValidatorOverride, true
		}
	}
	switch {
	case a.Level == ml.RiskSuspicious:
		return ReasonSuspicious, true
	case a.Level == ml.RiskScam && a.Tier == ml.TierLow:
		return ReasonLowTierScam, true
	}
	return "", false
}

// LogDecision appends one final decision to the log. Nil-safe.
func (s *Store) LogDecision(ctx context.Context, sessionID string, messageNo int, a ml.RiskAssessment) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO decisions (session_id, message_no, level, score, tier, rationale)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sessionID, messageNo, string(a.Level), a.Score, string(a.Tier), a.Rationale)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// Enqueue adds a decision to the review queue. Nil-safe.
func (s *Store) Enqueue(ctx context.Context, sessionID, text, reason string, a ml.RiskAssessment) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO review_queue (session_id, text, level, score, reason)
		 VALUES ($1, $2, $3, $4, $5)`,
		sessionID, text, string(a.Level), a.Score, reason)
	if err != nil {
		return fmt.Errorf("enqueue review: %w", err)
	}
	return nil
}

// PendingReviews returns unreviewed items, oldest first. Nil-safe.
func (s *Store) PendingReviews(ctx context.Context, limit int) ([]ReviewItem, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, text, level, score, reason, created_at
		 FROM review_queue WHERE NOT reviewed
		 ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending reviews: %w", err)
	}
	defer rows.Close()

	var items []ReviewItem
	for rows.Next() {
		var it ReviewItem
		if err := rows.Scan(&it.ID, &it.SessionID, &it.Text, &it.Level, &it.Score, &it.Reason, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MarkReviewed resolves a queued item. Nil-safe.
func (s *Store) MarkReviewed(ctx context.Context, id int64) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `UPDATE review_queue SET reviewed = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark reviewed: %w", err)
	}
	return nil
}

// Close releases the pool. Nil-safe.
func (s *Store) Close() {
	if s == nil {
		return
	}
	s.pool.Close()
}
