// Package rank derives the two per-answer numbers the platform sorts by:
// user reputation and the multi-factor relevance score. Both are always
// recomputed from current state; nothing here is cached or hand-set.
package rank

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chargingthefuture/linkproof/internal/model"
	"github.com/chargingthefuture/linkproof/internal/store"
)

// Calculator computes reputation and relevance against a store.
type Calculator struct {
	store store.Store
	cfg   model.ScoringConfig
	now   func() time.Time
}

// NewCalculator creates a calculator. The clock is injectable for tests via
// SetClock.
func NewCalculator(st store.Store, cfg model.ScoringConfig) *Calculator {
	return &Calculator{
		store: st,
		cfg:   cfg,
		now:   time.Now,
	}
}

// SetClock overrides the calculator's clock.
func (c *Calculator) SetClock(now func() time.Time) { c.now = now }

// Relevance combines vote score, author reputation, source trust, topical
// match, and recency into one ranking number. Pure: same inputs, same score.
func (c *Calculator) Relevance(voteScore, reputation int, provenances []model.LinkProvenance, verificationScore float64, createdAt time.Time) float64 {
	normalizedUpvotes := clamp(float64(voteScore)/float64(c.cfg.VoteSaturation), 0, 1)
	normalizedReputation := clamp(float64(reputation)/float64(c.cfg.ReputationSaturation), 0, 1)

	sourceTrust := 0.0
	if len(provenances) > 0 {
		for _, p := range provenances {
			sourceTrust += p.DomainScore
		}
		sourceTrust /= float64(len(provenances))
	}

	topicalMatch := verificationScore

	daysSinceCreated := c.now().Sub(createdAt).Hours() / 24
	recencyBoost := 1 - daysSinceCreated/c.cfg.RecencyWindowDays
	if recencyBoost < 0 {
		recencyBoost = 0
	}

	return c.cfg.WeightUpvotes*normalizedUpvotes +
		c.cfg.WeightReputation*normalizedReputation +
		c.cfg.WeightSourceTrust*sourceTrust +
		c.cfg.WeightTopicalMatch*topicalMatch +
		c.cfg.WeightRecency*recencyBoost
}

// Recompute reads the answer's current vote score, author reputation,
// provenance rows, and verification score, then stores the fresh relevance
// score. Idempotent for unchanged inputs.
func (c *Calculator) Recompute(ctx context.Context, answerID string) (float64, error) {
	answer, err := c.store.GetAnswer(ctx, answerID)
	if err != nil {
		return 0, fmt.Errorf("load answer: %w", err)
	}

	reputation, err := c.Reputation(ctx, answer.UserID)
	if err != nil {
		return 0, fmt.Errorf("reputation: %w", err)
	}

	provenances, err := c.store.ProvenancesByAnswer(ctx, answerID)
	if err != nil {
		return 0, fmt.Errorf("load provenances: %w", err)
	}

	score := c.Relevance(answer.VoteScore, reputation, provenances, answer.VerificationScore, answer.CreatedAt)

	if err := c.store.SetRelevanceScore(ctx, answerID, score); err != nil {
		return 0, fmt.Errorf("store relevance: %w", err)
	}

	zap.L().Debug("relevance recomputed",
		zap.String("answer_id", answerID),
		zap.Float64("relevance", score),
		zap.Int("vote_score", answer.VoteScore),
		zap.Int("reputation", reputation),
	)

	return score, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
