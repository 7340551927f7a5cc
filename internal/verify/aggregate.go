package verify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chargingthefuture/linkproof/internal/model"
	"github.com/chargingthefuture/linkproof/internal/rank"
	"github.com/chargingthefuture/linkproof/internal/store"
)

// Aggregator folds all of an answer's provenance records into its
// verification score and cascades into the relevance recomputation.
type Aggregator struct {
	store store.Store
	cfg   model.ScoringConfig
	rank  *rank.Calculator
}

// NewAggregator creates a verification aggregator.
func NewAggregator(st store.Store, cfg model.ScoringConfig, calculator *rank.Calculator) *Aggregator {
	return &Aggregator{
		store: st,
		cfg:   cfg,
		rank:  calculator,
	}
}

// Score computes the verification score for a set of provenance rows:
// similarity weighted by domain trust, averaged over all rows, clamped to
// [0,1]. No rows scores 0.
func (a *Aggregator) Score(provenances []model.LinkProvenance) float64 {
	if len(provenances) == 0 {
		return 0
	}

	total := 0.0
	for _, p := range provenances {
		weight := p.DomainScore
		if weight == 0 {
			weight = a.cfg.MissingDomainWeight
		}
		total += weight * p.SimilarityScore
	}

	score := total / float64(len(provenances))
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// Recompute reads the answer's current provenance rows, stores the fresh
// verification score, and recomputes relevance with it.
func (a *Aggregator) Recompute(ctx context.Context, answerID string) (float64, error) {
	provenances, err := a.store.ProvenancesByAnswer(ctx, answerID)
	if err != nil {
		return 0, fmt.Errorf("load provenances: %w", err)
	}

	score := a.Score(provenances)

	if err := a.store.SetVerificationScore(ctx, answerID, score); err != nil {
		return 0, fmt.Errorf("store verification: %w", err)
	}

	zap.L().Debug("verification recomputed",
		zap.String("answer_id", answerID),
		zap.Float64("verification", score),
		zap.Int("provenances", len(provenances)),
	)

	if _, err := a.rank.Recompute(ctx, answerID); err != nil {
		return 0, fmt.Errorf("relevance recompute: %w", err)
	}

	return score, nil
}
