package verify

import (
	"context"
	"math"
	"testing"

	"github.com/chargingthefuture/linkproof/internal/model"
	"github.com/chargingthefuture/linkproof/internal/rank"
	"github.com/chargingthefuture/linkproof/internal/store"
)

func newTestAggregator(t *testing.T) (*Aggregator, *store.Memory) {
	t.Helper()

	cfg := model.DefaultConfig()
	st := store.NewMemory()
	t.Cleanup(func() { _ = st.Close() })

	return NewAggregator(st, cfg.Scoring, rank.NewCalculator(st, cfg.Scoring)), st
}

func TestAggregator_ScoreEmpty(t *testing.T) {
	aggregator, _ := newTestAggregator(t)

	if got := aggregator.Score(nil); got != 0 {
		t.Errorf("Expected 0 for no provenance rows, got %v", got)
	}
}

func TestAggregator_ScoreWeightedAverage(t *testing.T) {
	aggregator, _ := newTestAggregator(t)

	provs := []model.LinkProvenance{
		{DomainScore: 0.9, SimilarityScore: 0.5},
		{DomainScore: 0.5, SimilarityScore: 0.2},
	}

	// (0.9*0.5 + 0.5*0.2) / 2 = 0.275
	got := aggregator.Score(provs)
	if math.Abs(got-0.275) > 1e-9 {
		t.Errorf("Expected 0.275, got %v", got)
	}
}

func TestAggregator_MissingDomainScoreWeight(t *testing.T) {
	aggregator, _ := newTestAggregator(t)

	// A zero domain score substitutes the neutral 0.5 weight.
	provs := []model.LinkProvenance{
		{DomainScore: 0, SimilarityScore: 0.4},
	}

	got := aggregator.Score(provs)
	if math.Abs(got-0.2) > 1e-9 {
		t.Errorf("Expected 0.5*0.4 = 0.2, got %v", got)
	}
}

func TestAggregator_ScoreClamped(t *testing.T) {
	aggregator, _ := newTestAggregator(t)

	for _, provs := range [][]model.LinkProvenance{
		{{DomainScore: 0.9, SimilarityScore: 1}, {DomainScore: 0.9, SimilarityScore: 0.9}},
		{{DomainScore: 0.1, SimilarityScore: 0}},
	} {
		got := aggregator.Score(provs)
		if got < 0 || got > 1 {
			t.Errorf("Score %v out of [0,1]", got)
		}
	}
}

func TestAggregator_RecomputePersistsAndCascades(t *testing.T) {
	aggregator, st := newTestAggregator(t)
	ctx := context.Background()

	if err := st.CreateItem(ctx, &model.Item{ID: "item-1"}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if err := st.CreateAnswer(ctx, &model.Answer{ID: "answer-1", ItemID: "item-1", UserID: "u1"}); err != nil {
		t.Fatalf("CreateAnswer failed: %v", err)
	}
	if err := st.UpsertProvenance(ctx, &model.LinkProvenance{
		AnswerID: "answer-1", URL: "https://example.edu/x",
		DomainScore: 0.9, SimilarityScore: 0.6,
	}); err != nil {
		t.Fatalf("UpsertProvenance failed: %v", err)
	}

	score, err := aggregator.Recompute(ctx, "answer-1")
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if math.Abs(score-0.54) > 1e-9 {
		t.Errorf("Expected 0.9*0.6 = 0.54, got %v", score)
	}

	answer, _ := st.GetAnswer(ctx, "answer-1")
	if answer.VerificationScore != score {
		t.Errorf("Expected verification persisted, got %v", answer.VerificationScore)
	}
	if answer.RelevanceScore == 0 {
		t.Error("Expected relevance cascade after verification recompute")
	}
}

func TestAggregator_RecomputeNoRows(t *testing.T) {
	aggregator, st := newTestAggregator(t)
	ctx := context.Background()

	if err := st.CreateItem(ctx, &model.Item{ID: "item-1"}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if err := st.CreateAnswer(ctx, &model.Answer{ID: "answer-1", ItemID: "item-1", UserID: "u1"}); err != nil {
		t.Fatalf("CreateAnswer failed: %v", err)
	}

	score, err := aggregator.Recompute(ctx, "answer-1")
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if score != 0 {
		t.Errorf("Expected 0 with no provenance rows, got %v", score)
	}
}
