// Package engine wires the verification and ranking pipeline together and
// exposes the operations the surrounding Q&A platform invokes: submit or
// edit an answer, cast or clear a vote, accept an answer.
package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chargingthefuture/linkproof/internal/cache"
	"github.com/chargingthefuture/linkproof/internal/fetch"
	"github.com/chargingthefuture/linkproof/internal/model"
	"github.com/chargingthefuture/linkproof/internal/rank"
	"github.com/chargingthefuture/linkproof/internal/store"
	"github.com/chargingthefuture/linkproof/internal/trust"
	"github.com/chargingthefuture/linkproof/internal/verify"
	"github.com/chargingthefuture/linkproof/internal/worker"
)

// Engine owns the link-verification pipeline and the per-answer score
// recomputation chain. All fetches share one bounded worker pool; all score
// writes for a given answer are serialized on its id.
type Engine struct {
	cfg        *model.Config
	store      store.Store
	builder    *verify.Builder
	aggregator *verify.Aggregator
	rank       *rank.Calculator
	pool       *worker.Pool
	keyed      *worker.KeyedMutex
	inflight   sync.WaitGroup
}

// New creates an engine on top of the given store. Call Start before
// submitting work and Shutdown when done.
func New(cfg *model.Config, st store.Store) *Engine {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	pages := cache.NewPageCache(cfg.Cache.PageTTL, cfg.Cache.CleanupInterval)
	fetcher := fetch.NewFetcher(cfg.HTTP, pages)
	trustScorer := trust.NewScorer(&cfg.Trust)
	calculator := rank.NewCalculator(st, cfg.Scoring)
	aggregator := verify.NewAggregator(st, cfg.Scoring, calculator)
	builder := verify.NewBuilder(fetcher, trustScorer, cfg.Scoring, st, aggregator)

	return &Engine{
		cfg:        cfg,
		store:      st,
		builder:    builder,
		aggregator: aggregator,
		rank:       calculator,
		pool:       worker.NewPool(cfg.Concurrency.FetchWorkers),
		keyed:      worker.NewKeyedMutex(),
	}
}

// Start launches the fetch workers.
func (e *Engine) Start() { e.pool.Start() }

// Shutdown waits for queued verifications and stops the workers.
func (e *Engine) Shutdown() {
	e.inflight.Wait()
	e.pool.Shutdown()
}

// Wait blocks until every queued link verification has finished. Useful for
// synchronous callers and tests; the platform normally fires and forgets.
func (e *Engine) Wait() { e.inflight.Wait() }

// Builder exposes the provenance builder for one-shot dry runs.
func (e *Engine) Builder() *verify.Builder { return e.builder }

// Rank exposes the relevance calculator.
func (e *Engine) Rank() *rank.Calculator { return e.rank }

// SubmitAnswer persists a new answer, computes its initial relevance, and
// queues verification of every cited link. Submission succeeds regardless of
// link-check outcome: verification is enrichment, not a gate.
func (e *Engine) SubmitAnswer(ctx context.Context, answer *model.Answer) error {
	if err := e.store.CreateAnswer(ctx, answer); err != nil {
		return fmt.Errorf("create answer: %w", err)
	}

	e.recomputeRelevance(ctx, answer.ID)
	e.queueVerification(ctx, answer.ID, answer.BodyText, answer.Links)

	zap.L().Info("answer submitted",
		zap.String("answer_id", answer.ID),
		zap.String("item_id", answer.ItemID),
		zap.Int("links", len(answer.Links)),
	)

	return nil
}

// UpdateAnswer replaces an answer's body and links and re-verifies the new
// link list.
func (e *Engine) UpdateAnswer(ctx context.Context, answerID, bodyText string, links []string) error {
	if err := e.store.SetAnswerContent(ctx, answerID, bodyText, links); err != nil {
		return fmt.Errorf("update answer: %w", err)
	}

	e.recomputeRelevance(ctx, answerID)
	e.queueVerification(ctx, answerID, bodyText, links)

	return nil
}

// CastVote records or updates a user's vote and recomputes the answer's vote
// score and relevance.
func (e *Engine) CastVote(ctx context.Context, userID, answerID string, value int) error {
	if value != 1 && value != -1 {
		return fmt.Errorf("vote value must be -1 or +1, got %d", value)
	}

	vote := &model.Vote{UserID: userID, AnswerID: answerID, Value: value}
	if err := e.store.UpsertVote(ctx, vote); err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}

	return e.recomputeVotes(ctx, answerID)
}

// ClearVote removes a user's vote and recomputes the answer's scores.
func (e *Engine) ClearVote(ctx context.Context, userID, answerID string) error {
	if err := e.store.DeleteVote(ctx, userID, answerID); err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}

	return e.recomputeVotes(ctx, answerID)
}

// AcceptAnswer marks an answer accepted and moves its item to answered.
// Acceptance is not a relevance recompute trigger; reputation picks up the
// change on the next recomputation that reads it.
func (e *Engine) AcceptAnswer(ctx context.Context, itemID, answerID string) error {
	if err := e.store.AcceptAnswer(ctx, itemID, answerID); err != nil {
		return fmt.Errorf("accept answer: %w", err)
	}

	zap.L().Info("answer accepted",
		zap.String("item_id", itemID),
		zap.String("answer_id", answerID),
	)

	return nil
}

// Rankings returns an item's answers ordered by relevance, best first.
func (e *Engine) Rankings(ctx context.Context, itemID string) ([]model.Answer, error) {
	return e.store.AnswersByItem(ctx, itemID)
}

// queueVerification schedules one fetch task per cited link. The fetch runs
// outside the answer's lock; only the persist-and-aggregate tail holds it.
func (e *Engine) queueVerification(ctx context.Context, answerID, answerContent string, links []string) {
	for _, link := range links {
		link := link
		e.inflight.Add(1)
		err := e.pool.Submit(ctx, func(taskCtx context.Context) {
			defer e.inflight.Done()

			record := e.builder.Build(taskCtx, answerID, link, answerContent)

			unlock := e.keyed.Lock(answerID)
			defer unlock()

			if err := e.store.UpsertProvenance(taskCtx, &record); err != nil {
				zap.L().Error("persist provenance failed",
					zap.String("answer_id", answerID),
					zap.String("url", link),
					zap.Error(err),
				)
				return
			}
			if _, err := e.aggregator.Recompute(taskCtx, answerID); err != nil {
				zap.L().Error("verification recompute failed",
					zap.String("answer_id", answerID),
					zap.Error(err),
				)
			}
		})
		if err != nil {
			e.inflight.Done()
			zap.L().Warn("verification not queued",
				zap.String("answer_id", answerID),
				zap.String("url", link),
				zap.Error(err),
			)
		}
	}
}

// recomputeVotes refreshes the derived vote score and then relevance, both
// under the answer's lock.
func (e *Engine) recomputeVotes(ctx context.Context, answerID string) error {
	unlock := e.keyed.Lock(answerID)
	defer unlock()

	sum, err := e.store.SumVotes(ctx, answerID)
	if err != nil {
		return fmt.Errorf("sum votes: %w", err)
	}
	if err := e.store.SetVoteScore(ctx, answerID, sum); err != nil {
		return fmt.Errorf("store vote score: %w", err)
	}
	if _, err := e.rank.Recompute(ctx, answerID); err != nil {
		return fmt.Errorf("relevance recompute: %w", err)
	}

	return nil
}

// recomputeRelevance runs the relevance calculator under the answer's lock,
// logging rather than propagating failures: scoring never blocks the
// operation that triggered it.
func (e *Engine) recomputeRelevance(ctx context.Context, answerID string) {
	unlock := e.keyed.Lock(answerID)
	defer unlock()

	if _, err := e.rank.Recompute(ctx, answerID); err != nil {
		zap.L().Error("relevance recompute failed",
			zap.String("answer_id", answerID),
			zap.Error(err),
		)
	}
}
