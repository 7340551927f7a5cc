// Package verify builds link provenance records and folds them into the
// per-answer verification score. Verification is best-effort enrichment: a
// failed fetch degrades the record, it never blocks answer submission.
package verify

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/chargingthefuture/linkproof/internal/fetch"
	"github.com/chargingthefuture/linkproof/internal/model"
	"github.com/chargingthefuture/linkproof/internal/store"
	"github.com/chargingthefuture/linkproof/internal/textsim"
	"github.com/chargingthefuture/linkproof/internal/trust"
)

// PageFetcher is the slice of the fetcher the builder needs.
type PageFetcher interface {
	FetchWithRetry(ctx context.Context, rawURL string) (*fetch.Result, *fetch.Error)
}

// Builder verifies one cited link at a time: fetch the page, score the
// domain, measure similarity against the citing answer's text, persist the
// provenance record, and trigger the verification aggregator.
type Builder struct {
	fetcher    PageFetcher
	trust      *trust.Scorer
	cfg        model.ScoringConfig
	store      store.Store
	aggregator *Aggregator
	now        func() time.Time
}

// NewBuilder creates a provenance builder.
func NewBuilder(fetcher PageFetcher, trustScorer *trust.Scorer, cfg model.ScoringConfig, st store.Store, aggregator *Aggregator) *Builder {
	return &Builder{
		fetcher:    fetcher,
		trust:      trustScorer,
		cfg:        cfg,
		store:      st,
		aggregator: aggregator,
		now:        time.Now,
	}
}

// SetClock overrides the builder's clock.
func (b *Builder) SetClock(now func() time.Time) { b.now = now }

// VerifyLink builds and persists the provenance record for one cited URL,
// then recomputes the answer's verification score. It never returns an
// error: every failure mode produces a degraded record, and persistence
// problems are logged and swallowed so answer submission is never gated on
// verification.
func (b *Builder) VerifyLink(ctx context.Context, answerID, rawURL, answerContent string) model.LinkProvenance {
	record := b.Build(ctx, answerID, rawURL, answerContent)

	if err := b.store.UpsertProvenance(ctx, &record); err != nil {
		zap.L().Error("persist provenance failed",
			zap.String("answer_id", answerID),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return record
	}

	if _, err := b.aggregator.Recompute(ctx, answerID); err != nil {
		zap.L().Error("verification recompute failed",
			zap.String("answer_id", answerID),
			zap.Error(err),
		)
	}

	return record
}

// Build computes the provenance record without persisting it. The domain
// score is computed in both paths; a failed fetch halves it and zeroes the
// similarity.
func (b *Builder) Build(ctx context.Context, answerID, rawURL, answerContent string) model.LinkProvenance {
	domain := hostnameOf(rawURL)
	domainScore := b.trust.Score(domain)

	record := model.LinkProvenance{
		AnswerID:  answerID,
		URL:       rawURL,
		Domain:    domain,
		FetchedAt: b.now().UTC(),
	}

	result, ferr := b.fetcher.FetchWithRetry(ctx, rawURL)
	if ferr != nil {
		zap.L().Warn("link verification degraded",
			zap.String("answer_id", answerID),
			zap.String("url", rawURL),
			zap.String("kind", ferr.Kind.String()),
			zap.Error(ferr),
		)

		// A non-2xx reply is still a reply: keep its status for diagnostics.
		// Status 0 is reserved for "no usable response".
		if ferr.GotResponse() {
			record.HTTPStatus = ferr.Status
		}
		record.Title = domain
		record.Snippet = "Error fetching: " + ferr.Error()
		record.DomainScore = domainScore * b.cfg.FetchFailurePenalty
		record.SimilarityScore = 0
		record.Supportive = false
		return record
	}

	pageText := result.Title + " " + result.Snippet + " " + result.Content
	similarity := textsim.Jaccard(answerContent, pageText)

	record.HTTPStatus = result.HTTPStatus
	record.Title = result.Title
	if record.Title == "" {
		record.Title = domain
	}
	record.Snippet = result.Snippet
	if record.Snippet == "" {
		record.Snippet = "Content from " + domain
	}
	record.DomainScore = domainScore
	record.SimilarityScore = similarity
	record.Supportive = similarity > b.cfg.SimilarityThreshold && domainScore > b.cfg.DomainThreshold

	return record
}

// hostnameOf extracts the hostname, or "" when the URL does not parse.
func hostnameOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
