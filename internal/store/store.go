// Package store persists answers, votes, and link provenance records. The
// surrounding Q&A platform owns the full data model; this package covers only
// the slice the verification and ranking engine reads and writes.
package store

import (
	"context"
	"errors"

	"github.com/chargingthefuture/linkproof/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence surface the engine depends on. Implementations
// must make AcceptAnswer atomic: at most one accepted answer per item at any
// observable point.
type Store interface {
	// Items.
	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, id string) (*model.Item, error)
	// AcceptAnswer clears any previously accepted answer for the item, marks
	// answerID accepted, and moves the item to ItemAnswered.
	AcceptAnswer(ctx context.Context, itemID, answerID string) error

	// Answers.
	CreateAnswer(ctx context.Context, answer *model.Answer) error
	GetAnswer(ctx context.Context, id string) (*model.Answer, error)
	// AnswersByItem returns the item's answers ordered by relevance score,
	// highest first.
	AnswersByItem(ctx context.Context, itemID string) ([]model.Answer, error)
	SetAnswerContent(ctx context.Context, id, bodyText string, links []string) error
	SetVoteScore(ctx context.Context, id string, score int) error
	SetVerificationScore(ctx context.Context, id string, score float64) error
	SetRelevanceScore(ctx context.Context, id string, score float64) error

	// Votes.
	UpsertVote(ctx context.Context, vote *model.Vote) error
	DeleteVote(ctx context.Context, userID, answerID string) error
	SumVotes(ctx context.Context, answerID string) (int, error)

	// Provenance. Upsert keys on (AnswerID, URL).
	UpsertProvenance(ctx context.Context, prov *model.LinkProvenance) error
	ProvenancesByAnswer(ctx context.Context, answerID string) ([]model.LinkProvenance, error)

	// Reputation inputs, read fresh on every call.
	AcceptedAnswerCount(ctx context.Context, userID string) (int, error)
	UpvotesReceived(ctx context.Context, userID string) (int, error)

	Close() error
}

// Open creates a store for the configured driver.
func Open(cfg model.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(cfg.Path)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.New("store: unknown driver " + cfg.Driver)
	}
}
