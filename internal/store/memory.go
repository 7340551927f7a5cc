package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chargingthefuture/linkproof/internal/model"
)

// Memory is an in-process store for tests and embedding.
type Memory struct {
	mu          sync.RWMutex
	items       map[string]model.Item
	answers     map[string]model.Answer
	votes       map[string]model.Vote           // key: userID + "\x00" + answerID
	provenances map[string]model.LinkProvenance // key: answerID + "\x00" + url
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		items:       make(map[string]model.Item),
		answers:     make(map[string]model.Answer),
		votes:       make(map[string]model.Vote),
		provenances: make(map[string]model.LinkProvenance),
	}
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }

// CreateItem inserts a new question item.
func (m *Memory) CreateItem(_ context.Context, item *model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = model.ItemOpen
	}
	item.UpdatedAt = time.Now().UTC()
	m.items[item.ID] = *item
	return nil
}

// GetItem loads one item.
func (m *Memory) GetItem(_ context.Context, id string) (*model.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

// AcceptAnswer performs the open→answered transition under one lock.
func (m *Memory) AcceptAnswer(_ context.Context, itemID, answerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.answers[answerID]
	if !ok || target.ItemID != itemID {
		return ErrNotFound
	}
	item, ok := m.items[itemID]
	if !ok {
		return ErrNotFound
	}

	for id, answer := range m.answers {
		if answer.ItemID == itemID && answer.IsAccepted {
			answer.IsAccepted = false
			m.answers[id] = answer
		}
	}

	target.IsAccepted = true
	m.answers[answerID] = target

	item.Status = model.ItemAnswered
	item.AcceptedAnswerID = answerID
	item.UpdatedAt = time.Now().UTC()
	m.items[itemID] = item
	return nil
}

// CreateAnswer inserts a new answer.
func (m *Memory) CreateAnswer(_ context.Context, answer *model.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = now
	}
	answer.UpdatedAt = now
	m.answers[answer.ID] = *answer
	return nil
}

// GetAnswer loads one answer.
func (m *Memory) GetAnswer(_ context.Context, id string) (*model.Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	answer, ok := m.answers[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := answer
	out.Links = append([]string(nil), answer.Links...)
	return &out, nil
}

// AnswersByItem returns the item's answers, best relevance first.
func (m *Memory) AnswersByItem(_ context.Context, itemID string) ([]model.Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var answers []model.Answer
	for _, answer := range m.answers {
		if answer.ItemID == itemID {
			answers = append(answers, answer)
		}
	}
	sort.Slice(answers, func(i, j int) bool {
		if answers[i].RelevanceScore != answers[j].RelevanceScore {
			return answers[i].RelevanceScore > answers[j].RelevanceScore
		}
		return answers[i].CreatedAt.Before(answers[j].CreatedAt)
	})
	return answers, nil
}

// SetAnswerContent replaces an answer's body text and link list.
func (m *Memory) SetAnswerContent(_ context.Context, id, bodyText string, links []string) error {
	return m.mutateAnswer(id, func(a *model.Answer) {
		a.BodyText = bodyText
		a.Links = append([]string(nil), links...)
		a.UpdatedAt = time.Now().UTC()
	})
}

// SetVoteScore writes the derived vote score.
func (m *Memory) SetVoteScore(_ context.Context, id string, score int) error {
	return m.mutateAnswer(id, func(a *model.Answer) { a.VoteScore = score })
}

// SetVerificationScore writes the derived verification score.
func (m *Memory) SetVerificationScore(_ context.Context, id string, score float64) error {
	return m.mutateAnswer(id, func(a *model.Answer) { a.VerificationScore = score })
}

// SetRelevanceScore writes the derived relevance score.
func (m *Memory) SetRelevanceScore(_ context.Context, id string, score float64) error {
	return m.mutateAnswer(id, func(a *model.Answer) { a.RelevanceScore = score })
}

func (m *Memory) mutateAnswer(id string, fn func(*model.Answer)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	answer, ok := m.answers[id]
	if !ok {
		return ErrNotFound
	}
	fn(&answer)
	m.answers[id] = answer
	return nil
}

// UpsertVote inserts the vote or updates its value on re-vote.
func (m *Memory) UpsertVote(_ context.Context, vote *model.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := vote.UserID + "\x00" + vote.AnswerID
	if existing, ok := m.votes[key]; ok {
		existing.Value = vote.Value
		m.votes[key] = existing
		return nil
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now().UTC()
	}
	m.votes[key] = *vote
	return nil
}

// DeleteVote removes a user's vote from an answer.
func (m *Memory) DeleteVote(_ context.Context, userID, answerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.votes, userID+"\x00"+answerID)
	return nil
}

// SumVotes returns the signed sum of vote values on an answer.
func (m *Memory) SumVotes(_ context.Context, answerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := 0
	for _, vote := range m.votes {
		if vote.AnswerID == answerID {
			sum += vote.Value
		}
	}
	return sum, nil
}

// UpsertProvenance inserts or refreshes the row for (answer, url).
func (m *Memory) UpsertProvenance(_ context.Context, prov *model.LinkProvenance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := prov.AnswerID + "\x00" + prov.URL
	if existing, ok := m.provenances[key]; ok {
		prov.ID = existing.ID
	} else if prov.ID == "" {
		prov.ID = uuid.NewString()
	}
	if prov.FetchedAt.IsZero() {
		prov.FetchedAt = time.Now().UTC()
	}
	m.provenances[key] = *prov
	return nil
}

// ProvenancesByAnswer returns the answer's provenance rows, highest
// similarity first.
func (m *Memory) ProvenancesByAnswer(_ context.Context, answerID string) ([]model.LinkProvenance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var provs []model.LinkProvenance
	for _, prov := range m.provenances {
		if prov.AnswerID == answerID {
			provs = append(provs, prov)
		}
	}
	sort.Slice(provs, func(i, j int) bool {
		return provs[i].SimilarityScore > provs[j].SimilarityScore
	})
	return provs, nil
}

// AcceptedAnswerCount counts the user's accepted answers.
func (m *Memory) AcceptedAnswerCount(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, answer := range m.answers {
		if answer.UserID == userID && answer.IsAccepted {
			count++
		}
	}
	return count, nil
}

// UpvotesReceived counts +1 votes across the user's answers.
func (m *Memory) UpvotesReceived(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, vote := range m.votes {
		if vote.Value != 1 {
			continue
		}
		if answer, ok := m.answers[vote.AnswerID]; ok && answer.UserID == userID {
			count++
		}
	}
	return count, nil
}
