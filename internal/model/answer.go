package model

import "time"

// ItemStatus tracks the acceptance state of a question item.
type ItemStatus string

const (
	ItemOpen     ItemStatus = "open"
	ItemAnswered ItemStatus = "answered"
)

// Item is the parent question an answer belongs to. Only the fields the
// ranking engine touches are modeled; the rest of the item lives in the
// surrounding Q&A store.
type Item struct {
	ID               string     `json:"id"`
	Status           ItemStatus `json:"status"`
	AcceptedAnswerID string     `json:"accepted_answer_id,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Answer carries the answer fields the engine reads plus the two derived
// scores it writes. VerificationScore and RelevanceScore are always
// recomputed from current state, never hand-set.
type Answer struct {
	ID                string    `json:"id"`
	ItemID            string    `json:"item_id"`
	UserID            string    `json:"user_id"`
	BodyText          string    `json:"body_text"`
	Links             []string  `json:"links,omitempty"`
	VoteScore         int       `json:"vote_score"`
	VerificationScore float64   `json:"verification_score"` // [0,1], derived
	RelevanceScore    float64   `json:"relevance_score"`    // derived
	IsAccepted        bool      `json:"is_accepted"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Vote is one user's vote on one answer. The (UserID, AnswerID) pair is
// unique; re-voting updates Value in place.
type Vote struct {
	UserID    string    `json:"user_id"`
	AnswerID  string    `json:"answer_id"`
	Value     int       `json:"value"` // -1 or +1
	CreatedAt time.Time `json:"created_at"`
}
