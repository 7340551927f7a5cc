package model

import "time"

// LinkProvenance records the verification outcome for one cited URL on one
// answer. Re-verification upserts on (AnswerID, URL); the aggregators always
// read the latest row per URL.
type LinkProvenance struct {
	ID              string    `json:"id" yaml:"id"`
	AnswerID        string    `json:"answer_id" yaml:"answer_id"`
	URL             string    `json:"url" yaml:"url"`
	Domain          string    `json:"domain" yaml:"domain"`
	HTTPStatus      int       `json:"http_status" yaml:"http_status"` // 0 means no usable response was obtained
	Title           string    `json:"title" yaml:"title"`
	Snippet         string    `json:"snippet" yaml:"snippet"`
	DomainScore     float64   `json:"domain_score" yaml:"domain_score"`         // [0,1]
	SimilarityScore float64   `json:"similarity_score" yaml:"similarity_score"` // [0,1]
	Supportive      bool      `json:"is_supportive" yaml:"is_supportive"`
	FetchedAt       time.Time `json:"fetched_at" yaml:"fetched_at"`
}
