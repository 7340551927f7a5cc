package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/chargingthefuture/linkproof/internal/model"
)

// SQLite is the file-backed store used by the CLI and by single-node
// deployments.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and bootstraps the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL DEFAULT 'open',
			accepted_answer_id TEXT,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS answers (
			id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			body_text TEXT NOT NULL DEFAULT '',
			links TEXT,
			vote_score INTEGER NOT NULL DEFAULT 0,
			verification_score REAL NOT NULL DEFAULT 0,
			relevance_score REAL NOT NULL DEFAULT 0,
			is_accepted INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_item_id ON answers(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_user_id ON answers(user_id)`,
		`CREATE TABLE IF NOT EXISTS votes (
			user_id TEXT NOT NULL,
			answer_id TEXT NOT NULL,
			value INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (user_id, answer_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_answer_id ON votes(answer_id)`,
		`CREATE TABLE IF NOT EXISTS link_provenances (
			id TEXT PRIMARY KEY,
			answer_id TEXT NOT NULL,
			url TEXT NOT NULL,
			domain TEXT NOT NULL DEFAULT '',
			http_status INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL DEFAULT '',
			snippet TEXT NOT NULL DEFAULT '',
			domain_score REAL NOT NULL DEFAULT 0,
			similarity_score REAL NOT NULL DEFAULT 0,
			is_supportive INTEGER NOT NULL DEFAULT 0,
			fetched_at TEXT NOT NULL,
			UNIQUE (answer_id, url)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_provenances_answer_id ON link_provenances(answer_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// CreateItem inserts a new question item.
func (s *SQLite) CreateItem(ctx context.Context, item *model.Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = model.ItemOpen
	}
	item.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, status, accepted_answer_id, updated_at) VALUES (?, ?, ?, ?)`,
		item.ID, string(item.Status), item.AcceptedAnswerID, item.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetItem loads one item.
func (s *SQLite) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	var status, updatedAt string
	var accepted sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, accepted_answer_id, updated_at FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &status, &accepted, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select item: %w", err)
	}

	item.Status = model.ItemStatus(status)
	item.AcceptedAnswerID = accepted.String
	item.UpdatedAt = parseTime(updatedAt)
	return &item, nil
}

// AcceptAnswer performs the open→answered transition in one transaction.
func (s *SQLite) AcceptAnswer(ctx context.Context, itemID, answerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE answers SET is_accepted = 0 WHERE item_id = ?`, itemID,
	); err != nil {
		return fmt.Errorf("unaccept previous: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE answers SET is_accepted = 1 WHERE id = ? AND item_id = ?`, answerID, itemID,
	)
	if err != nil {
		return fmt.Errorf("accept answer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, accepted_answer_id = ?, updated_at = ? WHERE id = ?`,
		string(model.ItemAnswered), answerID, time.Now().UTC().Format(time.RFC3339Nano), itemID,
	); err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	return tx.Commit()
}

// CreateAnswer inserts a new answer.
func (s *SQLite) CreateAnswer(ctx context.Context, answer *model.Answer) error {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = now
	}
	answer.UpdatedAt = now

	links, err := marshalLinks(answer.Links)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO answers
			(id, item_id, user_id, body_text, links, vote_score, verification_score, relevance_score, is_accepted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		answer.ID, answer.ItemID, answer.UserID, answer.BodyText, links,
		answer.VoteScore, answer.VerificationScore, answer.RelevanceScore,
		boolToInt(answer.IsAccepted),
		answer.CreatedAt.Format(time.RFC3339Nano), answer.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

// GetAnswer loads one answer.
func (s *SQLite) GetAnswer(ctx context.Context, id string) (*model.Answer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, item_id, user_id, body_text, links, vote_score, verification_score, relevance_score, is_accepted, created_at, updated_at
		 FROM answers WHERE id = ?`, id,
	)
	answer, err := scanAnswer(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select answer: %w", err)
	}
	return answer, nil
}

// AnswersByItem returns the item's answers, best relevance first.
func (s *SQLite) AnswersByItem(ctx context.Context, itemID string) ([]model.Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, item_id, user_id, body_text, links, vote_score, verification_score, relevance_score, is_accepted, created_at, updated_at
		 FROM answers WHERE item_id = ? ORDER BY relevance_score DESC, created_at ASC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("select answers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var answers []model.Answer
	for rows.Next() {
		answer, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, *answer)
	}
	return answers, rows.Err()
}

// SetAnswerContent replaces an answer's body text and link list.
func (s *SQLite) SetAnswerContent(ctx context.Context, id, bodyText string, links []string) error {
	payload, err := marshalLinks(links)
	if err != nil {
		return err
	}
	return s.updateAnswer(ctx,
		`UPDATE answers SET body_text = ?, links = ?, updated_at = ? WHERE id = ?`,
		bodyText, payload, time.Now().UTC().Format(time.RFC3339Nano), id)
}

// SetVoteScore writes the derived vote score.
func (s *SQLite) SetVoteScore(ctx context.Context, id string, score int) error {
	return s.updateAnswer(ctx, `UPDATE answers SET vote_score = ? WHERE id = ?`, score, id)
}

// SetVerificationScore writes the derived verification score.
func (s *SQLite) SetVerificationScore(ctx context.Context, id string, score float64) error {
	return s.updateAnswer(ctx, `UPDATE answers SET verification_score = ? WHERE id = ?`, score, id)
}

// SetRelevanceScore writes the derived relevance score.
func (s *SQLite) SetRelevanceScore(ctx context.Context, id string, score float64) error {
	return s.updateAnswer(ctx, `UPDATE answers SET relevance_score = ? WHERE id = ?`, score, id)
}

func (s *SQLite) updateAnswer(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update answer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertVote inserts the vote or updates its value on re-vote.
func (s *SQLite) UpsertVote(ctx context.Context, vote *model.Vote) error {
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO votes (user_id, answer_id, value, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, answer_id) DO UPDATE SET value = excluded.value`,
		vote.UserID, vote.AnswerID, vote.Value, vote.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	return nil
}

// DeleteVote removes a user's vote from an answer.
func (s *SQLite) DeleteVote(ctx context.Context, userID, answerID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM votes WHERE user_id = ? AND answer_id = ?`, userID, answerID,
	)
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	return nil
}

// SumVotes returns the signed sum of vote values on an answer.
func (s *SQLite) SumVotes(ctx context.Context, answerID string) (int, error) {
	var sum int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(value), 0) FROM votes WHERE answer_id = ?`, answerID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum votes: %w", err)
	}
	return sum, nil
}

// UpsertProvenance inserts the record or refreshes the existing row for the
// same (answer, url) pair.
func (s *SQLite) UpsertProvenance(ctx context.Context, prov *model.LinkProvenance) error {
	if prov.ID == "" {
		prov.ID = uuid.NewString()
	}
	if prov.FetchedAt.IsZero() {
		prov.FetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO link_provenances
			(id, answer_id, url, domain, http_status, title, snippet, domain_score, similarity_score, is_supportive, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (answer_id, url) DO UPDATE SET
			domain = excluded.domain,
			http_status = excluded.http_status,
			title = excluded.title,
			snippet = excluded.snippet,
			domain_score = excluded.domain_score,
			similarity_score = excluded.similarity_score,
			is_supportive = excluded.is_supportive,
			fetched_at = excluded.fetched_at`,
		prov.ID, prov.AnswerID, prov.URL, prov.Domain, prov.HTTPStatus,
		prov.Title, prov.Snippet, prov.DomainScore, prov.SimilarityScore,
		boolToInt(prov.Supportive), prov.FetchedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert provenance: %w", err)
	}
	return nil
}

// ProvenancesByAnswer returns the answer's provenance rows, highest
// similarity first.
func (s *SQLite) ProvenancesByAnswer(ctx context.Context, answerID string) ([]model.LinkProvenance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, answer_id, url, domain, http_status, title, snippet, domain_score, similarity_score, is_supportive, fetched_at
		 FROM link_provenances WHERE answer_id = ? ORDER BY similarity_score DESC`, answerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select provenances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var provs []model.LinkProvenance
	for rows.Next() {
		var p model.LinkProvenance
		var supportive int
		var fetchedAt string
		if err := rows.Scan(&p.ID, &p.AnswerID, &p.URL, &p.Domain, &p.HTTPStatus,
			&p.Title, &p.Snippet, &p.DomainScore, &p.SimilarityScore, &supportive, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan provenance: %w", err)
		}
		p.Supportive = supportive != 0
		p.FetchedAt = parseTime(fetchedAt)
		provs = append(provs, p)
	}
	return provs, rows.Err()
}

// AcceptedAnswerCount counts the user's accepted answers.
func (s *SQLite) AcceptedAnswerCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM answers WHERE user_id = ? AND is_accepted = 1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count accepted answers: %w", err)
	}
	return count, nil
}

// UpvotesReceived counts +1 votes across the user's answers.
func (s *SQLite) UpvotesReceived(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes v
		 INNER JOIN answers a ON a.id = v.answer_id
		 WHERE a.user_id = ? AND v.value = 1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count upvotes: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnswer(row rowScanner) (*model.Answer, error) {
	var a model.Answer
	var links sql.NullString
	var accepted int
	var createdAt, updatedAt string

	err := row.Scan(&a.ID, &a.ItemID, &a.UserID, &a.BodyText, &links,
		&a.VoteScore, &a.VerificationScore, &a.RelevanceScore, &accepted,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	a.IsAccepted = accepted != 0
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	if links.Valid && links.String != "" {
		if err := json.Unmarshal([]byte(links.String), &a.Links); err != nil {
			return nil, fmt.Errorf("decode links: %w", err)
		}
	}
	return &a, nil
}

func marshalLinks(links []string) (any, error) {
	if len(links) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("encode links: %w", err)
	}
	return string(payload), nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
