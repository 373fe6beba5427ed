package store

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type FeedbackEntry struct {
	ID        string
	Pair      string
	Note      string
	CreatedAt time.Time
}

// AddFeedback stores a note for a language pair and returns its ID.
func (s *Store) AddFeedback(ctx context.Context, pair, note string) (string, error) {
	pair = strings.ToLower(strings.TrimSpace(pair))
	note = strings.TrimSpace(note)
	if pair == "" || note == "" {
		return "", errors.New("feedback needs a pair and a note")
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, pair, note, created_at) VALUES (?, ?, ?, ?)`,
		id, pair, note, time.Now())
	return id, err
}

// ListFeedback returns feedback oldest first; an empty pair lists every pair.
func (s *Store) ListFeedback(ctx context.Context, pair string) ([]FeedbackEntry, error) {
	b := sq.Select("id", "pair", "note", "created_at").
		From("feedback").
		OrderBy("pair", "created_at", "rowid")
	if pair != "" {
		b = b.Where(sq.Eq{"pair": strings.ToLower(strings.TrimSpace(pair))})
	}

	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []FeedbackEntry
	for rows.Next() {
		var e FeedbackEntry
		if err := rows.Scan(&e.ID, &e.Pair, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// FeedbackNotes returns the pair's notes in insertion order.
func (s *Store) FeedbackNotes(ctx context.Context, pair string) ([]string, error) {
	entries, err := s.ListFeedback(ctx, pair)
	if err != nil {
		return nil, err
	}
	notes := make([]string, 0, len(entries))
	for _, e := range entries {
		notes = append(notes, e.Note)
	}
	return notes, nil
}

func (s *Store) DeleteFeedback(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = ?`, id)
	return err
}
