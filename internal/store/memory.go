package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Trail is the review history of one block: every candidate translation and
// every reviewer criticism, oldest first.
type Trail struct {
	Intermediates []string `json:"intermediates"`
	Criticisms    []string `json:"criticisms"`
}

func (t Trail) encode() (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode trail: %w", err)
	}
	return string(b), nil
}

func decodeTrail(raw string) (Trail, error) {
	var t Trail
	if raw == "" {
		return t, nil
	}
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return t, fmt.Errorf("decode trail: %w", err)
	}
	return t, nil
}

// MemoryKey identifies a cached block. Everything that shapes the prompts
// is part of it, so the same text translated for another domain, style or
// content format is a separate entry.
type MemoryKey struct {
	SourceText string
	SourceLang string
	TargetLang string
	Domain     string
	Style      string
	// Format is the block's content kind, "html" or "text".
	Format string
}

// where is the lookup condition for k, with the source text normalized.
func (k MemoryKey) where() sq.Eq {
	return sq.Eq{
		"source_text": normalizeText(k.SourceText),
		"source_lang": k.SourceLang,
		"target_lang": k.TargetLang,
		"domain":      strings.TrimSpace(k.Domain),
		"style":       strings.TrimSpace(k.Style),
		"format":      k.Format,
	}
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID          string
	SourceText  string
	SourceLang  string
	TargetLang  string
	Domain      string
	Style       string
	Format      string
	FinalText   string
	Trail       Trail
	UsageCount  int
	Invalidated bool
	LastUsed    time.Time
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

const memoryColumns = "id, source_text, source_lang, target_lang, domain, style, format, final_text, trail, usage_count, invalidated, last_used"

func scanMemory(row interface{ Scan(...any) error }) (MemoryEntry, error) {
	var (
		e     MemoryEntry
		trail string
	)
	err := row.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.Domain, &e.Style, &e.Format,
		&e.FinalText, &trail, &e.UsageCount, &e.Invalidated, &e.LastUsed)
	if err != nil {
		return e, err
	}
	e.Trail, err = decodeTrail(trail)
	return e, err
}

// Recall returns the stored result for key, or false when nothing valid is
// cached. A hit bumps the usage counter.
func (s *Store) Recall(ctx context.Context, key MemoryKey) (*MemoryEntry, bool, error) {
	query, args, err := sq.Select(memoryColumns).
		From("translation_memory").
		Where(key.where()).
		ToSql()
	if err != nil {
		return nil, false, err
	}

	e, err := scanMemory(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if e.Invalidated {
		return nil, false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE id = ?`,
		time.Now(), e.ID)
	return &e, true, err
}

// Remember stores a finished block. An existing entry for the same key is
// replaced.
func (s *Store) Remember(ctx context.Context, key MemoryKey, finalText string, trail Trail) error {
	encoded, err := trail.encode()
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_text, source_lang, target_lang, domain, style, format, final_text, trail, usage_count, invalidated, last_used, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		uuid.NewString(), normalizeText(key.SourceText), key.SourceLang, key.TargetLang,
		strings.TrimSpace(key.Domain), strings.TrimSpace(key.Style), key.Format,
		finalText, encoded, now, now)
	return err
}

func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
	return err
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	return err
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MemoryFilter narrows ListMemory. Zero values match everything.
type MemoryFilter struct {
	SourceLang string
	TargetLang string
	Limit      uint64
}

// ListMemory returns translation memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context, f MemoryFilter) ([]MemoryEntry, error) {
	b := sq.Select(memoryColumns).
		From("translation_memory").
		OrderBy("last_used DESC")
	if f.SourceLang != "" {
		b = b.Where(sq.Eq{"source_lang": f.SourceLang})
	}
	if f.TargetLang != "" {
		b = b.Where(sq.Eq{"target_lang": f.TargetLang})
	}
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}

	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		e, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
