package store

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// BlockRun is the persisted outcome of one block within a request.
type BlockRun struct {
	ID          string
	RequestID   string
	BlockID     string
	Path        string
	Status      string
	FailedStage string
	FinalText   string
	Trail       Trail
	Error       string
	CreatedAt   time.Time
}

func (s *Store) SaveBlockRun(ctx context.Context, run BlockRun) error {
	trail, err := run.Trail.encode()
	if err != nil {
		return err
	}
	id := run.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO block_runs (id, request_id, block_id, path, status, failed_stage, final_text, trail, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.RequestID, run.BlockID, run.Path, run.Status,
		nullable(run.FailedStage), nullable(run.FinalText), trail, nullable(run.Error))
	return err
}

// RunFilter narrows ListBlockRuns. Zero values match everything.
type RunFilter struct {
	RequestID string
	Status    string
	Limit     uint64
}

// ListBlockRuns returns block runs, newest first.
func (s *Store) ListBlockRuns(ctx context.Context, f RunFilter) ([]BlockRun, error) {
	b := sq.Select("id", "request_id", "block_id", "path", "status", "failed_stage", "final_text", "trail", "error", "created_at").
		From("block_runs").
		OrderBy("created_at DESC", "rowid DESC")
	if f.RequestID != "" {
		b = b.Where(sq.Eq{"request_id": f.RequestID})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}

	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []BlockRun
	for rows.Next() {
		var (
			r                         BlockRun
			failed, final, errMessage sql.NullString
			trail                     string
		)
		if err := rows.Scan(&r.ID, &r.RequestID, &r.BlockID, &r.Path, &r.Status, &failed, &final, &trail, &errMessage, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.FailedStage, r.FinalText, r.Error = failed.String, final.String, errMessage.String
		if r.Trail, err = decodeTrail(trail); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
