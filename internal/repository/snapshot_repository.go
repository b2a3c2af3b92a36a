package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-tracker/internal/domain"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot matches.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrStoreUnavailable is returned when no postgres pool is configured.
	ErrStoreUnavailable = errors.New("postgres not configured")
)

// SnapshotRepository stores evaluation snapshots.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *domain.Snapshot) error
	Latest(ctx context.Context) (*domain.Snapshot, error)
	GetByID(ctx context.Context, id string) (*domain.Snapshot, error)
	List(ctx context.Context, limit int) ([]domain.Snapshot, error)
}

type snapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository instantiates repository.
func NewSnapshotRepository(pool *pgxpool.Pool) SnapshotRepository {
	return &snapshotRepository{pool: pool}
}

const (
	snapshotInsertColumns = `id, run_at, trigger, window_from, window_to, examined, skipped, summary, outcomes`
	snapshotSelectColumns = `id::text, run_at, trigger, window_from, window_to, examined, skipped, summary, outcomes`
)

func (r *snapshotRepository) Create(ctx context.Context, snapshot *domain.Snapshot) error {
	if r.pool == nil {
		return ErrStoreUnavailable
	}
	skipped, summary, outcomes, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO sla_snapshots (` + snapshotInsertColumns + `)
        VALUES ($1::uuid,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err = r.pool.Exec(ctx, query,
		snapshot.ID,
		snapshot.RunAt,
		snapshot.Trigger,
		snapshot.WindowFrom,
		snapshot.WindowTo,
		snapshot.Examined,
		skipped,
		summary,
		outcomes,
	)
	return err
}

func (r *snapshotRepository) Latest(ctx context.Context) (*domain.Snapshot, error) {
	if r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	const query = `SELECT ` + snapshotSelectColumns + ` FROM sla_snapshots ORDER BY run_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query)
}

func (r *snapshotRepository) GetByID(ctx context.Context, id string) (*domain.Snapshot, error) {
	if r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	const query = `SELECT ` + snapshotSelectColumns + ` FROM sla_snapshots WHERE id=$1::uuid`
	return r.fetchSingle(ctx, query, id)
}

// List returns the most recent snapshots without their outcome lists.
func (r *snapshotRepository) List(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	if r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = 20
	}
	const query = `
        SELECT id::text, run_at, trigger, window_from, window_to, examined, skipped, summary, '[]'::jsonb
        FROM sla_snapshots ORDER BY run_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]domain.Snapshot, 0, limit)
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snapshot)
	}
	return snapshots, rows.Err()
}

func (r *snapshotRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Snapshot, error) {
	snapshot, err := scanSnapshot(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	return snapshot, err
}

func scanSnapshot(row pgx.Row) (*domain.Snapshot, error) {
	var (
		snapshot                   domain.Snapshot
		skipped, summary, outcomes []byte
	)
	if err := row.Scan(
		&snapshot.ID,
		&snapshot.RunAt,
		&snapshot.Trigger,
		&snapshot.WindowFrom,
		&snapshot.WindowTo,
		&snapshot.Examined,
		&skipped,
		&summary,
		&outcomes,
	); err != nil {
		return nil, err
	}
	if err := decodeSnapshot(&snapshot, skipped, summary, outcomes); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func encodeSnapshot(s *domain.Snapshot) (skipped, summary, outcomes []byte, err error) {
	if skipped, err = json.Marshal(s.Skipped); err != nil {
		return nil, nil, nil, fmt.Errorf("encode skipped: %w", err)
	}
	if summary, err = json.Marshal(s.Summary); err != nil {
		return nil, nil, nil, fmt.Errorf("encode summary: %w", err)
	}
	out := s.Outcomes
	if out == nil {
		out = []domain.SLAOutcome{}
	}
	if outcomes, err = json.Marshal(out); err != nil {
		return nil, nil, nil, fmt.Errorf("encode outcomes: %w", err)
	}
	return skipped, summary, outcomes, nil
}

func decodeSnapshot(s *domain.Snapshot, skipped, summary, outcomes []byte) error {
	s.Skipped = map[string]int{}
	if len(skipped) > 0 {
		if err := json.Unmarshal(skipped, &s.Skipped); err != nil {
			return fmt.Errorf("decode skipped: %w", err)
		}
	}
	if err := json.Unmarshal(summary, &s.Summary); err != nil {
		return fmt.Errorf("decode summary: %w", err)
	}
	s.Outcomes = []domain.SLAOutcome{}
	if len(outcomes) > 0 {
		if err := json.Unmarshal(outcomes, &s.Outcomes); err != nil {
			return fmt.Errorf("decode outcomes: %w", err)
		}
	}
	return nil
}
