package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rewardscope/internal/model"
)

// Schema creates the snapshot table when missing.
const Schema = `
CREATE TABLE IF NOT EXISTS report_snapshots (
	run_id               TEXT        NOT NULL,
	address              TEXT        NOT NULL,
	success              BOOLEAN     NOT NULL,
	partial              BOOLEAN     NOT NULL DEFAULT false,
	total_claims         INTEGER     NOT NULL DEFAULT 0,
	total_move           NUMERIC,
	today_claimed        NUMERIC,
	transactions_scanned INTEGER     NOT NULL DEFAULT 0,
	error                TEXT,
	report               JSONB,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, address)
)`

const upsertSnapshot = `
	INSERT INTO report_snapshots (
		run_id, address, success, partial, total_claims, total_move, today_claimed,
		transactions_scanned, error, report, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
	ON CONFLICT (run_id, address)
	DO UPDATE SET
		success = EXCLUDED.success,
		partial = EXCLUDED.partial,
		total_claims = EXCLUDED.total_claims,
		total_move = EXCLUDED.total_move,
		today_claimed = EXCLUDED.today_claimed,
		transactions_scanned = EXCLUDED.transactions_scanned,
		error = EXCLUDED.error,
		report = EXCLUDED.report,
		updated_at = now()
`

// Store writes report snapshots to Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema applies Schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create report_snapshots: %w", err)
	}
	return nil
}

// PutReports upserts one row per result keyed by (run_id, address).
func (s *Store) PutReports(ctx context.Context, runID string, results []model.BatchResult) error {
	if len(results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, result := range results {
		row, err := snapshotRow(runID, result)
		if err != nil {
			return err
		}
		batch.Queue(upsertSnapshot, row...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, result := range results {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert snapshot %s: %w", result.Address, err)
		}
	}
	return nil
}

// snapshotRow maps a result onto the upsert parameters.
func snapshotRow(runID string, result model.BatchResult) ([]any, error) {
	var (
		partial     bool
		totalClaims int
		totalMove   *string
		today       *string
		scanned     int
		errText     *string
		report      []byte
	)
	if result.Error != "" {
		errText = &result.Error
	}
	if result.Data != nil {
		data := result.Data
		partial = data.Partial
		totalClaims = data.Summary.TotalClaims
		scanned = data.TransactionsScanned
		total := data.Summary.TotalMoveTokens.String()
		todayText := data.Summary.TodayClaimed.String()
		totalMove, today = &total, &todayText
		if data.FetchError != "" && errText == nil {
			errText = &data.FetchError
		}

		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal report %s: %w", result.Address, err)
		}
		report = encoded
	}

	return []any{
		runID,
		result.Address,
		result.Success,
		partial,
		totalClaims,
		totalMove,
		today,
		scanned,
		errText,
		report,
	}, nil
}
