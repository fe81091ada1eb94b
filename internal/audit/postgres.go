// internal/audit/postgres.go
package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type pgStore struct {
	pool *pgxpool.Pool
	log  *zap.SugaredLogger
}

// NewPostgresStore persists deployment runs to Postgres.
func NewPostgresStore(pool *pgxpool.Pool, log *zap.SugaredLogger) Store {
	return &pgStore{pool: pool, log: log}
}

// EnsureSchema creates the audit table if missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS deploy_runs (
		id TEXT PRIMARY KEY,
		tenant_key TEXT NOT NULL,
		document_hash TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		steps JSONB NOT NULL DEFAULT '[]'
	)`)
	return err
}

func (s *pgStore) RecordRun(ctx context.Context, run Run) error {
	steps, err := json.Marshal(run.Steps)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO deploy_runs (id, tenant_key, document_hash, status, started_at, finished_at, steps)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		run.ID, run.TenantKey, run.DocumentHash, run.Status, run.StartedAt, run.FinishedAt, steps)
	return err
}

func (s *pgStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `SELECT id, tenant_key, document_hash, status, started_at, finished_at, steps
		FROM deploy_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var steps []byte
		if err := rows.Scan(&r.ID, &r.TenantKey, &r.DocumentHash, &r.Status, &r.StartedAt, &r.FinishedAt, &steps); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(steps, &r.Steps)
		out = append(out, r)
	}
	return out, rows.Err()
}
