package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parkerdavis/leadscout/internal/pipeline"
)

const leadsSchema = `
CREATE TABLE IF NOT EXISTS search_runs (
	run_id        UUID PRIMARY KEY,
	query         JSONB NOT NULL,
	rung_reached  INT NOT NULL,
	pages_fetched INT NOT NULL,
	reason        TEXT NOT NULL,
	completed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS leads (
	identity_key    TEXT PRIMARY KEY,
	display_name    TEXT NOT NULL,
	role_title      TEXT,
	title_category  TEXT,
	organization    TEXT,
	location        TEXT,
	source_strategy TEXT,
	run_id          UUID REFERENCES search_runs(run_id),
	extracted_at    TIMESTAMPTZ,
	inserted_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Postgres persists outcomes to a PostgreSQL database: one row per run plus
// one row per lead. Leads key on identity, so re-running a query upserts
// nothing for people already stored.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool and verifies it.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool.
func (s *Postgres) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Postgres) Name() string { return "postgres" }

// EnsureSchema creates the tables if they do not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, leadsSchema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (s *Postgres) Write(ctx context.Context, outcome *pipeline.Outcome) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO search_runs (run_id, query, rung_reached, pages_fetched, reason)
		 VALUES ($1, $2, $3, $4, $5)`,
		outcome.RunID, outcome.Query, outcome.RungReached, outcome.PagesFetched, outcome.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", outcome.RunID, err)
	}

	for _, record := range outcome.Records {
		_, err = tx.Exec(ctx,
			`INSERT INTO leads
			   (identity_key, display_name, role_title, title_category,
			    organization, location, source_strategy, run_id, extracted_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (identity_key) DO NOTHING`,
			record.IdentityKey, record.DisplayName, record.CurrentRole,
			CategorizeTitle(record.CurrentRole), record.Organization,
			record.Location, record.SourceStrategy, outcome.RunID, record.ExtractedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert lead %s: %w", record.IdentityKey, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
