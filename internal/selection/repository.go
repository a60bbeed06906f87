package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/etfnav/backend/internal/contracts"
)

// ErrRunNotFound is returned when no recommendation was stored for a run
var ErrRunNotFound = errors.New("recommendation run not found")

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS selection;
	CREATE TABLE IF NOT EXISTS selection.recommendations (
		run_id            UUID        NOT NULL,
		kind              TEXT        NOT NULL,
		reference_date    DATE        NOT NULL,
		rank              INT         NOT NULL,
		ticker            TEXT        NOT NULL,
		score             DOUBLE PRECISION NOT NULL,
		excess_return_pct DOUBLE PRECISION NOT NULL,
		growth_pct        DOUBLE PRECISION,
		volatility_pct    DOUBLE PRECISION,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (run_id, kind, rank)
	)
`

// Repository handles recommendation persistence
// ⭐ SSOT: 추천 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new recommendation repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the recommendations table if missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure selection schema: %w", err)
	}
	return nil
}

// Save stores every recommendation of a run, replacing a previous save of the same run
func (r *Repository) Save(ctx context.Context, runID string, recs ...contracts.Recommendation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM selection.recommendations WHERE run_id = $1", runID); err != nil {
		return fmt.Errorf("failed to delete old run: %w", err)
	}

	query := `
		INSERT INTO selection.recommendations (
			run_id, kind, reference_date, rank, ticker,
			score, excess_return_pct, growth_pct, volatility_pct
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, rec := range recs {
		for i, item := range rec.Items {
			batch.Queue(query,
				runID, string(rec.Kind), rec.ReferenceDate, i+1, item.Ticker,
				item.Score.V, item.ExcessReturnPct,
				nullable(item.AnnualGrowthPct), nullable(item.AnnualVolatilityPct),
			)
		}
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert recommendations: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get returns the stored recommendations of a run, one per kind
func (r *Repository) Get(ctx context.Context, runID string) ([]contracts.Recommendation, error) {
	query := `
		SELECT kind, reference_date, ticker, score, excess_return_pct, growth_pct, volatility_pct
		FROM selection.recommendations
		WHERE run_id = $1
		ORDER BY kind, rank
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var out []contracts.Recommendation
	for rows.Next() {
		var (
			kind        string
			item        contracts.ScoredInstrument
			score       float64
			growth, vol *float64
			rec         contracts.Recommendation
		)
		if err := rows.Scan(&kind, &rec.ReferenceDate, &item.Ticker, &score, &item.ExcessReturnPct, &growth, &vol); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		item.Kind = contracts.ScoreKind(kind)
		item.Score = contracts.Some(score)
		item.AnnualGrowthPct = fromNullable(growth)
		item.AnnualVolatilityPct = fromNullable(vol)

		if n := len(out); n == 0 || out[n-1].Kind != item.Kind {
			rec.Kind = item.Kind
			out = append(out, rec)
		}
		last := &out[len(out)-1]
		last.Items = append(last.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return out, nil
}

func nullable(o contracts.Optional) *float64 {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}

func fromNullable(p *float64) contracts.Optional {
	if p == nil {
		return contracts.Unavailable()
	}
	return contracts.Some(*p)
}
