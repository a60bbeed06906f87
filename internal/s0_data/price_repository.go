package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/etfnav/backend/internal/contracts"
)

// PriceRepository implements contracts.PriceStore over PostgreSQL
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// PriceRow is one stored daily price
type PriceRow struct {
	Ticker   string
	Date     time.Time
	Close    *float64
	AdjClose *float64
}

// EnsureSchema creates the price table if it does not exist
func (r *PriceRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE SCHEMA IF NOT EXISTS data;
		CREATE TABLE IF NOT EXISTS data.etf_prices (
			ticker          TEXT NOT NULL,
			trade_date      DATE NOT NULL,
			close_price     DOUBLE PRECISION,
			adj_close_price DOUBLE PRECISION,
			PRIMARY KEY (ticker, trade_date)
		)
	`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure price schema: %w", err)
	}
	return nil
}

// Load reads the full history of the given tickers
func (r *PriceRepository) Load(ctx context.Context, tickers []string) (*contracts.PriceHistory, error) {
	query := `
		SELECT ticker, trade_date, close_price, adj_close_price
		FROM data.etf_prices
		WHERE ticker = ANY($1)
		ORDER BY ticker, trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, tickers)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var out []PriceRow
	for rows.Next() {
		var p PriceRow
		if err := rows.Scan(&p.Ticker, &p.Date, &p.Close, &p.AdjClose); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prices: %w", err)
	}

	return AssembleHistory(out)
}

// SaveBatch upserts price rows in a single round trip
func (r *PriceRepository) SaveBatch(ctx context.Context, prices []PriceRow) error {
	if len(prices) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.etf_prices (ticker, trade_date, close_price, adj_close_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			close_price = EXCLUDED.close_price,
			adj_close_price = EXCLUDED.adj_close_price
	`

	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(query, p.Ticker, contracts.Day(p.Date), p.Close, p.AdjClose)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range prices {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert price %s %s (row %d): %w", prices[i].Ticker, prices[i].Date.Format(contracts.DateLayout), i, err)
		}
	}
	return nil
}

// AssembleHistory groups rows into a validated PriceHistory. NULL columns are skipped.
func AssembleHistory(rows []PriceRow) (*contracts.PriceHistory, error) {
	raw := make(map[string]map[contracts.Field][]contracts.Observation)
	for _, p := range rows {
		fields, ok := raw[p.Ticker]
		if !ok {
			fields = make(map[contracts.Field][]contracts.Observation, 2)
			raw[p.Ticker] = fields
		}
		if p.Close != nil {
			fields[contracts.FieldClose] = append(fields[contracts.FieldClose], contracts.Observation{Date: p.Date, Value: *p.Close})
		}
		if p.AdjClose != nil {
			fields[contracts.FieldAdjClose] = append(fields[contracts.FieldAdjClose], contracts.Observation{Date: p.Date, Value: *p.AdjClose})
		}
	}
	return contracts.NewPriceHistory(raw)
}
