// Package history persists an audit record of completed backtest runs.
// Recording is best effort: the API response never depends on it.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WENLIN-CHANG/BackTester/internal/domain"
)

// RunRecord is one persisted per-symbol outcome of a backtest batch.
type RunRecord struct {
	BatchID        string          `json:"batch_id"`
	Symbol         string          `json:"symbol"`
	Strategy       domain.Strategy `json:"strategy"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	Amount         float64         `json:"amount"`
	TotalReturnPct float64         `json:"total_return"`
	CAGR           float64         `json:"cagr"`
	MaxDrawdown    float64         `json:"max_drawdown"`
	Volatility     float64         `json:"volatility"`
	SharpeRatio    float64         `json:"sharpe_ratio"`
	FinalValue     float64         `json:"final_value"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Repository stores run records in PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new run history repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the backtest_runs table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS backtest_runs (
			id            BIGSERIAL PRIMARY KEY,
			batch_id      TEXT NOT NULL,
			symbol        TEXT NOT NULL,
			strategy      TEXT NOT NULL,
			start_date    DATE NOT NULL,
			end_date      DATE NOT NULL,
			amount        DOUBLE PRECISION NOT NULL,
			total_return  DOUBLE PRECISION NOT NULL,
			cagr          DOUBLE PRECISION NOT NULL,
			max_drawdown  DOUBLE PRECISION NOT NULL,
			volatility    DOUBLE PRECISION NOT NULL,
			sharpe_ratio  DOUBLE PRECISION NOT NULL,
			final_value   DOUBLE PRECISION NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_backtest_runs_created_at ON backtest_runs (created_at);
	`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure backtest_runs schema: %w", err)
	}

	return nil
}

// RecordBatch inserts one record per symbol in a single transaction.
func (r *Repository) RecordBatch(ctx context.Context, records []RunRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO backtest_runs
			(batch_id, symbol, strategy, start_date, end_date, amount,
			 total_return, cagr, max_drawdown, volatility, sharpe_ratio, final_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, rec := range records {
		_, err := tx.Exec(ctx, query,
			rec.BatchID, rec.Symbol, string(rec.Strategy), rec.StartDate, rec.EndDate, rec.Amount,
			rec.TotalReturnPct, rec.CAGR, rec.MaxDrawdown, rec.Volatility, rec.SharpeRatio, rec.FinalValue,
		)
		if err != nil {
			return fmt.Errorf("insert run record for %s: %w", rec.Symbol, err)
		}
	}

	return tx.Commit(ctx)
}

// ListRecent returns the most recent run records, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
		SELECT batch_id, symbol, strategy, start_date, end_date, amount,
		       total_return, cagr, max_drawdown, volatility, sharpe_ratio, final_value, created_at
		FROM backtest_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query run records: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var strategy string
		err := rows.Scan(
			&rec.BatchID, &rec.Symbol, &strategy, &rec.StartDate, &rec.EndDate, &rec.Amount,
			&rec.TotalReturnPct, &rec.CAGR, &rec.MaxDrawdown, &rec.Volatility, &rec.SharpeRatio,
			&rec.FinalValue, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		rec.Strategy = domain.Strategy(strategy)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("iterate run records: %w", err)
	}

	return records, nil
}

// PruneOlderThan deletes records created before the cutoff and returns
// how many were removed.
func (r *Repository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM backtest_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune run records: %w", err)
	}

	return tag.RowsAffected(), nil
}
