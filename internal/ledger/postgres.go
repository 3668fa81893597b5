package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/solguard/engine/internal/store"
)

// PostgresStore implements Store on PostgreSQL. Profit is stored as NUMERIC
// for exact lamport precision.
//
// Expected schema:
//
//	CREATE TABLE liquidation_outcomes (
//	    id                   TEXT PRIMARY KEY,
//	    mint                 TEXT NOT NULL,
//	    borrower             TEXT NOT NULL,
//	    settlement_ref       TEXT NOT NULL,
//	    profit_lamports      NUMERIC NOT NULL,
//	    reputation_confirmed BOOLEAN NOT NULL,
//	    executed_at          TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed outcome store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, o store.LiquidationOutcome) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO liquidation_outcomes
		     (id, mint, borrower, settlement_ref, profit_lamports, reputation_confirmed, executed_at)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6, $7)`,
		o.ID, o.Mint, o.Borrower, o.SettlementRef,
		o.Profit.String(), o.ReputationConfirmed, o.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append outcome %s: %w", o.ID, err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]store.LiquidationOutcome, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, mint, borrower, settlement_ref,
		        profit_lamports::TEXT, reputation_confirmed, executed_at
		 FROM liquidation_outcomes
		 ORDER BY executed_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []store.LiquidationOutcome
	for rows.Next() {
		var o store.LiquidationOutcome
		var profitS string

		if err := rows.Scan(&o.ID, &o.Mint, &o.Borrower, &o.SettlementRef,
			&profitS, &o.ReputationConfirmed, &o.Timestamp); err != nil {
			return nil, err
		}

		o.Profit, _ = decimal.NewFromString(profitS)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
