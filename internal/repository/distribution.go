package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// ShareRow is the audit shape persisted per destination of a distribution:
// who (or which pool) received money, at which rate, and how much.
type ShareRow struct {
	BeneficiaryCode string
	AgentID         *int64
	Percentage      decimal.Decimal
	Amount          decimal.Decimal
}

type DistributionRepository struct {
	db *sql.DB
}

func NewDistributionRepository(db *sql.DB) *DistributionRepository {
	return &DistributionRepository{db: db}
}

// SaveShares replaces the audit rows of one payment atomically. Re-running a
// distribution therefore never duplicates its trail.
func (r *DistributionRepository) SaveShares(ctx context.Context, paymentID string, shares []ShareRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin distribution tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM distribution_shares WHERE payment_id = $1`, paymentID); err != nil {
		return fmt.Errorf("clear previous shares for payment %s: %w", paymentID, err)
	}

	const insert = `INSERT INTO distribution_shares (payment_id, beneficiary_code, agent_id, percentage, amount)
		VALUES ($1, $2, $3, $4, $5)`
	for _, s := range shares {
		var agentID sql.NullInt64
		if s.AgentID != nil {
			agentID = sql.NullInt64{Int64: *s.AgentID, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, insert, paymentID, s.BeneficiaryCode, agentID, s.Percentage, s.Amount); err != nil {
			return fmt.Errorf("insert share %s for payment %s: %w", s.BeneficiaryCode, paymentID, err)
		}
	}

	return tx.Commit()
}

// ListShares returns the persisted audit trail of one payment.
func (r *DistributionRepository) ListShares(ctx context.Context, paymentID string) ([]ShareRow, error) {
	query := `SELECT beneficiary_code, agent_id, percentage, amount
		FROM distribution_shares WHERE payment_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShareRow
	for rows.Next() {
		var s ShareRow
		var agentID sql.NullInt64
		if err := rows.Scan(&s.BeneficiaryCode, &agentID, &s.Percentage, &s.Amount); err != nil {
			return nil, err
		}
		if agentID.Valid {
			v := agentID.Int64
			s.AgentID = &v
		}
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
