package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"contentieux/internal/domain"
)

type PaymentsFilter struct {
	Status          *domain.PaymentStatus
	CaseID          *string
	CollectorID     *int64
	PeriodStartDate *time.Time
	PeriodEndDate   *time.Time
}

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `p.id, p.case_id, p.amount, p.status, p.receipt_number, p.collector_id, p.payment_date, p.created_at, p.updated_at`

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1`

	var p domain.Payment
	var collectorID sql.NullInt64
	var paymentDate sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.CaseID,
		&p.Amount,
		&p.Status,
		&p.ReceiptNumber,
		&collectorID,
		&paymentDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if collectorID.Valid {
		v := collectorID.Int64
		p.CollectorID = &v
	}
	if paymentDate.Valid {
		p.PaymentDate = &paymentDate.Time
	}
	return &p, nil
}

func (r *PaymentRepository) List(ctx context.Context, f PaymentsFilter) ([]domain.Payment, error) {
	base := `SELECT ` + paymentColumns + ` FROM payments p`

	where, args := buildPaymentsWhere(f, 1)
	query := base + " WHERE " + strings.Join(where, " AND ") + " ORDER BY p.payment_date"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		var p domain.Payment
		var collectorID sql.NullInt64
		var paymentDate sql.NullTime
		if err := rows.Scan(
			&p.ID,
			&p.CaseID,
			&p.Amount,
			&p.Status,
			&p.ReceiptNumber,
			&collectorID,
			&paymentDate,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}

		if collectorID.Valid {
			v := collectorID.Int64
			p.CollectorID = &v
		}
		if paymentDate.Valid {
			p.PaymentDate = &paymentDate.Time
		}

		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PaymentRepository) HasMoreThan(ctx context.Context, limit int64, f PaymentsFilter) (bool, error) {
	where, args := buildPaymentsWhere(f, 2)
	args = append([]any{limit}, args...)

	query := `SELECT COUNT(*) > $1 FROM payments p WHERE ` + strings.Join(where, " AND ")

	var tooMany bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&tooMany); err != nil {
		return false, err
	}
	return tooMany, nil
}

func buildPaymentsWhere(f PaymentsFilter, start int) ([]string, []any) {
	where := []string{"1=1"}
	args := []any{}
	i := start

	if f.Status != nil {
		where = append(where, fmt.Sprintf("p.status = $%d", i))
		args = append(args, string(*f.Status))
		i++
	}
	if f.CaseID != nil && *f.CaseID != "" {
		where = append(where, fmt.Sprintf("p.case_id = $%d", i))
		args = append(args, *f.CaseID)
		i++
	}
	if f.CollectorID != nil {
		where = append(where, fmt.Sprintf("p.collector_id = $%d", i))
		args = append(args, *f.CollectorID)
		i++
	}
	if f.PeriodStartDate != nil {
		where = append(where, fmt.Sprintf("p.payment_date >= $%d", i))
		args = append(args, *f.PeriodStartDate)
		i++
	}
	if f.PeriodEndDate != nil {
		where = append(where, fmt.Sprintf("p.payment_date <= $%d", i))
		args = append(args, *f.PeriodEndDate)
		i++
	}

	return where, args
}
