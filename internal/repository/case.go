package repository

import (
	"context"
	"database/sql"

	"contentieux/internal/domain"
)

type CaseRepository struct {
	db *sql.DB
}

func NewCaseRepository(db *sql.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	query := `SELECT c.id, c.number, c.fine_amount, c.offender_name, c.service, c.center, c.opened_at, c.created_at, c.updated_at
		FROM cases c WHERE c.id = $1`

	var c domain.Case
	var openedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Number,
		&c.FineAmount,
		&c.Offender,
		&c.Service,
		&c.Center,
		&openedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if openedAt.Valid {
		c.OpenedAt = &openedAt.Time
	}
	return &c, nil
}

// ListActorAssignments returns the case's actor assignments with the agent
// identity joined in, so reports never need a second lookup per beneficiary.
func (r *CaseRepository) ListActorAssignments(ctx context.Context, caseID string) ([]domain.ActorAssignment, error) {
	query := `SELECT aa.case_id, aa.agent_id, aa.role, a.first_name, a.last_name, a.service, a.center, aa.created_at
		FROM actor_assignments aa
		JOIN agents a ON a.id = aa.agent_id
		WHERE aa.case_id = $1
		ORDER BY aa.agent_id`

	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActorAssignment
	for rows.Next() {
		var aa domain.ActorAssignment
		if err := rows.Scan(
			&aa.CaseID,
			&aa.AgentID,
			&aa.Role,
			&aa.AgentFirstName,
			&aa.AgentLastName,
			&aa.AgentService,
			&aa.AgentCenter,
			&aa.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, aa)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
