package repository

import (
	"context"
	"database/sql"
	"time"

	"contentieux/internal/domain"
)

// SpecialRoleRepository reads the owned table of DG/DD activation windows.
// It returns every row active at the reference instant; single-holder
// enforcement is the resolver's job, not a LIMIT 1 here.
type SpecialRoleRepository struct {
	db *sql.DB
}

func NewSpecialRoleRepository(db *sql.DB) *SpecialRoleRepository {
	return &SpecialRoleRepository{db: db}
}

func (r *SpecialRoleRepository) ActiveAssignments(ctx context.Context, role domain.SpecialRole, at time.Time) ([]domain.SpecialRoleAssignment, error) {
	query := `SELECT sr.role, sr.agent_id, sr.active_from, sr.active_to, a.first_name, a.last_name, a.service, a.center
		FROM special_role_assignments sr
		JOIN agents a ON a.id = sr.agent_id
		WHERE sr.role = $1
		  AND sr.active_from <= $2
		  AND (sr.active_to IS NULL OR sr.active_to >= $2)
		ORDER BY sr.active_from`

	rows, err := r.db.QueryContext(ctx, query, string(role), at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SpecialRoleAssignment
	for rows.Next() {
		var sr domain.SpecialRoleAssignment
		var activeTo sql.NullTime
		if err := rows.Scan(
			&sr.Role,
			&sr.AgentID,
			&sr.ActiveFrom,
			&activeTo,
			&sr.AgentFirstName,
			&sr.AgentLastName,
			&sr.AgentService,
			&sr.AgentCenter,
		); err != nil {
			return nil, err
		}
		if activeTo.Valid {
			sr.ActiveTo = &activeTo.Time
		}
		out = append(out, sr)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
