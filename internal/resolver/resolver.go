package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contentieux/internal/domain"
	"contentieux/internal/engine"
)

// ErrDataIntegrity reports corrupt special-role state (more than one active
// holder). The resolver never picks a winner on its own.
var ErrDataIntegrity = errors.New("special role integrity violation")

type AssignmentStore interface {
	ListActorAssignments(ctx context.Context, caseID string) ([]domain.ActorAssignment, error)
}

type SpecialRoleStore interface {
	ActiveAssignments(ctx context.Context, role domain.SpecialRole, at time.Time) ([]domain.SpecialRoleAssignment, error)
}

// Resolver projects case assignments and special-role state into the
// beneficiary set the engine consumes. It is read-only and safe for
// concurrent use.
type Resolver struct {
	assignments AssignmentStore
	specials    SpecialRoleStore
}

func New(assignments AssignmentStore, specials SpecialRoleStore) *Resolver {
	return &Resolver{assignments: assignments, specials: specials}
}

type CaseActors struct {
	Chiefs        []domain.AgentRef
	SeizingAgents []domain.AgentRef
}

// ResolveCaseActors returns the chiefs and seizing agents assigned to a
// case. A case with no assignments yields empty lists, not an error.
func (r *Resolver) ResolveCaseActors(ctx context.Context, caseID string) (CaseActors, error) {
	rows, err := r.assignments.ListActorAssignments(ctx, caseID)
	if err != nil {
		return CaseActors{}, fmt.Errorf("list actor assignments for case %s: %w", caseID, err)
	}

	var actors CaseActors
	for _, row := range rows {
		switch row.Role {
		case domain.RoleChief:
			actors.Chiefs = append(actors.Chiefs, row.AgentRef())
		case domain.RoleSeizingAgent:
			actors.SeizingAgents = append(actors.SeizingAgents, row.AgentRef())
		}
	}
	return actors, nil
}

// ResolveActiveSpecialRole returns the agent holding role at the given
// instant, or nil when the seat is vacant. Finding more than one active
// holder is a stored-data defect and fails with ErrDataIntegrity.
func (r *Resolver) ResolveActiveSpecialRole(ctx context.Context, role domain.SpecialRole, at time.Time) (*domain.AgentRef, error) {
	rows, err := r.specials.ActiveAssignments(ctx, role, at)
	if err != nil {
		return nil, fmt.Errorf("active assignments for role %s: %w", role, err)
	}

	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		ref := rows[0].AgentRef()
		return &ref, nil
	default:
		return nil, fmt.Errorf("%w: role %s has %d active holders", ErrDataIntegrity, role, len(rows))
	}
}

// Resolve builds the full beneficiary set for one distribution: the case
// chiefs joined by whoever holds DG and DD at the reference instant, plus
// the case's seizing agents.
func (r *Resolver) Resolve(ctx context.Context, caseID string, at time.Time) (engine.BeneficiarySet, error) {
	actors, err := r.ResolveCaseActors(ctx, caseID)
	if err != nil {
		return engine.BeneficiarySet{}, err
	}

	var set engine.BeneficiarySet
	inChiefsPool := make(map[int64]bool)
	for _, ref := range actors.Chiefs {
		if inChiefsPool[ref.ID] {
			continue
		}
		inChiefsPool[ref.ID] = true
		set.ChiefsPool = append(set.ChiefsPool, engine.Beneficiary{Agent: ref, Role: domain.ShareRoleChief})
	}

	special := []struct {
		role  domain.SpecialRole
		share domain.ShareRole
	}{
		{domain.RoleDirectorGeneral, domain.ShareRoleDG},
		{domain.RoleDepartmentalDirector, domain.ShareRoleDD},
	}
	for _, s := range special {
		holder, err := r.ResolveActiveSpecialRole(ctx, s.role, at)
		if err != nil {
			return engine.BeneficiarySet{}, err
		}
		// The pool is a union: an agent who is both a case chief and a
		// special role holder gets exactly one entry, under the role that
		// put them in first.
		if holder != nil && !inChiefsPool[holder.ID] {
			inChiefsPool[holder.ID] = true
			set.ChiefsPool = append(set.ChiefsPool, engine.Beneficiary{Agent: *holder, Role: s.share})
		}
	}

	for _, ref := range actors.SeizingAgents {
		set.SeizingAgents = append(set.SeizingAgents, engine.Beneficiary{Agent: ref, Role: domain.ShareRoleSeizingAgent})
	}

	return set, nil
}
