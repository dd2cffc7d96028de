package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"contentieux/internal/domain"
)

type fakeAssignments struct {
	rows map[string][]domain.ActorAssignment
	err  error
}

func (f *fakeAssignments) ListActorAssignments(_ context.Context, caseID string) ([]domain.ActorAssignment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[caseID], nil
}

type fakeSpecials struct {
	rows map[domain.SpecialRole][]domain.SpecialRoleAssignment
}

func (f *fakeSpecials) ActiveAssignments(_ context.Context, role domain.SpecialRole, at time.Time) ([]domain.SpecialRoleAssignment, error) {
	var active []domain.SpecialRoleAssignment
	for _, row := range f.rows[role] {
		if row.ActiveAt(at) {
			active = append(active, row)
		}
	}
	return active, nil
}

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func assignment(caseID string, agentID int64, role domain.CaseRole) domain.ActorAssignment {
	return domain.ActorAssignment{CaseID: caseID, AgentID: agentID, Role: role}
}

func specialWindow(role domain.SpecialRole, agentID int64, from time.Time, to *time.Time) domain.SpecialRoleAssignment {
	return domain.SpecialRoleAssignment{Role: role, AgentID: agentID, ActiveFrom: from, ActiveTo: to}
}

func TestResolveCaseActors(t *testing.T) {
	r := New(&fakeAssignments{rows: map[string][]domain.ActorAssignment{
		"aff-1": {
			assignment("aff-1", 1, domain.RoleChief),
			assignment("aff-1", 2, domain.RoleChief),
			assignment("aff-1", 3, domain.RoleSeizingAgent),
		},
	}}, &fakeSpecials{})

	actors, err := r.ResolveCaseActors(context.Background(), "aff-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(actors.Chiefs) != 2 || len(actors.SeizingAgents) != 1 {
		t.Fatalf("expected 2 chiefs / 1 seizing agent, got %d / %d", len(actors.Chiefs), len(actors.SeizingAgents))
	}
}

func TestResolveCaseActors_NoAssignments(t *testing.T) {
	r := New(&fakeAssignments{rows: map[string][]domain.ActorAssignment{}}, &fakeSpecials{})

	actors, err := r.ResolveCaseActors(context.Background(), "aff-empty")
	if err != nil {
		t.Fatalf("unassigned case must not be an error: %v", err)
	}
	if len(actors.Chiefs) != 0 || len(actors.SeizingAgents) != 0 {
		t.Fatal("expected empty actor lists")
	}
}

func TestResolveActiveSpecialRole(t *testing.T) {
	past := now.AddDate(-1, 0, 0)
	ended := now.AddDate(0, -1, 0)

	r := New(&fakeAssignments{}, &fakeSpecials{rows: map[domain.SpecialRole][]domain.SpecialRoleAssignment{
		domain.RoleDirectorGeneral: {
			specialWindow(domain.RoleDirectorGeneral, 7, past, &ended),
			specialWindow(domain.RoleDirectorGeneral, 8, ended.AddDate(0, 0, 1), nil),
		},
	}})

	holder, err := r.ResolveActiveSpecialRole(context.Background(), domain.RoleDirectorGeneral, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if holder == nil || holder.ID != 8 {
		t.Fatalf("expected current holder 8, got %+v", holder)
	}

	vacant, err := r.ResolveActiveSpecialRole(context.Background(), domain.RoleDepartmentalDirector, now)
	if err != nil {
		t.Fatalf("vacant seat must not be an error: %v", err)
	}
	if vacant != nil {
		t.Fatalf("expected no holder, got %+v", vacant)
	}
}

func TestResolveActiveSpecialRole_MultipleHolders(t *testing.T) {
	past := now.AddDate(-1, 0, 0)

	r := New(&fakeAssignments{}, &fakeSpecials{rows: map[domain.SpecialRole][]domain.SpecialRoleAssignment{
		domain.RoleDirectorGeneral: {
			specialWindow(domain.RoleDirectorGeneral, 7, past, nil),
			specialWindow(domain.RoleDirectorGeneral, 8, past, nil),
		},
	}})

	_, err := r.ResolveActiveSpecialRole(context.Background(), domain.RoleDirectorGeneral, now)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity, got %v", err)
	}
}

func TestResolve_UnionWithSpecialRoles(t *testing.T) {
	past := now.AddDate(-1, 0, 0)

	r := New(
		&fakeAssignments{rows: map[string][]domain.ActorAssignment{
			"aff-1": {
				assignment("aff-1", 1, domain.RoleChief),
				assignment("aff-1", 2, domain.RoleChief),
				assignment("aff-1", 3, domain.RoleSeizingAgent),
				assignment("aff-1", 4, domain.RoleSeizingAgent),
			},
		}},
		&fakeSpecials{rows: map[domain.SpecialRole][]domain.SpecialRoleAssignment{
			domain.RoleDirectorGeneral: {specialWindow(domain.RoleDirectorGeneral, 9, past, nil)},
		}},
	)

	set, err := r.Resolve(context.Background(), "aff-1", now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// 2 chiefs + active DG, DD seat vacant.
	if len(set.ChiefsPool) != 3 {
		t.Fatalf("expected chiefs pool of 3, got %d", len(set.ChiefsPool))
	}
	last := set.ChiefsPool[2]
	if last.Agent.ID != 9 || last.Role != domain.ShareRoleDG {
		t.Fatalf("expected DG holder 9 in chiefs pool, got %+v", last)
	}
	if len(set.SeizingAgents) != 2 {
		t.Fatalf("expected 2 seizing agents, got %d", len(set.SeizingAgents))
	}
}

func TestResolve_ChiefHoldingSpecialRoleCountedOnce(t *testing.T) {
	past := now.AddDate(-1, 0, 0)

	// Agent 7 is both a case chief and the active DG; agent 8 holds DD and
	// is not on the case.
	r := New(
		&fakeAssignments{rows: map[string][]domain.ActorAssignment{
			"aff-1": {
				assignment("aff-1", 7, domain.RoleChief),
				assignment("aff-1", 1, domain.RoleChief),
			},
		}},
		&fakeSpecials{rows: map[domain.SpecialRole][]domain.SpecialRoleAssignment{
			domain.RoleDirectorGeneral:      {specialWindow(domain.RoleDirectorGeneral, 7, past, nil)},
			domain.RoleDepartmentalDirector: {specialWindow(domain.RoleDepartmentalDirector, 8, past, nil)},
		}},
	)

	set, err := r.Resolve(context.Background(), "aff-1", now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Union semantics: {7, 1} ∪ {7} ∪ {8} = three entries, one per agent.
	if len(set.ChiefsPool) != 3 {
		t.Fatalf("expected chiefs pool of 3, got %d", len(set.ChiefsPool))
	}
	seen := make(map[int64]int)
	for _, b := range set.ChiefsPool {
		seen[b.Agent.ID]++
	}
	if seen[7] != 1 {
		t.Fatalf("agent 7 appears %d times in chiefs pool, expected exactly once", seen[7])
	}
	// The chief assignment was encountered first, so that role sticks.
	for _, b := range set.ChiefsPool {
		if b.Agent.ID == 7 && b.Role != domain.ShareRoleChief {
			t.Fatalf("expected agent 7 kept under the chief role, got %s", b.Role)
		}
	}
}

func TestResolve_PropagatesIntegrityError(t *testing.T) {
	past := now.AddDate(-1, 0, 0)

	r := New(
		&fakeAssignments{rows: map[string][]domain.ActorAssignment{}},
		&fakeSpecials{rows: map[domain.SpecialRole][]domain.SpecialRoleAssignment{
			domain.RoleDepartmentalDirector: {
				specialWindow(domain.RoleDepartmentalDirector, 7, past, nil),
				specialWindow(domain.RoleDepartmentalDirector, 8, past, nil),
			},
		}},
	)

	_, err := r.Resolve(context.Background(), "aff-1", now)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity, got %v", err)
	}
}
