package domain

import "time"

// AgentRef identifies a beneficiary without dragging the full agent record
// through the distribution pipeline.
type AgentRef struct {
	ID       int64
	FullName string
	Service  *string
	Center   *string
}

// SpecialRole is an organization-wide role. Unlike case roles it is not
// scoped to a single case: its active holder joins the chiefs pool of every
// distribution.
type SpecialRole string

const (
	RoleDirectorGeneral      SpecialRole = "dg"
	RoleDepartmentalDirector SpecialRole = "dd"
)

// SpecialRoleAssignment is one activation window of a special role.
// At most one assignment per role may be active at a given instant; the
// resolver treats anything else as corrupt state.
type SpecialRoleAssignment struct {
	Role       SpecialRole
	AgentID    int64
	ActiveFrom time.Time
	ActiveTo   *time.Time

	AgentFirstName *string
	AgentLastName  *string
	AgentService   *string
	AgentCenter    *string
}

func (a SpecialRoleAssignment) ActiveAt(t time.Time) bool {
	if t.Before(a.ActiveFrom) {
		return false
	}
	return a.ActiveTo == nil || !t.After(*a.ActiveTo)
}

func (a SpecialRoleAssignment) AgentRef() AgentRef {
	return AgentRef{
		ID:       a.AgentID,
		FullName: joinName(a.AgentFirstName, a.AgentLastName),
		Service:  a.AgentService,
		Center:   a.AgentCenter,
	}
}
