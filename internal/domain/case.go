package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Case is a litigation file (affaire) with a fine to collect.
type Case struct {
	ID         string
	Number     string
	FineAmount decimal.Decimal
	Offender   *string
	Service    *string
	Center     *string
	OpenedAt   *time.Time

	CreatedAt *time.Time
	UpdatedAt *time.Time
}

type CaseRole string

const (
	RoleChief        CaseRole = "chief"
	RoleSeizingAgent CaseRole = "seizing_agent"
)

// ActorAssignment links an agent to a case under a case-scoped role.
// Several agents may hold the same role on one case.
type ActorAssignment struct {
	CaseID  string
	AgentID int64
	Role    CaseRole

	AgentFirstName *string
	AgentLastName  *string
	AgentService   *string
	AgentCenter    *string

	CreatedAt *time.Time
}

func (a ActorAssignment) AgentRef() AgentRef {
	return AgentRef{
		ID:       a.AgentID,
		FullName: joinName(a.AgentFirstName, a.AgentLastName),
		Service:  a.AgentService,
		Center:   a.AgentCenter,
	}
}

func joinName(first, last *string) string {
	switch {
	case first != nil && last != nil:
		return *first + " " + *last
	case first != nil:
		return *first
	case last != nil:
		return *last
	default:
		return ""
	}
}
