package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"contentieux/internal/domain"
	"contentieux/internal/engine"
	"contentieux/internal/resolver"

	"github.com/shopspring/decimal"
)

// groupUnassigned buckets cases that carry no service or center.
const groupUnassigned = "unassigned"

type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) Contains(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && t.After(p.End) {
		return false
	}
	return true
}

type BeneficiarySource interface {
	Resolve(ctx context.Context, caseID string, at time.Time) (engine.BeneficiarySet, error)
}

type CaseSource interface {
	GetByID(ctx context.Context, id string) (*domain.Case, error)
}

// PooledTotals accumulates the organizational pools over a period.
type PooledTotals struct {
	Collected  decimal.Decimal
	Indicator  decimal.Decimal
	LegalFund  decimal.Decimal
	Treasury   decimal.Decimal
	ChiefsPool decimal.Decimal
	Seizing    decimal.Decimal
	Mutual     decimal.Decimal
	CommonFund decimal.Decimal
	Incentive  decimal.Decimal
}

func (t *PooledTotals) add(res *domain.DistributionResult) {
	t.Collected = t.Collected.Add(res.PaymentAmount)
	t.Indicator = t.Indicator.Add(res.IndicatorShare)
	t.LegalFund = t.LegalFund.Add(res.LegalFundShare)
	t.Treasury = t.Treasury.Add(res.TreasuryShare)
	t.ChiefsPool = t.ChiefsPool.Add(res.ChiefsPool)
	t.Seizing = t.Seizing.Add(res.SeizingPool)
	t.Mutual = t.Mutual.Add(res.MutualShare)
	t.CommonFund = t.CommonFund.Add(res.CommonFundShare)
	t.Incentive = t.Incentive.Add(res.IncentiveShare)
}

// AgentTotals is one beneficiary's accumulated individual shares.
type AgentTotals struct {
	Agent        domain.AgentRef
	ChiefShare   decimal.Decimal
	SeizingShare decimal.Decimal
	Total        decimal.Decimal
	Shares       int
}

// GroupTotals accumulates pools per service or per center, keyed by the
// owning case's attribute.
type GroupTotals struct {
	Key        string
	Collected  decimal.Decimal
	ChiefsPool decimal.Decimal
	Seizing    decimal.Decimal
	Payments   int
}

// PerEntityTotals is one aggregation run: the distribution results arena
// keyed by payment id plus the derived indices every report view reads.
// All views are built from the same arena in a single pass, so their totals
// cannot diverge.
type PerEntityTotals struct {
	Period Period

	Pooled    PooledTotals
	ByAgent   map[int64]*AgentTotals
	ByService map[string]*GroupTotals
	ByCenter  map[string]*GroupTotals
	Results   map[string]*domain.DistributionResult

	Payments int
	Skipped  int
}

// Accumulator folds engine outputs into report totals.
type Accumulator struct {
	engine        *engine.Engine
	beneficiaries BeneficiarySource
	cases         CaseSource
}

func New(eng *engine.Engine, beneficiaries BeneficiarySource, cases CaseSource) *Accumulator {
	return &Accumulator{engine: eng, beneficiaries: beneficiaries, cases: cases}
}

// Accumulate distributes every validated payment of the period and folds the
// results. Summation is commutative, so the input order does not matter.
//
// A malformed payment (missing case, unresolvable actors, invalid amount) is
// logged and skipped; it never aborts the rest of the period. Corrupt
// special-role state is the exception: it taints every distribution of the
// run and is returned to the caller.
func (a *Accumulator) Accumulate(ctx context.Context, period Period, payments []domain.Payment) (*PerEntityTotals, error) {
	totals := &PerEntityTotals{
		Period:    period,
		ByAgent:   make(map[int64]*AgentTotals),
		ByService: make(map[string]*GroupTotals),
		ByCenter:  make(map[string]*GroupTotals),
		Results:   make(map[string]*domain.DistributionResult),
	}

	for _, payment := range payments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !payment.Validated() {
			continue
		}
		if payment.PaymentDate == nil {
			log.Printf("[AGG] payment %s skipped: no payment date", payment.ID)
			totals.Skipped++
			continue
		}
		if !period.Contains(*payment.PaymentDate) {
			continue
		}

		c, res, err := a.distribute(ctx, payment)
		if err != nil {
			if errors.Is(err, resolver.ErrDataIntegrity) {
				return nil, err
			}
			log.Printf("[AGG] payment %s skipped: %v", payment.ID, err)
			totals.Skipped++
			continue
		}

		a.fold(totals, payment, c, res)
	}

	return totals, nil
}

func (a *Accumulator) distribute(ctx context.Context, payment domain.Payment) (*domain.Case, *domain.DistributionResult, error) {
	c, err := a.cases.GetByID(ctx, payment.CaseID)
	if err != nil {
		return nil, nil, fmt.Errorf("case %s: %w", payment.CaseID, err)
	}

	set, err := a.beneficiaries.Resolve(ctx, payment.CaseID, *payment.PaymentDate)
	if err != nil {
		return nil, nil, err
	}

	res, err := a.engine.Distribute(payment.Amount, set)
	if err != nil {
		return nil, nil, err
	}
	return c, res, nil
}

func (a *Accumulator) fold(totals *PerEntityTotals, payment domain.Payment, c *domain.Case, res *domain.DistributionResult) {
	totals.Results[payment.ID] = res
	totals.Payments++
	totals.Pooled.add(res)

	for _, share := range res.IndividualShares {
		agent := totals.ByAgent[share.Beneficiary.ID]
		if agent == nil {
			agent = &AgentTotals{Agent: share.Beneficiary}
			totals.ByAgent[share.Beneficiary.ID] = agent
		}
		switch share.Role {
		case domain.ShareRoleSeizingAgent:
			agent.SeizingShare = agent.SeizingShare.Add(share.Amount)
		default:
			agent.ChiefShare = agent.ChiefShare.Add(share.Amount)
		}
		agent.Total = agent.Total.Add(share.Amount)
		agent.Shares++
	}

	serviceKey, centerKey := groupUnassigned, groupUnassigned
	if c.Service != nil && *c.Service != "" {
		serviceKey = *c.Service
	}
	if c.Center != nil && *c.Center != "" {
		centerKey = *c.Center
	}
	foldGroup(totals.ByService, serviceKey, res)
	foldGroup(totals.ByCenter, centerKey, res)
}

func foldGroup(groups map[string]*GroupTotals, key string, res *domain.DistributionResult) {
	g := groups[key]
	if g == nil {
		g = &GroupTotals{Key: key}
		groups[key] = g
	}
	g.Collected = g.Collected.Add(res.PaymentAmount)
	g.ChiefsPool = g.ChiefsPool.Add(res.ChiefsPool)
	g.Seizing = g.Seizing.Add(res.SeizingPool)
	g.Payments++
}
