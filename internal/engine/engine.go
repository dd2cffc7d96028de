package engine

import (
	"errors"
	"fmt"

	"contentieux/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount rejects a calculation before it starts. It is the only
// engine-level failure; beneficiary problems belong to the resolver.
var ErrInvalidAmount = errors.New("invalid payment amount")

// Beneficiary is one eligible recipient inside a pool.
type Beneficiary struct {
	Agent domain.AgentRef
	Role  domain.ShareRole
}

// BeneficiarySet is the resolved input of one distribution.
//
// ChiefsPool already contains the union of the case chiefs and the active
// DG/DD holders; the engine does not know special roles exist. Either slice
// may be empty: the pooled amount is still computed, it just stays
// unattributed.
type BeneficiarySet struct {
	ChiefsPool    []Beneficiary
	SeizingAgents []Beneficiary
}

// Engine computes revenue distributions. It is pure and holds no mutable
// state, so a single instance may be shared across goroutines.
type Engine struct {
	policy Policy
}

func New(policy Policy) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Engine{policy: policy}, nil
}

// Policy returns the rates this engine applies; audit rows record them next
// to every computed amount.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Distribute runs the regulatory cascade over amount.
//
// Every multiplication is rounded to 2 decimal places before feeding the
// next step, so two independent runs over the same inputs produce
// bit-for-bit identical results. The cascade:
//
//	indicator           = amount × IndicatorPct
//	netProduct          = amount − indicator
//	legalFund           = netProduct × LegalFundPct
//	treasury            = netProduct × TreasuryPct
//	entitledNetProduct  = netProduct − legalFund − treasury
//	chiefs/seizing/mutual/commonFund/incentive = entitledNetProduct × rate
//
// The chiefs and seizing pools are then divided equally among their
// beneficiaries. A negative amount fails with ErrInvalidAmount; zero
// produces an all-zero result.
func (e *Engine) Distribute(amount decimal.Decimal, b BeneficiarySet) (*domain.DistributionResult, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	indicator := step(amount, e.policy.IndicatorPct)
	netProduct := amount.Sub(indicator)

	legalFund := step(netProduct, e.policy.LegalFundPct)
	treasury := step(netProduct, e.policy.TreasuryPct)
	entitled := netProduct.Sub(legalFund).Sub(treasury)

	chiefsPool := step(entitled, e.policy.ChiefsPct)
	seizingPool := step(entitled, e.policy.SeizingPct)
	mutual := step(entitled, e.policy.MutualPct)
	commonFund := step(entitled, e.policy.CommonFundPct)
	incentive := step(entitled, e.policy.IncentivePct)

	shares := make([]domain.IndividualShare, 0, len(b.ChiefsPool)+len(b.SeizingAgents))
	shares = append(shares, equalSplit(chiefsPool, b.ChiefsPool)...)
	shares = append(shares, equalSplit(seizingPool, b.SeizingAgents)...)

	return &domain.DistributionResult{
		PaymentAmount:      amount,
		IndicatorShare:     indicator,
		NetProduct:         netProduct,
		LegalFundShare:     legalFund,
		TreasuryShare:      treasury,
		EntitledNetProduct: entitled,
		ChiefsPool:         chiefsPool,
		SeizingPool:        seizingPool,
		MutualShare:        mutual,
		CommonFundShare:    commonFund,
		IncentiveShare:     incentive,
		IndividualShares:   shares,
	}, nil
}

// step is one cascading multiplication, rounded to minor currency units.
func step(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Round(2)
}

// equalSplit divides pool equally among members. An empty member list yields
// no shares: the pooled amount stays with the organization, unattributed.
func equalSplit(pool decimal.Decimal, members []Beneficiary) []domain.IndividualShare {
	if len(members) == 0 {
		return nil
	}

	per := pool.DivRound(decimal.NewFromInt(int64(len(members))), 2)

	shares := make([]domain.IndividualShare, 0, len(members))
	for _, m := range members {
		shares = append(shares, domain.IndividualShare{
			Beneficiary: m.Agent,
			Role:        m.Role,
			Amount:      per,
		})
	}
	return shares
}
