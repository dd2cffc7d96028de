package domain

import "github.com/shopspring/decimal"

// ShareRole says in which capacity a beneficiary received an individual
// share. DG and DD take theirs from the chiefs pool alongside case chiefs.
type ShareRole string

const (
	ShareRoleChief        ShareRole = "chief"
	ShareRoleSeizingAgent ShareRole = "seizing_agent"
	ShareRoleDG           ShareRole = "dg"
	ShareRoleDD           ShareRole = "dd"
)

// IndividualShare is one named beneficiary's cut of a pooled share.
type IndividualShare struct {
	Beneficiary AgentRef
	Role        ShareRole
	Amount      decimal.Decimal
}

// DistributionResult is the complete breakdown of one payment. It is
// produced once by the engine and never mutated afterwards; aggregation and
// audit persistence only read it.
type DistributionResult struct {
	PaymentAmount decimal.Decimal

	IndicatorShare     decimal.Decimal
	NetProduct         decimal.Decimal
	LegalFundShare     decimal.Decimal
	TreasuryShare      decimal.Decimal
	EntitledNetProduct decimal.Decimal

	ChiefsPool      decimal.Decimal
	SeizingPool     decimal.Decimal
	MutualShare     decimal.Decimal
	CommonFundShare decimal.Decimal
	IncentiveShare  decimal.Decimal

	IndividualShares []IndividualShare
}

// PooledSum is the sum of the eight pooled shares. It must equal the payment
// amount within one minor currency unit per rounding step applied.
func (r *DistributionResult) PooledSum() decimal.Decimal {
	return r.IndicatorShare.
		Add(r.LegalFundShare).
		Add(r.TreasuryShare).
		Add(r.ChiefsPool).
		Add(r.SeizingPool).
		Add(r.MutualShare).
		Add(r.CommonFundShare).
		Add(r.IncentiveShare)
}
