package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Policy carries the regulatory distribution rates. Rates are configuration,
// not code: a decree changing a percentage must not touch the cascade.
//
// IndicatorPct applies to the gross amount; LegalFundPct and TreasuryPct to
// the net product; the remaining five split the entitled net product and
// must sum to exactly 1.
type Policy struct {
	IndicatorPct decimal.Decimal
	LegalFundPct decimal.Decimal
	TreasuryPct  decimal.Decimal

	ChiefsPct     decimal.Decimal
	SeizingPct    decimal.Decimal
	MutualPct     decimal.Decimal
	CommonFundPct decimal.Decimal
	IncentivePct  decimal.Decimal
}

// DefaultPolicy returns the rates currently mandated by regulation:
// 10% indicator, 10% legal fund, 15% treasury, then 15/35/5/30/15 over the
// entitled net product.
func DefaultPolicy() Policy {
	return Policy{
		IndicatorPct:  decimal.NewFromFloat(0.10),
		LegalFundPct:  decimal.NewFromFloat(0.10),
		TreasuryPct:   decimal.NewFromFloat(0.15),
		ChiefsPct:     decimal.NewFromFloat(0.15),
		SeizingPct:    decimal.NewFromFloat(0.35),
		MutualPct:     decimal.NewFromFloat(0.05),
		CommonFundPct: decimal.NewFromFloat(0.30),
		IncentivePct:  decimal.NewFromFloat(0.15),
	}
}

var one = decimal.NewFromInt(1)

func (p Policy) Validate() error {
	rates := map[string]decimal.Decimal{
		"indicator":   p.IndicatorPct,
		"legal_fund":  p.LegalFundPct,
		"treasury":    p.TreasuryPct,
		"chiefs":      p.ChiefsPct,
		"seizing":     p.SeizingPct,
		"mutual":      p.MutualPct,
		"common_fund": p.CommonFundPct,
		"incentive":   p.IncentivePct,
	}
	for name, rate := range rates {
		if rate.IsNegative() || rate.GreaterThan(one) {
			return fmt.Errorf("policy rate %s out of range: %s", name, rate)
		}
	}

	if p.LegalFundPct.Add(p.TreasuryPct).GreaterThanOrEqual(one) {
		return fmt.Errorf("legal fund and treasury rates leave no entitled net product")
	}

	entitled := p.ChiefsPct.
		Add(p.SeizingPct).
		Add(p.MutualPct).
		Add(p.CommonFundPct).
		Add(p.IncentivePct)
	if !entitled.Equal(one) {
		return fmt.Errorf("entitled net product split must sum to 1, got %s", entitled)
	}

	return nil
}
