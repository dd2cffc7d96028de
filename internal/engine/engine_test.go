package engine

import (
	"errors"
	"reflect"
	"testing"

	"contentieux/internal/domain"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func chief(id int64) Beneficiary {
	return Beneficiary{Agent: domain.AgentRef{ID: id}, Role: domain.ShareRoleChief}
}

func seizing(id int64) Beneficiary {
	return Beneficiary{Agent: domain.AgentRef{ID: id}, Role: domain.ShareRoleSeizingAgent}
}

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultPolicy())
	if err != nil {
		t.Fatalf("engine init: %v", err)
	}
	return e
}

func TestDistribute_RegulatoryScenario(t *testing.T) {
	e := mustEngine(t)

	res, err := e.Distribute(d("1000000"), BeneficiarySet{})
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"indicator", res.IndicatorShare, "100000"},
		{"net product", res.NetProduct, "900000"},
		{"legal fund", res.LegalFundShare, "90000"},
		{"treasury", res.TreasuryShare, "135000"},
		{"entitled net product", res.EntitledNetProduct, "675000"},
		{"chiefs pool", res.ChiefsPool, "101250"},
		{"seizing pool", res.SeizingPool, "236250"},
		{"mutual", res.MutualShare, "33750"},
		{"common fund", res.CommonFundShare, "202500"},
		{"incentive", res.IncentiveShare, "101250"},
	}
	for _, c := range checks {
		if !c.got.Equal(d(c.want)) {
			t.Errorf("%s: expected %s, got %s", c.name, c.want, c.got)
		}
	}

	if !res.PooledSum().Equal(d("1000000")) {
		t.Fatalf("pooled sum: expected 1000000, got %s", res.PooledSum())
	}
}

func TestDistribute_IndividualShares(t *testing.T) {
	e := mustEngine(t)

	// 2 case chiefs plus an active DG split the chiefs pool three ways;
	// 3 seizing agents split the seizing pool.
	set := BeneficiarySet{
		ChiefsPool: []Beneficiary{
			chief(1),
			chief(2),
			{Agent: domain.AgentRef{ID: 3}, Role: domain.ShareRoleDG},
		},
		SeizingAgents: []Beneficiary{seizing(4), seizing(5), seizing(6)},
	}

	res, err := e.Distribute(d("1000000"), set)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	if len(res.IndividualShares) != 6 {
		t.Fatalf("expected 6 individual shares, got %d", len(res.IndividualShares))
	}

	for _, share := range res.IndividualShares[:3] {
		if !share.Amount.Equal(d("33750")) {
			t.Errorf("chiefs pool share for agent %d: expected 33750, got %s", share.Beneficiary.ID, share.Amount)
		}
	}
	if res.IndividualShares[2].Role != domain.ShareRoleDG {
		t.Errorf("expected DG share third, got role %s", res.IndividualShares[2].Role)
	}
	for _, share := range res.IndividualShares[3:] {
		if !share.Amount.Equal(d("78750")) {
			t.Errorf("seizing share for agent %d: expected 78750, got %s", share.Beneficiary.ID, share.Amount)
		}
		if share.Role != domain.ShareRoleSeizingAgent {
			t.Errorf("expected seizing role, got %s", share.Role)
		}
	}
}

func TestDistribute_EmptyBeneficiaries(t *testing.T) {
	e := mustEngine(t)

	res, err := e.Distribute(d("5000"), BeneficiarySet{})
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	// Pools are still computed and retained; nobody gets an individual cut.
	if res.ChiefsPool.IsZero() || res.SeizingPool.IsZero() {
		t.Fatalf("pools should be retained: chiefs=%s seizing=%s", res.ChiefsPool, res.SeizingPool)
	}
	if len(res.IndividualShares) != 0 {
		t.Fatalf("expected no individual shares, got %d", len(res.IndividualShares))
	}
}

func TestDistribute_ZeroAmount(t *testing.T) {
	e := mustEngine(t)

	res, err := e.Distribute(decimal.Zero, BeneficiarySet{
		ChiefsPool:    []Beneficiary{chief(1)},
		SeizingAgents: []Beneficiary{seizing(2)},
	})
	if err != nil {
		t.Fatalf("zero amount must not fail: %v", err)
	}

	if !res.PooledSum().IsZero() {
		t.Fatalf("expected zero pooled sum, got %s", res.PooledSum())
	}
	for _, share := range res.IndividualShares {
		if !share.Amount.IsZero() {
			t.Fatalf("expected zero share for agent %d, got %s", share.Beneficiary.ID, share.Amount)
		}
	}
}

func TestDistribute_NegativeAmount(t *testing.T) {
	e := mustEngine(t)

	res, err := e.Distribute(d("-0.01"), BeneficiarySet{})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if res != nil {
		t.Fatal("no result must be produced for a rejected amount")
	}
}

func TestDistribute_PooledSumWithinTolerance(t *testing.T) {
	e := mustEngine(t)

	// 8 rounding steps are applied; allow one minor unit each.
	tolerance := d("0.08")

	amounts := []string{
		"0.01", "0.07", "1", "33.33", "100.01", "999.99",
		"12345.67", "123456.78", "999999.99", "7777777.77",
	}
	for _, raw := range amounts {
		amount := d(raw)
		res, err := e.Distribute(amount, BeneficiarySet{})
		if err != nil {
			t.Fatalf("distribute %s: %v", raw, err)
		}
		diff := res.PooledSum().Sub(amount).Abs()
		if diff.GreaterThan(tolerance) {
			t.Errorf("amount %s: pooled sum %s drifts by %s", raw, res.PooledSum(), diff)
		}
	}
}

func TestDistribute_Deterministic(t *testing.T) {
	e := mustEngine(t)

	set := BeneficiarySet{
		ChiefsPool:    []Beneficiary{chief(1), chief(2)},
		SeizingAgents: []Beneficiary{seizing(3)},
	}

	first, err := e.Distribute(d("98765.43"), set)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	second, err := e.Distribute(d("98765.43"), set)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs must produce identical results")
	}
}

func TestPolicy_Validate(t *testing.T) {
	bad := DefaultPolicy()
	bad.TreasuryPct = d("1.5")
	if _, err := New(bad); err == nil {
		t.Fatal("expected out-of-range rate to be rejected")
	}

	unbalanced := DefaultPolicy()
	unbalanced.ChiefsPct = d("0.20")
	if _, err := New(unbalanced); err == nil {
		t.Fatal("expected unbalanced entitled split to be rejected")
	}

	if _, err := New(DefaultPolicy()); err != nil {
		t.Fatalf("default policy must validate: %v", err)
	}
}
