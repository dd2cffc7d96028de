package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contentieux/internal/domain"
	"contentieux/internal/engine"
	"contentieux/internal/repository"

	"github.com/shopspring/decimal"
)

var ErrPaymentNotValidated = errors.New("payment is not validated")

type PaymentStore interface {
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
}

type CaseStore interface {
	GetByID(ctx context.Context, id string) (*domain.Case, error)
}

type BeneficiaryResolver interface {
	Resolve(ctx context.Context, caseID string, at time.Time) (engine.BeneficiarySet, error)
}

type AuditStore interface {
	SaveShares(ctx context.Context, paymentID string, shares []repository.ShareRow) error
}

// DistributionService runs the engine for single payments: previews for the
// cashier screen and the validated-payment path that leaves an audit trail.
type DistributionService struct {
	payments PaymentStore
	cases    CaseStore
	resolver BeneficiaryResolver
	engine   *engine.Engine
	audit    AuditStore
}

func NewDistributionService(payments PaymentStore, cases CaseStore, resolver BeneficiaryResolver, eng *engine.Engine, audit AuditStore) *DistributionService {
	return &DistributionService{
		payments: payments,
		cases:    cases,
		resolver: resolver,
		engine:   eng,
		audit:    audit,
	}
}

// Preview computes the breakdown an amount would produce against a case,
// without touching any stored state.
func (s *DistributionService) Preview(ctx context.Context, caseID string, amount decimal.Decimal, at time.Time) (*domain.DistributionResult, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, fmt.Errorf("case %s: %w", caseID, err)
	}
	if at.IsZero() {
		at = time.Now()
	}

	set, err := s.resolver.Resolve(ctx, caseID, at)
	if err != nil {
		return nil, err
	}

	return s.engine.Distribute(amount, set)
}

// DistributePayment runs the distribution of one validated payment and
// replaces its audit rows. Beneficiaries are resolved as of the payment
// date, so re-running months later reproduces the original breakdown.
func (s *DistributionService) DistributePayment(ctx context.Context, paymentID string) (*domain.DistributionResult, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", paymentID, err)
	}
	if !payment.Validated() {
		return nil, fmt.Errorf("%w: payment %s has status %s", ErrPaymentNotValidated, paymentID, payment.Status)
	}

	at := time.Now()
	if payment.PaymentDate != nil {
		at = *payment.PaymentDate
	}

	set, err := s.resolver.Resolve(ctx, payment.CaseID, at)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Distribute(payment.Amount, set)
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		if err := s.audit.SaveShares(ctx, paymentID, auditRows(s.engine.Policy(), res)); err != nil {
			return nil, fmt.Errorf("persist distribution of payment %s: %w", paymentID, err)
		}
	}

	return res, nil
}

// auditRows flattens a result into the persisted shape: one row per pooled
// destination plus one row per individual beneficiary, each carrying the
// rate that produced it.
func auditRows(policy engine.Policy, res *domain.DistributionResult) []repository.ShareRow {
	rows := []repository.ShareRow{
		{BeneficiaryCode: "indicator", Percentage: policy.IndicatorPct, Amount: res.IndicatorShare},
		{BeneficiaryCode: "legal_fund", Percentage: policy.LegalFundPct, Amount: res.LegalFundShare},
		{BeneficiaryCode: "treasury", Percentage: policy.TreasuryPct, Amount: res.TreasuryShare},
		{BeneficiaryCode: "chiefs_pool", Percentage: policy.ChiefsPct, Amount: res.ChiefsPool},
		{BeneficiaryCode: "seizing_pool", Percentage: policy.SeizingPct, Amount: res.SeizingPool},
		{BeneficiaryCode: "mutual", Percentage: policy.MutualPct, Amount: res.MutualShare},
		{BeneficiaryCode: "common_fund", Percentage: policy.CommonFundPct, Amount: res.CommonFundShare},
		{BeneficiaryCode: "incentive", Percentage: policy.IncentivePct, Amount: res.IncentiveShare},
	}

	for _, share := range res.IndividualShares {
		rate := policy.ChiefsPct
		if share.Role == domain.ShareRoleSeizingAgent {
			rate = policy.SeizingPct
		}
		agentID := share.Beneficiary.ID
		rows = append(rows, repository.ShareRow{
			BeneficiaryCode: string(share.Role),
			AgentID:         &agentID,
			Percentage:      rate,
			Amount:          share.Amount,
		})
	}

	return rows
}
