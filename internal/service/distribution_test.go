package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"contentieux/internal/domain"
	"contentieux/internal/engine"
	"contentieux/internal/repository"

	"github.com/shopspring/decimal"
)

type fakePayments struct {
	payments map[string]*domain.Payment
}

func (f *fakePayments) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, errors.New("payment not found")
	}
	return p, nil
}

type fakeCases struct {
	cases map[string]*domain.Case
}

func (f *fakeCases) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	c, ok := f.cases[id]
	if !ok {
		return nil, errors.New("case not found")
	}
	return c, nil
}

type fakeResolver struct {
	set engine.BeneficiarySet
	err error
	at  time.Time
}

func (f *fakeResolver) Resolve(ctx context.Context, caseID string, at time.Time) (engine.BeneficiarySet, error) {
	f.at = at
	return f.set, f.err
}

type fakeAudit struct {
	paymentID string
	rows      []repository.ShareRow
}

func (f *fakeAudit) SaveShares(ctx context.Context, paymentID string, rows []repository.ShareRow) error {
	f.paymentID = paymentID
	f.rows = rows
	return nil
}

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New(engine.DefaultPolicy())
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return eng
}

func validatedPayment(caseID string, amount int64, date time.Time) *domain.Payment {
	return &domain.Payment{
		ID:          "pay-1",
		CaseID:      caseID,
		Amount:      decimal.NewFromInt(amount),
		Status:      domain.PaymentValidated,
		PaymentDate: &date,
	}
}

func TestDistributePayment_PersistsAuditRows(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	payments := &fakePayments{payments: map[string]*domain.Payment{
		"pay-1": validatedPayment("case-1", 1_000_000, date),
	}}
	res := &fakeResolver{set: engine.BeneficiarySet{
		ChiefsPool: []engine.Beneficiary{
			{Agent: domain.AgentRef{ID: 1, FullName: "Chef Un"}, Role: domain.ShareRoleChief},
			{Agent: domain.AgentRef{ID: 2, FullName: "Chef Deux"}, Role: domain.ShareRoleChief},
		},
		SeizingAgents: []engine.Beneficiary{
			{Agent: domain.AgentRef{ID: 3, FullName: "Saisissant"}, Role: domain.ShareRoleSeizingAgent},
		},
	}}
	audit := &fakeAudit{}

	svc := NewDistributionService(payments, &fakeCases{}, res, testEngine(t), audit)

	result, err := svc.DistributePayment(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("DistributePayment: %v", err)
	}

	if !res.at.Equal(date) {
		t.Errorf("Expected resolution at payment date %v, got %v", date, res.at)
	}

	if audit.paymentID != "pay-1" {
		t.Errorf("Expected audit rows for pay-1, got %q", audit.paymentID)
	}
	// 8 pooled rows + 3 individual rows
	if len(audit.rows) != 11 {
		t.Fatalf("Expected 11 audit rows, got %d", len(audit.rows))
	}

	var individual int
	for _, row := range audit.rows {
		if row.AgentID != nil {
			individual++
		}
	}
	if individual != 3 {
		t.Errorf("Expected 3 individual rows, got %d", individual)
	}

	if !result.ChiefsPool.Equal(decimal.NewFromInt(101_250)) {
		t.Errorf("Expected chiefs pool 101250, got %s", result.ChiefsPool)
	}
}

func TestDistributePayment_RejectsNonValidated(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	p := validatedPayment("case-1", 500, date)
	p.Status = domain.PaymentPending
	payments := &fakePayments{payments: map[string]*domain.Payment{"pay-1": p}}

	svc := NewDistributionService(payments, &fakeCases{}, &fakeResolver{}, testEngine(t), &fakeAudit{})

	_, err := svc.DistributePayment(context.Background(), "pay-1")
	if !errors.Is(err, ErrPaymentNotValidated) {
		t.Fatalf("Expected ErrPaymentNotValidated, got %v", err)
	}
}

func TestPreview_UnknownCase(t *testing.T) {
	svc := NewDistributionService(&fakePayments{}, &fakeCases{cases: map[string]*domain.Case{}}, &fakeResolver{}, testEngine(t), nil)

	_, err := svc.Preview(context.Background(), "missing", decimal.NewFromInt(1000), time.Now())
	if err == nil {
		t.Fatal("Expected error for unknown case")
	}
}

func TestPreview_ComputesBreakdown(t *testing.T) {
	cases := &fakeCases{cases: map[string]*domain.Case{
		"case-1": {ID: "case-1", Number: "CTX-2026-001"},
	}}
	res := &fakeResolver{set: engine.BeneficiarySet{
		ChiefsPool: []engine.Beneficiary{
			{Agent: domain.AgentRef{ID: 1, FullName: "Chef"}, Role: domain.ShareRoleChief},
		},
	}}

	svc := NewDistributionService(&fakePayments{}, cases, res, testEngine(t), nil)

	result, err := svc.Preview(context.Background(), "case-1", decimal.NewFromInt(1_000_000), time.Now())
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !result.IndicatorShare.Equal(decimal.NewFromInt(100_000)) {
		t.Errorf("Expected indicator 100000, got %s", result.IndicatorShare)
	}
	if len(result.IndividualShares) != 1 {
		t.Fatalf("Expected 1 individual share, got %d", len(result.IndividualShares))
	}
	if !result.IndividualShares[0].Amount.Equal(decimal.NewFromInt(101_250)) {
		t.Errorf("Expected single chief to receive 101250, got %s", result.IndividualShares[0].Amount)
	}
}
