package rest

import (
	"context"
	"net/http"
	"time"

	"contentieux/internal/domain"
	"contentieux/internal/engine"
	"contentieux/internal/repository"
	"contentieux/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
)

type ReportService interface {
	StartRevenueReport(ctx context.Context, view service.ReportView, filter repository.PaymentsFilter, agentID int64) (string, error)
	GetReports(ctx context.Context, agentID int64) ([]interface{}, error)
	GetReport(ctx context.Context, reportID string, agentID int64) (interface{}, error)
}

type DistributionService interface {
	Preview(ctx context.Context, caseID string, amount decimal.Decimal, at time.Time) (*domain.DistributionResult, error)
	DistributePayment(ctx context.Context, paymentID string) (*domain.DistributionResult, error)
}

type BeneficiaryService interface {
	Resolve(ctx context.Context, caseID string, at time.Time) (engine.BeneficiarySet, error)
}

type Handler struct {
	reports       ReportService
	distributions DistributionService
	beneficiaries BeneficiaryService
}

func NewHandler(reports ReportService, distributions DistributionService, beneficiaries BeneficiaryService) *Handler {
	return &Handler{
		reports:       reports,
		distributions: distributions,
		beneficiaries: beneficiaries,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", h.listReports)
		r.Get("/{report_id}", h.getReport)
		r.Post("/agents", h.reportAgents)
		r.Post("/services", h.reportServices)
		r.Post("/centers", h.reportCenters)
	})

	r.Route("/distributions", func(r chi.Router) {
		r.Post("/preview", h.previewDistribution)
		r.Post("/payments/{payment_id}", h.distributePayment)
	})

	r.Get("/cases/{case_id}/beneficiaries", h.listBeneficiaries)

	return r
}
