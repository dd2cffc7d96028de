package rest

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"contentieux/internal/repository"
	"contentieux/internal/service"
	"contentieux/internal/transport/auth"
)

type ReportRequest struct {
	CaseID          *string    `json:"case_id,omitempty"`
	CollectorID     *int64     `json:"collector_id,omitempty"`
	PeriodStartDate *time.Time `json:"period_start_date,omitempty"`
	PeriodEndDate   *time.Time `json:"period_end_date,omitempty"`
}

type rawReportRequest struct {
	CaseID          interface{} `json:"case_id"`
	CollectorID     interface{} `json:"collector_id"`
	PeriodStartDate interface{} `json:"period_start_date"`
	PeriodEndDate   interface{} `json:"period_end_date"`
}

// ValidateReportRequest parses and validates JSON input for report generation.
// All filters are optional; an empty body means the whole history.
func ValidateReportRequest(r *http.Request) (*ReportRequest, error) {
	var raw rawReportRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}

	caseID, err := toStringPtr(raw.CaseID)
	if err != nil {
		return nil, &ValidationError{Field: "case_id", Message: "case_id must be string or empty"}
	}

	collectorID, err := toInt64Ptr(raw.CollectorID)
	if err != nil {
		return nil, &ValidationError{Field: "collector_id", Message: "collector_id must be integer or empty"}
	}

	startDate, err := toDatePtr(raw.PeriodStartDate)
	if err != nil {
		return nil, &ValidationError{Field: "period_start_date", Message: "must be YYYY-MM-DD or empty"}
	}

	endDate, err := toDatePtr(raw.PeriodEndDate)
	if err != nil {
		return nil, &ValidationError{Field: "period_end_date", Message: "must be YYYY-MM-DD or empty"}
	}

	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, &ValidationError{Field: "period_end_date", Message: "period_end_date must not precede period_start_date"}
	}

	return &ReportRequest{
		CaseID:          caseID,
		CollectorID:     collectorID,
		PeriodStartDate: startDate,
		PeriodEndDate:   endDate,
	}, nil
}

func (r *ReportRequest) ToRepositoryFilter() repository.PaymentsFilter {
	return repository.PaymentsFilter{
		CaseID:          r.CaseID,
		CollectorID:     r.CollectorID,
		PeriodStartDate: r.PeriodStartDate,
		PeriodEndDate:   r.PeriodEndDate,
	}
}

func (h *Handler) reportAgents(w http.ResponseWriter, r *http.Request) {
	h.startReport(w, r, service.ReportViewAgents)
}

func (h *Handler) reportServices(w http.ResponseWriter, r *http.Request) {
	h.startReport(w, r, service.ReportViewServices)
}

func (h *Handler) reportCenters(w http.ResponseWriter, r *http.Request) {
	h.startReport(w, r, service.ReportViewCenters)
}

func (h *Handler) startReport(w http.ResponseWriter, r *http.Request, view service.ReportView) {
	req, err := ValidateReportRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	agentID, err := auth.GetAgentID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	reportID, err := h.reports.StartRevenueReport(r.Context(), view, req.ToRepositoryFilter(), agentID)
	if err != nil {
		log.Printf("[HTTP] startRevenueReport error: %v", err)
		ErrorInternal(w, "failed to start report")
		return
	}

	SuccessAccepted(w, "État de répartition mis en file d'attente", map[string]interface{}{"report_id": reportID})
}
