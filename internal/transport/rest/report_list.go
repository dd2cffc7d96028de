package rest

import (
	"log"
	"net/http"

	"contentieux/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	agentID, err := auth.GetAgentID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	reports, err := h.reports.GetReports(r.Context(), agentID)
	if err != nil {
		log.Printf("[HTTP] listReports error: %v", err)
		ErrorInternal(w, "failed to get reports")
		return
	}

	Success(w, "", reports)
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	agentID, err := auth.GetAgentID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	reportIDParam := chi.URLParam(r, "report_id")
	if reportIDParam == "" {
		ErrorBadRequest(w, "report_id is required")
		return
	}
	reportID := "reports:" + reportIDParam

	report, err := h.reports.GetReport(r.Context(), reportID, agentID)
	if err != nil {
		log.Printf("[HTTP] getReport error: %v", err)
		ErrorNotFound(w, "report not found")
		return
	}

	Success(w, "", report)
}
