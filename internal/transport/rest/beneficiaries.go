package rest

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"contentieux/internal/engine"
	"contentieux/internal/resolver"

	"github.com/go-chi/chi/v5"
)

// listBeneficiaries returns who would share a distribution for a case at a
// given instant: the case chiefs plus active special role holders, and the
// seizing agents. The optional at query parameter defaults to now.
func (h *Handler) listBeneficiaries(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "case_id")
	if caseID == "" {
		ErrorBadRequest(w, "case_id is required")
		return
	}

	at := time.Now()
	if atParam := r.URL.Query().Get("at"); atParam != "" {
		parsed, err := time.Parse("2006-01-02", atParam)
		if err != nil {
			ErrorBadRequest(w, "at must be YYYY-MM-DD")
			return
		}
		at = parsed
	}

	set, err := h.beneficiaries.Resolve(r.Context(), caseID, at)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			ErrorNotFound(w, "case not found")
		case errors.Is(err, resolver.ErrDataIntegrity):
			ErrorConflict(w, "état des rôles spéciaux incohérent")
		default:
			log.Printf("[HTTP] listBeneficiaries error: %v", err)
			ErrorInternal(w, "failed to resolve beneficiaries")
		}
		return
	}

	payload := map[string]interface{}{
		"chiefs_pool":    beneficiaryList(set.ChiefsPool),
		"seizing_agents": beneficiaryList(set.SeizingAgents),
	}

	Success(w, "", payload)
}

func beneficiaryList(members []engine.Beneficiary) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(members))
	for _, m := range members {
		entry := map[string]interface{}{
			"agent_id":   m.Agent.ID,
			"agent_name": m.Agent.FullName,
			"role":       m.Role,
		}
		if m.Agent.Service != nil {
			entry["service"] = *m.Agent.Service
		}
		if m.Agent.Center != nil {
			entry["center"] = *m.Agent.Center
		}
		out = append(out, entry)
	}
	return out
}
