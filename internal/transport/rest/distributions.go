package rest

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"contentieux/internal/domain"
	"contentieux/internal/engine"
	"contentieux/internal/resolver"
	"contentieux/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type PreviewRequest struct {
	CaseID string
	Amount decimal.Decimal
	At     *time.Time
}

type rawPreviewRequest struct {
	CaseID interface{} `json:"case_id"`
	Amount interface{} `json:"amount"`
	At     interface{} `json:"at"`
}

func ValidatePreviewRequest(r *http.Request) (*PreviewRequest, error) {
	var raw rawPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}

	caseID, err := toStringPtr(raw.CaseID)
	if err != nil || caseID == nil {
		return nil, &ValidationError{Field: "case_id", Message: "case_id is required"}
	}

	amount, err := toDecimal(raw.Amount)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Message: "amount must be a number"}
	}

	at, err := toDatePtr(raw.At)
	if err != nil {
		return nil, &ValidationError{Field: "at", Message: "at must be YYYY-MM-DD or empty"}
	}

	return &PreviewRequest{CaseID: *caseID, Amount: amount, At: at}, nil
}

// toDecimal accepts JSON numbers and numeric strings. Strings are preferred
// by clients that must not lose cents to float encoding.
func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch t := v.(type) {
	case string:
		return decimal.NewFromString(t)
	case float64:
		return decimal.NewFromFloat(t), nil
	default:
		return decimal.Decimal{}, &ValidationError{Message: "invalid type for decimal field"}
	}
}

func (h *Handler) previewDistribution(w http.ResponseWriter, r *http.Request) {
	req, err := ValidatePreviewRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	at := time.Now()
	if req.At != nil {
		at = *req.At
	}

	res, err := h.distributions.Preview(r.Context(), req.CaseID, req.Amount, at)
	if err != nil {
		writeDistributionError(w, err)
		return
	}

	Success(w, "", distributionPayload(res))
}

func (h *Handler) distributePayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "payment_id")
	if paymentID == "" {
		ErrorBadRequest(w, "payment_id is required")
		return
	}

	res, err := h.distributions.DistributePayment(r.Context(), paymentID)
	if err != nil {
		writeDistributionError(w, err)
		return
	}

	Success(w, "Répartition enregistrée", distributionPayload(res))
}

func writeDistributionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		ErrorNotFound(w, "not found")
	case errors.Is(err, engine.ErrInvalidAmount):
		ErrorBadRequest(w, "montant invalide")
	case errors.Is(err, service.ErrPaymentNotValidated):
		ErrorConflict(w, "l'encaissement n'est pas validé")
	case errors.Is(err, resolver.ErrDataIntegrity):
		ErrorConflict(w, "état des rôles spéciaux incohérent")
	default:
		log.Printf("[HTTP] distribution error: %v", err)
		ErrorInternal(w, "failed to compute distribution")
	}
}

func distributionPayload(res *domain.DistributionResult) map[string]interface{} {
	shares := make([]map[string]interface{}, 0, len(res.IndividualShares))
	for _, s := range res.IndividualShares {
		shares = append(shares, map[string]interface{}{
			"agent_id":   s.Beneficiary.ID,
			"agent_name": s.Beneficiary.FullName,
			"role":       s.Role,
			"amount":     s.Amount,
		})
	}

	return map[string]interface{}{
		"payment_amount":       res.PaymentAmount,
		"indicator_share":      res.IndicatorShare,
		"net_product":          res.NetProduct,
		"legal_fund_share":     res.LegalFundShare,
		"treasury_share":       res.TreasuryShare,
		"entitled_net_product": res.EntitledNetProduct,
		"chiefs_pool":          res.ChiefsPool,
		"seizing_pool":         res.SeizingPool,
		"mutual_share":         res.MutualShare,
		"common_fund_share":    res.CommonFundShare,
		"incentive_share":      res.IncentiveShare,
		"individual_shares":    shares,
	}
}
