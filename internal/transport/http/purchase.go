package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frayhan94/flash-sale-ordering-system/internal/admission"
	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
	"github.com/gorilla/mux"
)

// AdmissionService is the minimal interface the purchase-core
// handlers depend on: Purchase, GetUserPurchase, GetSaleStatus, and
// GetStats.
type AdmissionService interface {
	Purchase(ctx context.Context, in admission.PurchaseInput) (admission.PurchaseOutcome, error)
	GetUserPurchase(ctx context.Context, saleID, userID string) (admission.UserPurchase, error)
	GetSaleStatus(ctx context.Context, saleID string) (admission.SaleStatusView, error)
	GetStats(ctx context.Context, saleID string) (admission.Stats, error)
}

type purchaseRequest struct {
	UserID string `json:"user_id"`
	SaleID string `json:"sale_id"`
}

type purchaseResponse struct {
	Result         string      `json:"result"`
	Message        string      `json:"message"`
	Order          interface{} `json:"order,omitempty"`
	RemainingStock *int        `json:"remaining_stock,omitempty"`
	SaleStatus     string      `json:"sale_status,omitempty"`
}

// HandlePurchase returns the handler for POST /purchase.
func HandlePurchase(svc AdmissionService, defaultSaleID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req purchaseRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "ERROR", codeValidation, "invalid request body")
			return
		}
		if req.SaleID == "" {
			req.SaleID = defaultSaleID
		}

		outcome, err := svc.Purchase(r.Context(), admission.PurchaseInput{UserID: req.UserID, SaleID: req.SaleID})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := purchaseResponse{
			Result:         string(outcome.Result),
			Message:        outcome.Message,
			RemainingStock: outcome.RemainingStock,
		}
		if outcome.Order != nil {
			resp.Order = outcome.Order
		}
		if outcome.SubStatus != "" {
			resp.SaleStatus = string(outcome.SubStatus)
		}
		writeJSON(w, statusForResult(outcome.Result), resp)
	}
}

func statusForResult(result domain.Result) int {
	switch string(result) {
	case "SUCCESS":
		return http.StatusOK
	case "ALREADY_PURCHASED":
		return http.StatusConflict
	case "SOLD_OUT":
		return http.StatusGone
	case "SALE_NOT_ACTIVE":
		return http.StatusForbidden
	case "SALE_NOT_FOUND":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// HandleGetUserPurchase returns the handler for GET /user/{user_id}.
func HandleGetUserPurchase(svc AdmissionService, defaultSaleID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := mux.Vars(r)["user_id"]
		saleID := r.URL.Query().Get("sale_id")
		if saleID == "" {
			saleID = defaultSaleID
		}

		up, err := svc.GetUserPurchase(r.Context(), saleID, userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, up)
	}
}
