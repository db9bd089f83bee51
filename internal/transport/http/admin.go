package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
	"github.com/gorilla/mux"
)

// Reconciler is the minimal interface the administrative handlers
// depend on for Reset, InitStock, and RecoverUserMarks.
type Reconciler interface {
	Reset(ctx context.Context, saleID string, newTotalStock int) error
	InitStock(ctx context.Context, saleID string) (int, error)
	RecoverUserMarks(ctx context.Context, saleID string) (int, error)
}

// WindowUpdater is the minimal interface for UpdateWindow.
type WindowUpdater interface {
	UpdateWindow(ctx context.Context, saleID string, start, end *time.Time) (domain.Sale, error)
}

type resetRequest struct {
	SaleID string `json:"sale_id"`
	Stock  int    `json:"stock"`
}

// HandleReset returns the handler for POST /admin/reset.
func HandleReset(svc Reconciler, defaultSaleID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "ERROR", codeValidation, "invalid request body")
			return
		}
		if req.SaleID == "" {
			req.SaleID = defaultSaleID
		}
		if req.Stock < 0 {
			writeError(w, http.StatusBadRequest, "ERROR", codeValidation, "stock must be non-negative")
			return
		}
		if err := svc.Reset(r.Context(), req.SaleID, req.Stock); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

type updateWindowRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

// HandleUpdateWindow returns the handler for POST /admin/sale/{sale_id}/window.
func HandleUpdateWindow(svc WindowUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID := mux.Vars(r)["sale_id"]
		var req updateWindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "ERROR", codeValidation, "invalid request body")
			return
		}
		sale, err := svc.UpdateWindow(r.Context(), saleID, req.StartTime, req.EndTime)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "sale": sale})
	}
}

// HandleInitStock returns the handler for POST /admin/sale/{sale_id}/init-stock.
func HandleInitStock(svc Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID := mux.Vars(r)["sale_id"]
		initialized, err := svc.InitStock(r.Context(), saleID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "initialized_stock": initialized})
	}
}

// HandleRecoverUserMarks returns the handler for POST /admin/sale/{sale_id}/recover-marks.
func HandleRecoverUserMarks(svc Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID := mux.Vars(r)["sale_id"]
		restored, err := svc.RecoverUserMarks(r.Context(), saleID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "restored": restored})
	}
}
