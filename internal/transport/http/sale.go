package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleGetSaleStatus returns the handler for GET /sale/{sale_id}.
func HandleGetSaleStatus(svc AdmissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID := mux.Vars(r)["sale_id"]
		status, err := svc.GetSaleStatus(r.Context(), saleID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// HandleGetStats returns the handler for GET /stats/{sale_id}.
func HandleGetStats(svc AdmissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID := mux.Vars(r)["sale_id"]
		stats, err := svc.GetStats(r.Context(), saleID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
