package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
)

const (
	codeSaleNotFound  = "sale_not_found"
	codeSaleNotActive = "sale_not_active"
	codeSoldOut       = "sold_out"
	codeAlready       = "already_purchased"
	codeValidation    = "validation_error"
	codeInternal      = "internal_error"
	codeNotFound      = "not_found"
	codeMethod        = "method_not_allowed"
)

type errorResponse struct {
	Result  string `json:"result"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, result, code, msg string) {
	writeJSON(w, status, errorResponse{Result: result, Message: msg, Code: code})
}

// writeDomainError maps the domain's sentinel-error taxonomy to the
// recommended HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSaleNotFound):
		writeError(w, http.StatusNotFound, string(domain.ResultSaleNotFound), codeSaleNotFound, err.Error())
	case errors.Is(err, domain.ErrSaleNotActive):
		writeError(w, http.StatusForbidden, string(domain.ResultSaleNotActive), codeSaleNotActive, err.Error())
	case errors.Is(err, domain.ErrSoldOut):
		writeError(w, http.StatusGone, string(domain.ResultSoldOut), codeSoldOut, err.Error())
	case errors.Is(err, domain.ErrAlreadyPurchased):
		writeError(w, http.StatusConflict, string(domain.ResultAlreadyPurchased), codeAlready, err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, string(domain.ResultError), codeValidation, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, string(domain.ResultError), codeInternal, "internal error")
	}
}
