package http

import (
	"net/http"

	"github.com/frayhan94/flash-sale-ordering-system/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps bundles every collaborator the router needs to wire handlers.
// It is assembled in cmd/main.go from the concrete adapters.
type Deps struct {
	Admission     AdmissionService
	Reconcile     Reconciler
	WindowUpdater WindowUpdater
	FC            Pinger
	DOL           Pinger
	CORSOrigins   []string
	DefaultSaleID string
}

// NewRouter builds the full HTTP surface of the purchase-core API,
// using a PathPrefix-subrouter layout to scope middleware per group
// of routes.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.TracingMiddleware)

	api := r.PathPrefix("/").Subrouter()
	api.Use(middleware.MetricsMiddleware)
	api.Use(func(next http.Handler) http.Handler { return CORS(d.CORSOrigins, next) })

	api.HandleFunc("/purchase", HandlePurchase(d.Admission, d.DefaultSaleID)).Methods(http.MethodPost)
	api.HandleFunc("/user/{user_id}", HandleGetUserPurchase(d.Admission, d.DefaultSaleID)).Methods(http.MethodGet)
	api.HandleFunc("/sale/{sale_id}", HandleGetSaleStatus(d.Admission)).Methods(http.MethodGet)
	api.HandleFunc("/stats/{sale_id}", HandleGetStats(d.Admission)).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/reset", HandleReset(d.Reconcile, d.DefaultSaleID)).Methods(http.MethodPost)
	admin.HandleFunc("/sale/{sale_id}/window", HandleUpdateWindow(d.WindowUpdater)).Methods(http.MethodPost)
	admin.HandleFunc("/sale/{sale_id}/init-stock", HandleInitStock(d.Reconcile)).Methods(http.MethodPost)
	admin.HandleFunc("/sale/{sale_id}/recover-marks", HandleRecoverUserMarks(d.Reconcile)).Methods(http.MethodPost)

	r.HandleFunc("/health", HandleHealth(d.FC, d.DOL)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
