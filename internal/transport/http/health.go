package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is satisfied by both the Coordinator and OrderLog adapters;
// the health handler only needs liveness, not the full contract.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	FC  healthStatus `json:"fc"`
	DOL healthStatus `json:"dol"`
}

// HandleHealth actively probes FC and DOL on demand, generalizing the
// ticketing reference's single-backend HealthHandler to this system's
// two external collaborators.
func HandleHealth(fc, dol Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			FC:  probe(ctx, fc),
			DOL: probe(ctx, dol),
		}

		status := http.StatusOK
		if resp.FC.Status != "ok" || resp.DOL.Status != "ok" {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func probe(ctx context.Context, p Pinger) healthStatus {
	if err := p.Ping(ctx); err != nil {
		return healthStatus{Status: "down", Error: err.Error()}
	}
	return healthStatus{Status: "ok"}
}
