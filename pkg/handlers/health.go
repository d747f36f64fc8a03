package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the payload returned by module health endpoints
type HealthResponse struct {
	Status    string    `json:"status"`
	Module    string    `json:"module"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthHandler returns a health check handler for the given module
func HealthHandler(moduleName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:    "healthy",
			Module:    moduleName,
			Timestamp: time.Now().UTC(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}
