package api

import (
	"database/sql"
	"net/http"
	"time"
)

const serviceName = "DICRI Backend API"

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}

// healthHandler reports liveness. A failing database ping turns it into 503.
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "OK", Timestamp: time.Now().UTC(), Service: serviceName}
		if err := db.PingContext(r.Context()); err != nil {
			resp.Status = "UNAVAILABLE"
			jsonResponse(w, http.StatusServiceUnavailable, resp)
			return
		}
		jsonResponse(w, http.StatusOK, resp)
	}
}
