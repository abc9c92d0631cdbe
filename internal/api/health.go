package api

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is the subset of the database the health endpoint probes.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

type HealthHandler struct {
	db        HealthChecker
	version   string
	startTime time.Time
}

func NewHealthHandler(db HealthChecker, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{db: db, version: version, startTime: startTime}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        map[string]string{},
	}

	status := http.StatusOK
	if err := h.db.HealthCheck(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		resp.Checks["database"] = "ok"
	}

	WriteJSON(w, status, resp)
}
