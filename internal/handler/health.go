package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is anything the health check can probe. *sqlite.DB and
// *cache.RedisCache both satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the server's dependencies answer.
type HealthHandler struct {
	db     Pinger
	cache  Pinger // nil when Redis is not configured
	logger *slog.Logger
}

func NewHealthHandler(db, cache Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, logger: logger}
}

type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
	Cache  string `json:"cache"`
}

// HandleHealth answers 200 when the database responds and 503 otherwise.
// An unreachable cache is reported but does not fail the check: search falls
// back to the database without it.
//
// HTTP: GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", DB: "ok", Cache: "disabled"}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health check: database unreachable", slog.String("error", err.Error()))
		resp.Status, resp.DB = "unavailable", "unreachable"
		status = http.StatusServiceUnavailable
	}

	if h.cache != nil {
		resp.Cache = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.Warn("health check: cache unreachable", slog.String("error", err.Error()))
			resp.Cache = "unreachable"
		}
	}

	writeJSON(w, h.logger, status, resp)
}
