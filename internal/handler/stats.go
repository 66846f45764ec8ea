package handler

import (
	"errors"
	"log"
	"net/http"
	"runtime"
	"time"

	"wfmarket-sync/internal/model"
	"wfmarket-sync/internal/service"
	"wfmarket-sync/pkg/apierror"
	"wfmarket-sync/pkg/response"
)

// StatsHandler reports store and process statistics.
type StatsHandler struct {
	market    *service.MarketService
	startTime time.Time
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(market *service.MarketService) *StatsHandler {
	return &StatsHandler{market: market, startTime: time.Now()}
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Store         *model.StoreStats `json:"store"`
	LastSync      *model.SyncReport `json:"last_sync,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	ServerTime    string            `json:"server_time"`
	Memory        map[string]any    `json:"memory"`
}

// GetStats handles GET /api/v1/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	store, err := h.market.Stats(ctx)
	if err != nil {
		log.Printf("[StatsHandler] Failed to read store stats: %v", err)
		response.Error(w, apierror.ServiceUnavailable("store unavailable"))
		return
	}

	resp := StatsResponse{
		Store:         store,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		ServerTime:    time.Now().Format(time.RFC3339),
	}

	if report, err := h.market.LastReport(ctx); err == nil {
		resp.LastSync = report
	} else if !errors.Is(err, service.ErrNoReport) {
		log.Printf("[StatsHandler] Failed to read last report: %v", err)
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	resp.Memory = map[string]any{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	response.OK(w, resp)
}
