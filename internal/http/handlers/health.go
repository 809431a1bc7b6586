// Package handlers provides HTTP API handlers for camerad.
package handlers

import (
	"context"
	"runtime"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"gorm.io/gorm"
)

// HealthHandler handles the health check endpoint.
type HealthHandler struct {
	version   string
	startTime time.Time
	db        *gorm.DB
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
	}
}

// WithDB sets the database connection used for the health check's connectivity probe.
func (h *HealthHandler) WithDB(db *gorm.DB) *HealthHandler {
	h.db = db
	return h
}

// HealthInput is the input for the health check endpoint.
type HealthInput struct{}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status        string  `json:"status"`
	Timestamp     string  `json:"timestamp"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUCores      int     `json:"cpu_cores"`
	Load1Min      float64 `json:"load_1min"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	Database      string  `json:"database"`
}

// HealthOutput is the output for the health check endpoint.
type HealthOutput struct {
	Body HealthResponse
}

// Register registers the health route with the API.
func (h *HealthHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getHealth",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns process uptime, host load, and database connectivity.",
		Tags:        []string{"System"},
	}, h.GetHealth)
}

// GetHealth returns the health status of the service.
func (h *HealthHandler) GetHealth(ctx context.Context, input *HealthInput) (*HealthOutput, error) {
	now := time.Now()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: now.UTC().Format(time.RFC3339),
		Version:   h.version,
		UptimeSeconds: now.Sub(h.startTime).Seconds(),
		CPUCores:  runtime.NumCPU(),
		Database:  h.databaseStatus(ctx),
	}

	if loadAvg, err := load.Avg(); err == nil && loadAvg != nil {
		resp.Load1Min = loadAvg.Load1
	}
	if vmStat, err := mem.VirtualMemory(); err == nil && vmStat != nil {
		resp.MemoryUsedMB = float64(vmStat.Used) / 1024 / 1024
		resp.MemoryTotalMB = float64(vmStat.Total) / 1024 / 1024
	}
	if resp.Database != "ok" {
		resp.Status = "degraded"
	}

	return &HealthOutput{Body: resp}, nil
}

func (h *HealthHandler) databaseStatus(ctx context.Context) string {
	if h.db == nil {
		return "unknown"
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return "error"
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return "error"
	}
	return "ok"
}
