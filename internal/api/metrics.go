package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemStats is the body of GET /api/v1/stats.
type SystemStats struct {
	Timestamp     string       `json:"timestamp"`
	Version       string       `json:"version"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Runtime       RuntimeStats `json:"runtime"`
	OCPP          OCPPStats    `json:"ocpp"`
	Devices       DeviceStats  `json:"devices"`
	EventStream   StreamStats  `json:"event_stream"`
}

// RuntimeStats contains Go runtime statistics.
type RuntimeStats struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// OCPPStats counts registered charge boxes and open OCPP-J connections.
type OCPPStats struct {
	ChargeBoxes int `json:"charge_boxes"`
	Connections int `json:"connections"`
}

// DeviceStats contains device repository statistics.
type DeviceStats struct {
	Total int `json:"total"`
}

// StreamStats contains live event stream statistics.
type StreamStats struct {
	ConnectedClients int `json:"connected_clients"`
}

// handleStats returns a JSON snapshot of process and domain statistics.
// Prometheus scrapes /metrics; this is for humans and dashboards.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := SystemStats{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeStats{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		OCPP:        OCPPStats{ChargeBoxes: s.registry.Len()},
		Devices:     DeviceStats{Total: s.devices.Count()},
		EventStream: StreamStats{ConnectedClients: s.hub.ClientCount()},
	}
	if s.connections != nil {
		stats.OCPP.Connections = s.connections()
	}

	writeJSON(w, http.StatusOK, stats)
}
