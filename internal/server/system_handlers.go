package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/freightquote/internal/database"
	"github.com/aristath/freightquote/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const dbCheckTimeout = 2 * time.Second

// Version is reported by the health endpoint; overridden at build time with -ldflags
var Version = "dev"

// ProviderStatus reports whether the quotation provider can be called
type ProviderStatus interface {
	Configured() bool
}

// DatabaseStatus describes one database in the status response
type DatabaseStatus struct {
	Name    string          `json:"name"`
	Healthy bool            `json:"healthy"`
	Error   string          `json:"error,omitempty"`
	Stats   *database.Stats `json:"stats,omitempty"`
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status             string           `json:"status"`
	StartedAt          string           `json:"started_at"`
	UptimeSeconds      int64            `json:"uptime_seconds"`
	CPUPercent         float64          `json:"cpu_percent"`
	MemoryPercent      float64          `json:"memory_percent"`
	Goroutines         int              `json:"goroutines"`
	ProviderConfigured bool             `json:"provider_configured"`
	ScheduledJobs      int              `json:"scheduled_jobs"`
	Databases          []DatabaseStatus `json:"databases"`
	LastChecked        string           `json:"last_checked"`
}

// DatabaseStatsResponse is the body of GET /api/system/database/stats
type DatabaseStatsResponse struct {
	Databases   []DatabaseStatus `json:"databases"`
	TotalSizeMB float64          `json:"total_size_mb"`
	LastChecked string           `json:"last_checked"`
}

// SystemHandlers serves process and database status
type SystemHandlers struct {
	log       zerolog.Logger
	databases []*database.DB
	provider  ProviderStatus
	scheduler *scheduler.Scheduler
	startedAt time.Time

	// replaceable in tests
	systemStats func() (float64, float64)
	now         func() time.Time
}

// NewSystemHandlers creates system handlers. provider and sched may be nil.
func NewSystemHandlers(log zerolog.Logger, databases []*database.DB, provider ProviderStatus, sched *scheduler.Scheduler) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		databases: databases,
		provider:  provider,
		scheduler: sched,
		now:       time.Now,
	}
	h.startedAt = h.now()
	h.systemStats = h.getSystemStats
	return h
}

// HandleHealth handles GET /health. Any unreachable database makes the service unhealthy.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	for _, db := range h.checkDatabases(r.Context()) {
		if !db.Healthy {
			status, code = "unhealthy", http.StatusServiceUnavailable
			break
		}
	}

	h.writeJSON(w, code, map[string]string{
		"status":  status,
		"service": "freightquote",
		"version": Version,
	})
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	databases := h.checkDatabases(r.Context())

	status := "ok"
	for _, db := range databases {
		if !db.Healthy {
			status = "degraded"
		}
	}

	cpuPercent, memPercent := h.systemStats()
	now := h.now()

	response := SystemStatusResponse{
		Status:        status,
		StartedAt:     h.startedAt.Format(time.RFC3339),
		UptimeSeconds: int64(now.Sub(h.startedAt).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		Databases:     databases,
		LastChecked:   now.Format(time.RFC3339),
	}
	if h.provider != nil {
		response.ProviderConfigured = h.provider.Configured()
	}
	if h.scheduler != nil {
		response.ScheduledJobs = h.scheduler.Entries()
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	databases := h.checkDatabases(r.Context())

	var totalBytes int64
	for _, db := range databases {
		if db.Stats != nil {
			totalBytes += db.Stats.SizeBytes + db.Stats.WALSizeBytes
		}
	}

	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Databases:   databases,
		TotalSizeMB: float64(totalBytes) / 1024 / 1024,
		LastChecked: h.now().Format(time.RFC3339),
	})
}

// HandleRunJob runs a registered maintenance job immediately
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var job scheduler.Job
	ok := false
	if h.scheduler != nil {
		job, ok = h.scheduler.Job(name)
	}
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"status":  "error",
			"message": "Job not registered: " + name,
		})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job run triggered")

	if err := h.scheduler.RunNow(job); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"job":    name,
	})
}

func (h *SystemHandlers) checkDatabases(ctx context.Context) []DatabaseStatus {
	statuses := make([]DatabaseStatus, 0, len(h.databases))
	for _, db := range h.databases {
		status := DatabaseStatus{Name: db.Name(), Healthy: true}

		checkCtx, cancel := context.WithTimeout(ctx, dbCheckTimeout)
		err := db.QuickCheck(checkCtx)
		cancel()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Database check failed")
			status.Healthy = false
			status.Error = err.Error()
			statuses = append(statuses, status)
			continue
		}

		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
		} else {
			status.Stats = stats
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// getSystemStats returns CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
