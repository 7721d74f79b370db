package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/scheduler"
)

// MaintenanceHandler exposes operator controls over the dispatch scheduler.
type MaintenanceHandler struct {
	sched *scheduler.Scheduler
}

// NewMaintenanceHandler creates a new maintenance handler.
func NewMaintenanceHandler(sched *scheduler.Scheduler) *MaintenanceHandler {
	return &MaintenanceHandler{sched: sched}
}

// TriggerSweep handles POST /api/maintenance/sweep: it runs one dispatch
// sweep immediately. A sweep already in flight answers 409.
func (h *MaintenanceHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.sched.RunOnce(r.Context()); err != nil {
		if errors.Is(err, scheduler.ErrSweepRunning) {
			http.Error(w, "Sweep already running", http.StatusConflict)
			return
		}
		log.WithError(err).Error("Manual sweep failed")
		http.Error(w, "Sweep failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}
