package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/vin"
)

// VehicleHandler handles vehicle registration, service history and
// schedule/recommendation queries.
type VehicleHandler struct {
	decoder *vin.Decoder
	engine  *maintenance.Engine
	cols    *db.Collections
	now     func() time.Time
}

// NewVehicleHandler creates a new vehicle handler.
func NewVehicleHandler(decoder *vin.Decoder, engine *maintenance.Engine, cols *db.Collections) *VehicleHandler {
	return &VehicleHandler{
		decoder: decoder,
		engine:  engine,
		cols:    cols,
		now:     time.Now,
	}
}

// RegisterVehicle handles POST /api/vehicles: it resolves the VIN, classifies
// the vehicle, builds its interval profile and seeds the schedule state.
func (h *VehicleHandler) RegisterVehicle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req struct {
		CustomerID     string   `json:"customer_id"`
		VIN            string   `json:"vin"`
		CurrentMileage *float64 `json:"current_mileage,omitempty"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.CustomerID == "" || req.VIN == "" {
		http.Error(w, "customer_id and vin are required", http.StatusBadRequest)
		return
	}
	if req.CurrentMileage != nil && *req.CurrentMileage < 0 {
		http.Error(w, "current_mileage must not be negative", http.StatusBadRequest)
		return
	}

	identity, err := h.decoder.Decode(r.Context(), req.VIN)
	if err != nil {
		switch {
		case errors.Is(err, vin.ErrInvalidFormat):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, vin.ErrNoData):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			http.Error(w, "VIN lookup unavailable", http.StatusBadGateway)
		}
		return
	}

	category := maintenance.Classify(identity.FuelType, identity.VehicleType, identity.BodyClass)
	profile := maintenance.BuildProfile(category, identity.Year, h.now())

	vehicle := models.Vehicle{
		CustomerID:     req.CustomerID,
		Identity:       *identity,
		Category:       category,
		CurrentMileage: req.CurrentMileage,
		Status:         "active",
		CreatedAt:      h.now(),
		UpdatedAt:      h.now(),
	}
	id, err := h.cols.Vehicles.InsertVehicle(r.Context(), vehicle)
	if err != nil {
		log.WithError(err).Error("Failed to insert vehicle")
		http.Error(w, "Failed to register vehicle", http.StatusInternalServerError)
		return
	}

	state, err := h.engine.Refresh(r.Context(), id, profile, nil, req.CurrentMileage)
	if err != nil {
		log.WithError(err).WithField("vehicle_id", id).Error("Failed to seed schedule")
		http.Error(w, "Failed to build maintenance schedule", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{
		"vehicle_id": id,
		"vin":        identity.VIN,
		"category":   category,
	}).Info("Registered vehicle")

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":       id,
		"identity": identity,
		"category": category,
		"schedule": state,
	})
}

// VehicleSubresource routes /api/vehicles/{id}/{services|schedule|recommendations}.
func (h *VehicleHandler) VehicleSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/vehicles/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	vehicleID := parts[0]

	switch parts[1] {
	case "services":
		h.completeService(w, r, vehicleID)
	case "schedule":
		h.getSchedule(w, r, vehicleID)
	case "recommendations":
		h.getRecommendations(w, r, vehicleID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// completeService appends a service record and, when a tier is named,
// advances that tier's schedule projection.
func (h *VehicleHandler) completeService(w http.ResponseWriter, r *http.Request, vehicleID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	vehicle, err := h.cols.Vehicles.FindVehicleByID(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load vehicle", http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req struct {
		ServiceType string     `json:"service_type"`
		Tier        string     `json:"tier,omitempty"`
		ServiceDate *time.Time `json:"service_date,omitempty"`
		Mileage     float64    `json:"mileage"`
		Cost        float64    `json:"cost"`
		Technician  string     `json:"technician"`
		Notes       string     `json:"notes"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ServiceType == "" {
		http.Error(w, "service_type is required", http.StatusBadRequest)
		return
	}
	if req.Mileage < 0 {
		http.Error(w, "mileage must not be negative", http.StatusBadRequest)
		return
	}
	if req.Tier != "" && !models.IsValidTier(models.Tier(req.Tier)) {
		http.Error(w, "unknown tier", http.StatusBadRequest)
		return
	}

	completedAt := h.now()
	if req.ServiceDate != nil {
		completedAt = *req.ServiceDate
	}

	record := models.ServiceRecord{
		VehicleID:   vehicleID,
		ServiceType: req.ServiceType,
		ServiceDate: completedAt,
		Mileage:     req.Mileage,
		Cost:        req.Cost,
		Technician:  req.Technician,
		Notes:       req.Notes,
		CreatedAt:   h.now(),
	}
	if err := h.cols.ServiceRecords.InsertServiceRecord(r.Context(), record); err != nil {
		log.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to insert service record")
		http.Error(w, "Failed to record service", http.StatusInternalServerError)
		return
	}

	var state *models.ScheduleState
	if req.Tier != "" {
		state, err = h.engine.Advance(r.Context(), vehicleID, models.Tier(req.Tier), completedAt, &req.Mileage)
		if err != nil && !errors.Is(err, maintenance.ErrScheduleNotFound) {
			log.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to advance schedule")
			http.Error(w, "Failed to advance schedule", http.StatusInternalServerError)
			return
		}
	}

	// Odometer readings only move forward.
	if vehicle.CurrentMileage == nil || req.Mileage > *vehicle.CurrentMileage {
		vehicle.CurrentMileage = &req.Mileage
		vehicle.UpdatedAt = h.now()
		if err := h.cols.Vehicles.UpdateVehicle(r.Context(), vehicleID, *vehicle); err != nil {
			log.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to update vehicle mileage")
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"record":   record,
		"schedule": state,
	})
}

// getSchedule returns the stored schedule state with its urgency evaluation.
func (h *VehicleHandler) getSchedule(w http.ResponseWriter, r *http.Request, vehicleID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	vehicle, err := h.cols.Vehicles.FindVehicleByID(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load vehicle", http.StatusInternalServerError)
		return
	}

	state, err := h.cols.Schedules.FindScheduleByVehicleID(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Schedule not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load schedule", http.StatusInternalServerError)
		return
	}

	projections := maintenance.EvaluateSchedule(state, vehicle.CurrentMileage, h.now())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vehicle_id":  vehicleID,
		"schedule":    state,
		"projections": projections,
	})
}

// getRecommendations recomputes catalog recommendations for the vehicle.
func (h *VehicleHandler) getRecommendations(w http.ResponseWriter, r *http.Request, vehicleID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	vehicle, err := h.cols.Vehicles.FindVehicleByID(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load vehicle", http.StatusInternalServerError)
		return
	}

	history, err := h.cols.ServiceRecords.FindServiceHistory(r.Context(), vehicleID)
	if err != nil {
		http.Error(w, "Failed to load service history", http.StatusInternalServerError)
		return
	}

	recs := maintenance.Recommend(vehicle, history, h.now())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vehicle_id":      vehicleID,
		"generated_at":    h.now(),
		"recommendations": recs,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
