package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrUnknownTier      = errors.New("unknown tier")
)

// Engine maintains per-vehicle schedule state: the next-due date and mileage
// for each maintenance tier, anchored to the last completed service.
type Engine struct {
	schedules db.ScheduleCollection
	now       func() time.Time
}

// NewEngine creates a schedule state engine over a schedule collection.
func NewEngine(schedules db.ScheduleCollection) *Engine {
	return &Engine{schedules: schedules, now: time.Now}
}

// Refresh computes projections for every tier of the profile and upserts the
// vehicle's schedule state, overwriting all fields if one already exists.
// A nil anchorDate defaults to now. Mileage projections are only computed
// when anchorMileage is known and the tier has a mileage component; for tiers
// the profile omits (electric oil tier) projections stay absent, never zero.
func (e *Engine) Refresh(ctx context.Context, vehicleID string, profile models.ServiceIntervalProfile, anchorDate *time.Time, anchorMileage *float64) (*models.ScheduleState, error) {
	anchor := e.now()
	if anchorDate != nil {
		anchor = *anchorDate
	}

	state := models.ScheduleState{
		VehicleID: vehicleID,
		Profile:   profile,
	}
	for _, tier := range models.TierOrder {
		interval := profile.Interval(tier)
		if interval == nil {
			continue
		}
		ts := state.TierState(tier)
		projectTier(ts, interval, anchor, anchorMileage)
	}

	if err := e.schedules.UpsertSchedule(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to upsert schedule for vehicle %s: %w", vehicleID, err)
	}

	log.WithFields(log.Fields{
		"vehicle_id": vehicleID,
		"category":   profile.Category,
	}).Info("Refreshed maintenance schedule")
	return &state, nil
}

// Advance recomputes a single tier's projection after a completed service,
// using the interval snapshot stored with the schedule. The other two tiers'
// projections are left untouched. Returns ErrScheduleNotFound when the
// vehicle has no schedule state yet.
func (e *Engine) Advance(ctx context.Context, vehicleID string, tier models.Tier, completedAt time.Time, mileage *float64) (*models.ScheduleState, error) {
	if !models.IsValidTier(tier) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTier, tier)
	}

	state, err := e.schedules.FindScheduleByVehicleID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to load schedule for vehicle %s: %w", vehicleID, err)
	}

	interval := state.Profile.Interval(tier)
	if interval == nil {
		return nil, fmt.Errorf("%w: tier %s is not tracked for this vehicle", ErrUnknownTier, tier)
	}

	projectTier(state.TierState(tier), interval, completedAt, mileage)

	if err := e.schedules.UpsertSchedule(ctx, *state); err != nil {
		return nil, fmt.Errorf("failed to store schedule for vehicle %s: %w", vehicleID, err)
	}

	log.WithFields(log.Fields{
		"vehicle_id": vehicleID,
		"tier":       tier,
	}).Info("Advanced maintenance schedule tier")
	return state, nil
}

// projectTier overwrites one tier's anchor and next-due projection.
func projectTier(ts *models.TierState, interval *models.TierInterval, anchor time.Time, anchorMileage *float64) {
	nextDate := anchor.AddDate(0, interval.Months, 0)
	ts.LastServiceDate = &anchor
	ts.NextDueDate = &nextDate
	ts.LastServiceMileage = nil
	ts.NextDueMileage = nil
	if anchorMileage != nil && interval.Mileage > 0 {
		last := *anchorMileage
		next := last + interval.Mileage
		ts.LastServiceMileage = &last
		ts.NextDueMileage = &next
	}
}
