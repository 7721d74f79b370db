package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindActiveVehicles(ctx context.Context) ([]models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
}

// CustomerCollection defines the interface for customer data operations.
type CustomerCollection interface {
	FindCustomerByID(ctx context.Context, id string) (*models.Customer, error)
}

// ServiceRecordCollection defines the interface for service history operations.
// History is append-only: there is no update or delete.
type ServiceRecordCollection interface {
	InsertServiceRecord(ctx context.Context, record models.ServiceRecord) error
	FindServiceHistory(ctx context.Context, vehicleID string) ([]models.ServiceRecord, error)
}

// ScheduleCollection defines the interface for schedule state operations.
// Schedule states are keyed by vehicle id and upserted as whole documents.
type ScheduleCollection interface {
	UpsertSchedule(ctx context.Context, state models.ScheduleState) error
	FindScheduleByVehicleID(ctx context.Context, vehicleID string) (*models.ScheduleState, error)
}

// ReminderCollection defines the interface for reminder records.
type ReminderCollection interface {
	InsertReminder(ctx context.Context, reminder models.Reminder) (string, error)
	FindDuePending(ctx context.Context, now time.Time, limit int64) ([]models.Reminder, error)
	MarkReminderSent(ctx context.Context, id string, sentAt time.Time) error
	MarkReminderFailed(ctx context.Context, id string, errMsg string) error
	HasRecentReminder(ctx context.Context, customerID, reminderType string, since time.Time) (bool, error)
}

// InvoiceCollection defines the interface for invoice status operations.
type InvoiceCollection interface {
	FindSentPastDue(ctx context.Context, now time.Time) ([]models.Invoice, error)
	MarkInvoiceOverdue(ctx context.Context, id string) error
}
