// Package scheduler runs the periodic reminder dispatch sweep over the fleet.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/notify"
)

// ErrSweepRunning is returned by RunOnce when a sweep is already in flight.
var ErrSweepRunning = errors.New("sweep already running")

// Config tunes the dispatch scheduler.
type Config struct {
	Interval        time.Duration // sweep period
	FlushBatchSize  int64         // pending reminders sent per sweep
	ServiceCooldown time.Duration // min gap between service reminders per customer
	InvoiceCooldown time.Duration // min gap between overdue-invoice notices per customer
}

// DefaultConfig returns the standard sweep settings.
func DefaultConfig() Config {
	return Config{
		Interval:        time.Hour,
		FlushBatchSize:  50,
		ServiceCooldown: 7 * 24 * time.Hour,
		InvoiceCooldown: 3 * 24 * time.Hour,
	}
}

// Scheduler is the dispatch orchestrator. It owns its timer and running state
// so multiple independent instances can coexist (and be tested) safely.
type Scheduler struct {
	vehicles  db.VehicleCollection
	customers db.CustomerCollection
	records   db.ServiceRecordCollection
	reminders db.ReminderCollection
	invoices  db.InvoiceCollection
	sender    notify.Sender
	cfg       Config
	now       func() time.Time

	// sweepToken holds one token; whoever drains it owns the sweep. This is
	// what guarantees timed and manual sweeps never overlap.
	sweepToken chan struct{}
	stopCh     chan struct{}
	doneCh     chan struct{}
	startOnce  sync.Once
	stopOnce   sync.Once
}

// New creates a scheduler over the engine's collections and a notification
// transport.
func New(cols *db.Collections, sender notify.Sender, cfg Config) *Scheduler {
	s := &Scheduler{
		vehicles:   cols.Vehicles,
		customers:  cols.Customers,
		records:    cols.ServiceRecords,
		reminders:  cols.Reminders,
		invoices:   cols.Invoices,
		sender:     sender,
		cfg:        cfg,
		now:        time.Now,
		sweepToken: make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	s.sweepToken <- struct{}{}
	return s
}

// Start begins the repeating sweep timer. Safe to call once.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		go s.loop()
	})
}

// Stop halts the timer, letting an in-flight sweep finish first.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		// wait for a manual sweep too, if one is mid-flight
		<-s.sweepToken
		s.sweepToken <- struct{}{}
	})
}

// RunOnce triggers a single sweep out of band, reusing the sweep code path.
// It refuses to run concurrently with a scheduled sweep.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	select {
	case <-s.sweepToken:
	default:
		return ErrSweepRunning
	}
	defer func() { s.sweepToken <- struct{}{} }()
	s.sweep(ctx)
	return nil
}

func (s *Scheduler) loop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	log.WithField("interval", s.cfg.Interval).Info("Reminder dispatch scheduler started")
	for {
		select {
		case <-s.stopCh:
			log.Info("Reminder dispatch scheduler stopped")
			return
		case <-ticker.C:
			select {
			case <-s.sweepToken:
				s.sweep(context.Background())
				s.sweepToken <- struct{}{}
			default:
				log.Warn("Skipping sweep: previous sweep still running")
			}
		}
	}
}

// sweep runs the three passes in parallel. They touch disjoint record sets,
// fail independently, and per-item errors never abort the rest of a pass.
func (s *Scheduler) sweep(ctx context.Context) {
	start := s.now()
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); s.serviceDuePass(ctx) }()
	go func() { defer wg.Done(); s.flushPendingPass(ctx) }()
	go func() { defer wg.Done(); s.overdueInvoicePass(ctx) }()
	wg.Wait()
	log.WithField("duration", s.now().Sub(start)).Info("Dispatch sweep completed")
}

// serviceDuePass evaluates every active vehicle with known mileage against the
// service catalog and creates reminders for overdue or high-priority work.
func (s *Scheduler) serviceDuePass(ctx context.Context) {
	now := s.now()
	vehicles, err := s.vehicles.FindActiveVehicles(ctx)
	if err != nil {
		log.WithError(err).Error("Service-due pass: failed to load fleet")
		return
	}

	for i := range vehicles {
		vehicle := vehicles[i]
		if vehicle.CurrentMileage == nil {
			continue
		}
		if err := s.remindVehicle(ctx, &vehicle, now); err != nil {
			log.WithError(err).WithField("vehicle_id", vehicle.ID.Hex()).
				Error("Service-due pass: vehicle skipped")
		}
	}
}

func (s *Scheduler) remindVehicle(ctx context.Context, vehicle *models.Vehicle, now time.Time) error {
	history, err := s.records.FindServiceHistory(ctx, vehicle.ID.Hex())
	if err != nil {
		return fmt.Errorf("failed to load service history: %w", err)
	}

	var qualifying []models.ServiceRecommendation
	for _, rec := range maintenance.Recommend(vehicle, history, now) {
		if rec.Overdue || rec.Priority == models.PriorityHigh || rec.Priority == models.PriorityCritical {
			qualifying = append(qualifying, rec)
		}
	}
	if len(qualifying) == 0 {
		return nil
	}

	recent, err := s.reminders.HasRecentReminder(ctx, vehicle.CustomerID, models.ReminderTypeService, now.Add(-s.cfg.ServiceCooldown))
	if err != nil {
		return fmt.Errorf("failed cool-down check: %w", err)
	}
	if recent {
		log.WithField("customer_id", vehicle.CustomerID).Debug("Service reminder suppressed by cool-down")
		return nil
	}

	customer, err := s.customers.FindCustomerByID(ctx, vehicle.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to load customer: %w", err)
	}

	channel := customer.PreferredChannel()
	subject, message := serviceReminderText(vehicle, qualifying)
	reminder := models.Reminder{
		CustomerID:  vehicle.CustomerID,
		Type:        models.ReminderTypeService,
		Subject:     subject,
		Message:     message,
		Channel:     channel,
		Status:      models.ReminderPending,
		ScheduledAt: now,
		CreatedAt:   now,
	}
	reminderID, err := s.reminders.InsertReminder(ctx, reminder)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}

	if !hasCriticalOverdue(qualifying) {
		return nil
	}

	// Critical and overdue: try to deliver right away instead of waiting for
	// the next flush. Failure is recorded and must not abort the sweep.
	if err := s.sender.Send(ctx, channel, recipientFor(customer, channel), subject, message); err != nil {
		log.WithError(err).WithField("customer_id", vehicle.CustomerID).
			Error("Immediate delivery failed; reminder stays pending")
		return nil
	}
	if err := s.reminders.MarkReminderSent(ctx, reminderID, s.now()); err != nil {
		log.WithError(err).WithField("reminder_id", reminderID).
			Error("Failed to record immediate delivery")
	}
	return nil
}

// flushPendingPass sends a bounded batch of pending reminders whose scheduled
// time has arrived.
func (s *Scheduler) flushPendingPass(ctx context.Context) {
	now := s.now()
	pending, err := s.reminders.FindDuePending(ctx, now, s.cfg.FlushBatchSize)
	if err != nil {
		log.WithError(err).Error("Flush pass: failed to load pending reminders")
		return
	}

	for _, reminder := range pending {
		id := reminder.ID.Hex()
		customer, err := s.customers.FindCustomerByID(ctx, reminder.CustomerID)
		if err != nil {
			s.failReminder(ctx, id, fmt.Sprintf("customer lookup failed: %v", err))
			continue
		}
		if err := s.sender.Send(ctx, reminder.Channel, recipientFor(customer, reminder.Channel), reminder.Subject, reminder.Message); err != nil {
			s.failReminder(ctx, id, err.Error())
			continue
		}
		if err := s.reminders.MarkReminderSent(ctx, id, s.now()); err != nil {
			log.WithError(err).WithField("reminder_id", id).Error("Flush pass: failed to mark sent")
		}
	}
}

func (s *Scheduler) failReminder(ctx context.Context, id, reason string) {
	log.WithFields(log.Fields{"reminder_id": id, "reason": reason}).Error("Flush pass: delivery failed")
	if err := s.reminders.MarkReminderFailed(ctx, id, reason); err != nil {
		log.WithError(err).WithField("reminder_id", id).Error("Flush pass: failed to mark failed")
	}
}

// overdueInvoicePass transitions sent invoices past their due date to overdue
// and sends a courtesy notice, throttled per customer.
func (s *Scheduler) overdueInvoicePass(ctx context.Context) {
	now := s.now()
	invoices, err := s.invoices.FindSentPastDue(ctx, now)
	if err != nil {
		log.WithError(err).Error("Invoice pass: failed to load past-due invoices")
		return
	}

	for _, invoice := range invoices {
		if err := s.noticeInvoice(ctx, invoice, now); err != nil {
			log.WithError(err).WithField("invoice_id", invoice.ID.Hex()).
				Error("Invoice pass: invoice skipped")
		}
	}
}

func (s *Scheduler) noticeInvoice(ctx context.Context, invoice models.Invoice, now time.Time) error {
	if err := s.invoices.MarkInvoiceOverdue(ctx, invoice.ID.Hex()); err != nil {
		return fmt.Errorf("failed to mark invoice overdue: %w", err)
	}

	recent, err := s.reminders.HasRecentReminder(ctx, invoice.CustomerID, models.ReminderTypeInvoiceOverdue, now.Add(-s.cfg.InvoiceCooldown))
	if err != nil {
		return fmt.Errorf("failed cool-down check: %w", err)
	}
	if recent {
		return nil
	}

	customer, err := s.customers.FindCustomerByID(ctx, invoice.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to load customer: %w", err)
	}

	daysOverdue := int(now.Sub(invoice.DueDate).Hours() / 24)
	subject := fmt.Sprintf("Invoice %s is overdue", invoice.InvoiceNumber)
	message := fmt.Sprintf("Invoice %s for $%.2f is %d days overdue. Please arrange payment.",
		invoice.InvoiceNumber, invoice.Amount, daysOverdue)

	channel := customer.PreferredChannel()
	reminder := models.Reminder{
		CustomerID:  invoice.CustomerID,
		Type:        models.ReminderTypeInvoiceOverdue,
		Subject:     subject,
		Message:     message,
		Channel:     channel,
		Status:      models.ReminderPending,
		ScheduledAt: now,
		CreatedAt:   now,
	}
	reminderID, err := s.reminders.InsertReminder(ctx, reminder)
	if err != nil {
		return fmt.Errorf("failed to create notice: %w", err)
	}

	if err := s.sender.Send(ctx, channel, recipientFor(customer, channel), subject, message); err != nil {
		s.failReminder(ctx, reminderID, err.Error())
		return nil
	}
	if err := s.reminders.MarkReminderSent(ctx, reminderID, s.now()); err != nil {
		log.WithError(err).WithField("reminder_id", reminderID).Error("Invoice pass: failed to mark sent")
	}
	return nil
}

func hasCriticalOverdue(recs []models.ServiceRecommendation) bool {
	for _, rec := range recs {
		if rec.Overdue && rec.Priority == models.PriorityCritical {
			return true
		}
	}
	return false
}

func recipientFor(customer *models.Customer, channel models.Channel) string {
	switch channel {
	case models.ChannelEmail:
		return customer.Email
	case models.ChannelSMS:
		return customer.Phone
	default:
		return customer.ID.Hex()
	}
}

func serviceReminderText(vehicle *models.Vehicle, recs []models.ServiceRecommendation) (string, string) {
	subject := fmt.Sprintf("Maintenance due for your %d %s %s",
		vehicle.Identity.Year, vehicle.Identity.Make, vehicle.Identity.Model)

	var b strings.Builder
	b.WriteString("The following services need attention:\n")
	for _, rec := range recs {
		fmt.Fprintf(&b, "- %s (%s): %s, estimated $%.2f\n",
			rec.ServiceType, rec.Priority, rec.Reason, rec.EstimatedCost)
	}
	return subject, b.String()
}
