package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReminderCollection implements ReminderCollection for MongoDB.
type MongoReminderCollection struct {
	Collection *mongo.Collection
}

// InsertReminder inserts a reminder record and returns its hex id.
func (c *MongoReminderCollection) InsertReminder(ctx context.Context, reminder models.Reminder) (string, error) {
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = time.Now()
	}
	res, err := c.Collection.InsertOne(ctx, reminder)
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// FindDuePending returns pending reminders whose scheduled time has arrived,
// oldest first, capped at limit. Reminders created at or after now are left
// for the next sweep: the flush pass runs concurrently with the passes that
// create reminders, and the record sets must stay disjoint.
func (c *MongoReminderCollection) FindDuePending(ctx context.Context, now time.Time, limit int64) ([]models.Reminder, error) {
	filter := bson.M{
		"status":       models.ReminderPending,
		"scheduled_at": bson.M{"$lte": now},
		"created_at":   bson.M{"$lt": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "scheduled_at", Value: 1}}).
		SetLimit(limit)
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var reminders []models.Reminder
	if err := cursor.All(ctx, &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

// MarkReminderSent transitions a reminder to sent with a sent-at timestamp.
func (c *MongoReminderCollection) MarkReminderSent(ctx context.Context, id string, sentAt time.Time) error {
	return c.setStatus(ctx, id, bson.M{"status": models.ReminderSent, "sent_at": sentAt, "error": ""})
}

// MarkReminderFailed transitions a reminder to failed with an error message.
func (c *MongoReminderCollection) MarkReminderFailed(ctx context.Context, id string, errMsg string) error {
	return c.setStatus(ctx, id, bson.M{"status": models.ReminderFailed, "error": errMsg})
}

func (c *MongoReminderCollection) setStatus(ctx context.Context, id string, fields bson.M) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid reminder ID: %w", err)
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// HasRecentReminder reports whether a reminder of the given type was created
// for the customer at or after since. Used for dispatch cool-down checks.
func (c *MongoReminderCollection) HasRecentReminder(ctx context.Context, customerID, reminderType string, since time.Time) (bool, error) {
	filter := bson.M{
		"customer_id": customerID,
		"type":        reminderType,
		"created_at":  bson.M{"$gte": since},
	}
	count, err := c.Collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MongoInvoiceCollection implements InvoiceCollection for MongoDB.
type MongoInvoiceCollection struct {
	Collection *mongo.Collection
}

// FindSentPastDue returns invoices in sent status whose due date has passed.
func (c *MongoInvoiceCollection) FindSentPastDue(ctx context.Context, now time.Time) ([]models.Invoice, error) {
	filter := bson.M{
		"status":   models.InvoiceSent,
		"due_date": bson.M{"$lt": now},
	}
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var invoices []models.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// MarkInvoiceOverdue transitions an invoice to overdue status.
func (c *MongoInvoiceCollection) MarkInvoiceOverdue(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid invoice ID: %w", err)
	}
	update := bson.M{"$set": bson.M{"status": models.InvoiceOverdue, "updated_at": time.Now()}}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
