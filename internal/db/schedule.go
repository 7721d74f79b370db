package db

import (
	"context"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoScheduleCollection implements ScheduleCollection for MongoDB.
type MongoScheduleCollection struct {
	Collection *mongo.Collection
}

// UpsertSchedule replaces the schedule state for a vehicle, creating it if absent.
// Keyed by vehicle_id so two writes for the same vehicle cannot duplicate.
func (c *MongoScheduleCollection) UpsertSchedule(ctx context.Context, state models.ScheduleState) error {
	state.UpdatedAt = time.Now()
	_, err := c.Collection.ReplaceOne(
		ctx,
		bson.M{"vehicle_id": state.VehicleID},
		state,
		options.Replace().SetUpsert(true),
	)
	return err
}

// FindScheduleByVehicleID finds the schedule state for a vehicle.
func (c *MongoScheduleCollection) FindScheduleByVehicleID(ctx context.Context, vehicleID string) (*models.ScheduleState, error) {
	var state models.ScheduleState
	err := c.Collection.FindOne(ctx, bson.M{"vehicle_id": vehicleID}).Decode(&state)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &state, nil
}

// MongoServiceRecordCollection implements ServiceRecordCollection for MongoDB.
type MongoServiceRecordCollection struct {
	Collection *mongo.Collection
}

// InsertServiceRecord appends a completed service entry.
func (c *MongoServiceRecordCollection) InsertServiceRecord(ctx context.Context, record models.ServiceRecord) error {
	record.CreatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, record)
	return err
}

// FindServiceHistory returns a vehicle's service history, newest first.
func (c *MongoServiceRecordCollection) FindServiceHistory(ctx context.Context, vehicleID string) ([]models.ServiceRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "service_date", Value: -1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"vehicle_id": vehicleID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var records []models.ServiceRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
